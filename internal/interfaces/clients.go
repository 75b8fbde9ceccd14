// Package interfaces defines the contracts between pipeline components.
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/thesis/internal/models"
)

// SearchClient provides access to the web-search provider.
type SearchClient interface {
	// Search runs one query and returns normalized hits.
	Search(ctx context.Context, query string, opts ...SearchOption) ([]models.SearchItem, error)
}

// SearchOption configures a search request
type SearchOption func(*SearchParams)

// SearchParams holds search query parameters
type SearchParams struct {
	MaxResults int
	Topic      string // "general" or "news"
	Depth      string // "basic" or "advanced"
}

// WithMaxResults caps the number of hits returned
func WithMaxResults(n int) SearchOption {
	return func(p *SearchParams) {
		p.MaxResults = n
	}
}

// WithTopic sets the search topic
func WithTopic(topic string) SearchOption {
	return func(p *SearchParams) {
		p.Topic = topic
	}
}

// WithDepth sets the search depth
func WithDepth(depth string) SearchOption {
	return func(p *SearchParams) {
		p.Depth = depth
	}
}

// MarketDataClient provides access to the financial-data provider.
type MarketDataClient interface {
	// GetEOD retrieves end-of-day price bars
	GetEOD(ctx context.Context, ticker string, opts ...EODOption) ([]models.EODBar, error)

	// GetFundamentals retrieves company identity, valuation, and statements
	GetFundamentals(ctx context.Context, ticker string) (*models.FinancialSnapshot, error)

	// GetNews retrieves recent news for a ticker
	GetNews(ctx context.Context, ticker string, limit int) ([]models.NewsItem, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
	Order  string // a=ascending, d=descending
}

// WithDateRange sets the date range for an EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period for an EOD query
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}

// LLMClient provides access to the language-model provider.
type LLMClient interface {
	// GenerateContent generates text from a prompt. Implementations bound
	// the call with a timeout and retry transient failures before erroring.
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
