package models

import "time"

// StatementType identifies one financial statement family.
type StatementType string

const (
	StatementIncome   StatementType = "income"
	StatementBalance  StatementType = "balance"
	StatementCashFlow StatementType = "cash_flow"
)

// StatementPeriod is one reporting period of a statement, most recent first.
type StatementPeriod struct {
	Date   string             `json:"date"`
	Values map[string]float64 `json:"values"`
}

// EODBar is one end-of-day price bar.
type EODBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Fundamentals holds the valuation snapshot used by the prompt assembler.
type Fundamentals struct {
	MarketCap     float64 `json:"market_cap"`
	PE            float64 `json:"pe"`
	PB            float64 `json:"pb"`
	EPS           float64 `json:"eps"`
	DividendYield float64 `json:"dividend_yield"`
	Beta          float64 `json:"beta"`
}

// NewsItem is one provider news article for a ticker.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   string    `json:"sentiment,omitempty"`
}

// FinancialSnapshot is the financial adapter's normalized output for a
// ticker: identity, statements keyed by type, market data, and recent news.
type FinancialSnapshot struct {
	Ticker       string                              `json:"ticker"`
	Name         string                              `json:"name"`
	Sector       string                              `json:"sector"`
	Industry     string                              `json:"industry"`
	Description  string                              `json:"description"`
	Fundamentals *Fundamentals                       `json:"fundamentals,omitempty"`
	Statements   map[StatementType][]StatementPeriod `json:"statements,omitempty"`
	Bars         []EODBar                            `json:"bars,omitempty"`
	News         []NewsItem                          `json:"news,omitempty"`
	Status       SourceStatus                        `json:"status"`
	Notice       string                              `json:"notice,omitempty"`
	FetchedAt    time.Time                           `json:"fetched_at"`
}

// CompanyName returns the resolved company name, falling back to the ticker
// when the provider gave none.
func (s *FinancialSnapshot) CompanyName() string {
	if s == nil || s.Name == "" {
		if s == nil {
			return ""
		}
		return s.Ticker
	}
	return s.Name
}
