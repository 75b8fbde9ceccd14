// Package research provides the cached data-gathering layer that feeds the
// report pipeline: web search context and the financial snapshot.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

const sourceSearch = "search"

// searchQueries are the research pillars fetched for every ticker. Each
// template receives the company name (or ticker when unknown).
var searchQueries = []string{
	"%s latest quarterly earnings results",
	"%s analyst outlook and price targets",
	"%s competitive position and industry trends",
	"%s business risks and challenges",
}

// retryPolicy is the transient-failure policy shared by both adapters:
// one retry after a short pause, then degrade.
type retryPolicy struct {
	attempts int
	pause    time.Duration
}

var defaultRetry = retryPolicy{attempts: 2, pause: 2 * time.Second}

// searchAdapter implements interfaces.SearchAdapter on top of a search
// client and the fingerprint cache.
type searchAdapter struct {
	client     interfaces.SearchClient
	cache      interfaces.CacheStore
	logger     *common.Logger
	ttl        time.Duration
	maxResults int
	retry      retryPolicy
}

// NewSearchAdapter creates the cached search adapter. The configured cache
// TTL applies, capped at the search freshness ceiling.
func NewSearchAdapter(client interfaces.SearchClient, cache interfaces.CacheStore, cfg *common.Config, logger *common.Logger) interfaces.SearchAdapter {
	return &searchAdapter{
		client:     client,
		cache:      cache,
		logger:     logger,
		ttl:        common.EffectiveTTL(cfg.Cache.GetTTL(), common.FreshnessSearch),
		maxResults: cfg.Clients.Tavily.MaxResults,
		retry:      defaultRetry,
	}
}

func (a *searchAdapter) Fetch(ctx context.Context, ticker, company string, force bool) *models.SearchResult {
	subject := company
	if subject == "" {
		subject = ticker
	}
	queries := make([]string, len(searchQueries))
	for i, tmpl := range searchQueries {
		queries[i] = fmt.Sprintf(tmpl, subject)
	}

	fp := models.Fingerprint(sourceSearch, ticker, map[string]string{
		"queries": strings.Join(queries, "|"),
	})

	if !force {
		if cached := a.fromCache(ctx, fp, ticker); cached != nil {
			return cached
		}
	}

	result := &models.SearchResult{
		Ticker:    ticker,
		Queries:   queries,
		Status:    models.SourceOK,
		FetchedAt: time.Now(),
	}

	failed := 0
	for _, query := range queries {
		items, err := a.search(ctx, query)
		if err != nil {
			failed++
			a.logger.Warn().Str("ticker", ticker).Str("query", query).Err(err).Msg("Search query failed")
			continue
		}
		result.Items = append(result.Items, items...)
	}

	switch {
	case failed == len(queries):
		result.Status = models.SourceUnavailable
		result.Notice = "web search unavailable; report generated without recent web context"
	case failed > 0:
		result.Status = models.SourceDegraded
		result.Notice = fmt.Sprintf("%d of %d search queries failed; web context is partial", failed, len(queries))
	}

	if result.Status != models.SourceUnavailable {
		a.store(ctx, fp, ticker, result)
	}
	return result
}

// search runs one query with the transient-failure retry policy.
func (a *searchAdapter) search(ctx context.Context, query string) ([]models.SearchItem, error) {
	opts := []interfaces.SearchOption{interfaces.WithTopic("news")}
	if a.maxResults > 0 {
		opts = append(opts, interfaces.WithMaxResults(a.maxResults))
	}
	var lastErr error
	for attempt := 1; attempt <= a.retry.attempts; attempt++ {
		items, err := a.client.Search(ctx, query, opts...)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if attempt < a.retry.attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.retry.pause):
			}
		}
	}
	return nil, lastErr
}

// fromCache returns the cached result, or nil on miss. Cache store errors
// are logged and treated as misses so the pipeline proceeds to the provider.
func (a *searchAdapter) fromCache(ctx context.Context, fp, ticker string) *models.SearchResult {
	payload, found, err := a.cache.Get(ctx, fp)
	if err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Search cache read failed; falling through to provider")
		return nil
	}
	if !found {
		return nil
	}
	var result models.SearchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Corrupt cached search payload; refetching")
		return nil
	}
	a.logger.Debug().Str("ticker", ticker).Int("items", len(result.Items)).Msg("Search cache hit")
	return &result
}

func (a *searchAdapter) store(ctx context.Context, fp, ticker string, result *models.SearchResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to encode search result for cache")
		return
	}
	if err := a.cache.PutTagged(ctx, fp, sourceSearch, ticker, payload, a.ttl); err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Search cache write failed")
	}
}

var _ interfaces.SearchAdapter = (*searchAdapter)(nil)
