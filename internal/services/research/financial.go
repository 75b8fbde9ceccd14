package research

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

const (
	sourceFinancial = "financial"

	barLookbackYears = 1
	newsLimit        = 10
)

// financialAdapter implements interfaces.FinancialAdapter on top of a
// market-data client and the fingerprint cache.
type financialAdapter struct {
	client interfaces.MarketDataClient
	cache  interfaces.CacheStore
	logger *common.Logger
	ttl    time.Duration
	retry  retryPolicy
	now    func() time.Time
}

// NewFinancialAdapter creates the cached financial-data adapter. The
// configured cache TTL applies, capped at the price-bar freshness ceiling.
func NewFinancialAdapter(client interfaces.MarketDataClient, cache interfaces.CacheStore, cfg *common.Config, logger *common.Logger) interfaces.FinancialAdapter {
	return &financialAdapter{
		client: client,
		cache:  cache,
		logger: logger,
		ttl:    common.EffectiveTTL(cfg.Cache.GetTTL(), common.FreshnessPriceBars),
		retry:  defaultRetry,
		now:    time.Now,
	}
}

func (a *financialAdapter) Fetch(ctx context.Context, ticker string, force bool) *models.FinancialSnapshot {
	fp := models.Fingerprint(sourceFinancial, ticker, map[string]string{
		"bars": "1y",
		"news": "10",
	})

	if !force {
		if cached := a.fromCache(ctx, fp, ticker); cached != nil {
			return cached
		}
	}

	snapshot := a.fetchFundamentals(ctx, ticker)
	if snapshot.Status == models.SourceUnavailable {
		return snapshot
	}

	now := a.now()
	bars, err := a.fetchBars(ctx, ticker, now)
	if err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to fetch price history")
		snapshot.Status = models.SourceDegraded
		snapshot.Notice = appendNotice(snapshot.Notice, "price history unavailable")
	} else {
		snapshot.Bars = bars
	}

	news, err := a.fetchNews(ctx, ticker)
	if err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to fetch company news")
		snapshot.Status = models.SourceDegraded
		snapshot.Notice = appendNotice(snapshot.Notice, "recent news unavailable")
	} else {
		snapshot.News = news
	}

	snapshot.FetchedAt = now
	a.store(ctx, fp, ticker, snapshot)
	return snapshot
}

// fetchFundamentals is the anchor call: without it the snapshot is
// unavailable and nothing is cached.
func (a *financialAdapter) fetchFundamentals(ctx context.Context, ticker string) *models.FinancialSnapshot {
	var lastErr error
	for attempt := 1; attempt <= a.retry.attempts; attempt++ {
		snapshot, err := a.client.GetFundamentals(ctx, ticker)
		if err == nil {
			return snapshot
		}
		lastErr = err
		if attempt < a.retry.attempts {
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = a.retry.attempts
			case <-time.After(a.retry.pause):
			}
		}
	}
	a.logger.Warn().Str("ticker", ticker).Err(lastErr).Msg("Fundamentals unavailable after retries")
	return &models.FinancialSnapshot{
		Ticker:    ticker,
		Status:    models.SourceUnavailable,
		Notice:    "financial data unavailable; report generated from web context only",
		FetchedAt: a.now(),
	}
}

func (a *financialAdapter) fetchBars(ctx context.Context, ticker string, now time.Time) ([]models.EODBar, error) {
	from := now.AddDate(-barLookbackYears, 0, 0)
	var lastErr error
	for attempt := 1; attempt <= a.retry.attempts; attempt++ {
		bars, err := a.client.GetEOD(ctx, ticker, interfaces.WithDateRange(from, now))
		if err == nil {
			return bars, nil
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

func (a *financialAdapter) fetchNews(ctx context.Context, ticker string) ([]models.NewsItem, error) {
	var lastErr error
	for attempt := 1; attempt <= a.retry.attempts; attempt++ {
		news, err := a.client.GetNews(ctx, ticker, newsLimit)
		if err == nil {
			return news, nil
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

func (a *financialAdapter) fromCache(ctx context.Context, fp, ticker string) *models.FinancialSnapshot {
	payload, found, err := a.cache.Get(ctx, fp)
	if err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Financial cache read failed; falling through to provider")
		return nil
	}
	if !found {
		return nil
	}
	var snapshot models.FinancialSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Corrupt cached financial payload; refetching")
		return nil
	}
	a.logger.Debug().Str("ticker", ticker).Int("bars", len(snapshot.Bars)).Msg("Financial cache hit")
	return &snapshot
}

func (a *financialAdapter) store(ctx context.Context, fp, ticker string, snapshot *models.FinancialSnapshot) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to encode financial snapshot for cache")
		return
	}
	if err := a.cache.PutTagged(ctx, fp, sourceFinancial, ticker, payload, a.ttl); err != nil {
		a.logger.Warn().Str("ticker", ticker).Err(err).Msg("Financial cache write failed")
	}
}

func appendNotice(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + "; " + addition
}

var _ interfaces.FinancialAdapter = (*financialAdapter)(nil)
