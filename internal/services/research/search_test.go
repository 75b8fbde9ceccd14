package research

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

// --- mock search client ---

type mockSearchClient struct {
	mu         sync.Mutex
	calls      int
	lastParams interfaces.SearchParams
	searchFn   func(ctx context.Context, query string) ([]models.SearchItem, error)
}

func (m *mockSearchClient) Search(ctx context.Context, query string, opts ...interfaces.SearchOption) ([]models.SearchItem, error) {
	var params interfaces.SearchParams
	for _, opt := range opts {
		opt(&params)
	}
	m.mu.Lock()
	m.calls++
	m.lastParams = params
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, query)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSearchClient) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSearchClient) lastSearchParams() interfaces.SearchParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastParams
}

// --- mock cache store ---

type mockCacheStore struct {
	mu      sync.Mutex
	entries map[string][]byte
	tickers map[string]string
	lastTTL time.Duration
	getErr  error
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{entries: map[string][]byte{}, tickers: map[string]string{}}
}

func (m *mockCacheStore) Get(_ context.Context, fingerprint string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	payload, ok := m.entries[fingerprint]
	return payload, ok, nil
}

func (m *mockCacheStore) Put(_ context.Context, fingerprint string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fingerprint] = payload
	return nil
}

func (m *mockCacheStore) PutTagged(_ context.Context, fingerprint, _, ticker string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[fingerprint] = payload
	m.tickers[fingerprint] = ticker
	m.lastTTL = ttl
	return nil
}

func (m *mockCacheStore) PurgeTicker(_ context.Context, ticker string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for fp, t := range m.tickers {
		if t == ticker {
			delete(m.entries, fp)
			delete(m.tickers, fp)
			count++
		}
	}
	return count, nil
}

func (m *mockCacheStore) Purge(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := len(m.entries)
	m.entries = map[string][]byte{}
	m.tickers = map[string]string{}
	return count, nil
}

func (m *mockCacheStore) Stats(_ context.Context) (*interfaces.CacheStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &interfaces.CacheStats{Entries: len(m.entries)}, nil
}

func (m *mockCacheStore) Close() error { return nil }

func (m *mockCacheStore) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

var _ interfaces.CacheStore = (*mockCacheStore)(nil)

// ---

func newTestSearchAdapter(client *mockSearchClient, cache *mockCacheStore) *searchAdapter {
	return &searchAdapter{
		client: client,
		cache:  cache,
		logger: common.NewSilentLogger(),
		ttl:    time.Hour,
		retry:  retryPolicy{attempts: 1},
	}
}

func TestSearchFetchMissThenHit(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, query string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "hit for " + query, URL: "https://example.com", Snippet: "text"}}, nil
		},
	}
	cache := newMockCacheStore()
	a := newTestSearchAdapter(client, cache)

	result := a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	if result.Status != models.SourceOK {
		t.Fatalf("Status = %s, want ok", result.Status)
	}
	if len(result.Items) != len(searchQueries) {
		t.Errorf("items = %d, want %d", len(result.Items), len(searchQueries))
	}
	if client.callCount() != len(searchQueries) {
		t.Errorf("remote calls = %d, want %d", client.callCount(), len(searchQueries))
	}
	if cache.size() != 1 {
		t.Errorf("cache entries = %d, want 1", cache.size())
	}

	// Second fetch must be served entirely from the cache
	before := client.callCount()
	cached := a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	if client.callCount() != before {
		t.Errorf("cache hit made %d remote calls, want 0", client.callCount()-before)
	}
	if len(cached.Items) != len(result.Items) {
		t.Errorf("cached items = %d, want %d", len(cached.Items), len(result.Items))
	}
}

func TestSearchFetchForceBypassesCache(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "t", URL: "https://example.com", Snippet: "s"}}, nil
		},
	}
	cache := newMockCacheStore()
	a := newTestSearchAdapter(client, cache)

	a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	before := client.callCount()
	a.Fetch(context.Background(), "AAPL", "Apple Inc", true)
	if got := client.callCount() - before; got != len(searchQueries) {
		t.Errorf("force refresh made %d remote calls, want %d", got, len(searchQueries))
	}
}

func TestSearchFetchAllQueriesFail(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return nil, fmt.Errorf("provider down")
		},
	}
	cache := newMockCacheStore()
	a := newTestSearchAdapter(client, cache)

	result := a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	if result.Status != models.SourceUnavailable {
		t.Errorf("Status = %s, want unavailable", result.Status)
	}
	if result.Notice == "" {
		t.Error("unavailable result missing notice")
	}
	if cache.size() != 0 {
		t.Error("unavailable result must not be cached")
	}
}

func TestSearchFetchPartialFailureDegrades(t *testing.T) {
	var n int
	client := &mockSearchClient{}
	client.searchFn = func(_ context.Context, _ string) ([]models.SearchItem, error) {
		n++
		if n == 1 {
			return nil, fmt.Errorf("transient")
		}
		return []models.SearchItem{{Title: fmt.Sprintf("t%d", n), URL: "https://example.com", Snippet: "s"}}, nil
	}
	cache := newMockCacheStore()
	a := newTestSearchAdapter(client, cache)

	result := a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	if result.Status != models.SourceDegraded {
		t.Errorf("Status = %s, want degraded", result.Status)
	}
	if len(result.Items) != len(searchQueries)-1 {
		t.Errorf("items = %d, want %d", len(result.Items), len(searchQueries)-1)
	}
	if cache.size() != 1 {
		t.Error("degraded result should still be cached")
	}
}

func TestSearchFetchCacheErrorFallsThrough(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "t", URL: "https://example.com", Snippet: "s"}}, nil
		},
	}
	cache := newMockCacheStore()
	cache.getErr = fmt.Errorf("disk exploded")
	a := newTestSearchAdapter(client, cache)

	result := a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	if result.Status != models.SourceOK {
		t.Errorf("Status = %s, want ok despite cache read failure", result.Status)
	}
	if client.callCount() == 0 {
		t.Error("cache read failure should fall through to the provider")
	}
}

func TestSearchAdapterUsesConfiguredCacheTTL(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "t", URL: "https://example.com", Snippet: "s"}}, nil
		},
	}
	cache := newMockCacheStore()
	cfg := common.NewDefaultConfig()
	cfg.Cache.TTL = "30m"
	a := NewSearchAdapter(client, cache, cfg, common.NewSilentLogger())

	a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	cache.mu.Lock()
	got := cache.lastTTL
	cache.mu.Unlock()
	if got != 30*time.Minute {
		t.Errorf("cache write ttl = %s, want 30m", got)
	}
}

func TestSearchAdapterCapsCacheTTLAtFreshnessCeiling(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "t", URL: "https://example.com", Snippet: "s"}}, nil
		},
	}
	cache := newMockCacheStore()
	cfg := common.NewDefaultConfig() // cache.ttl defaults to 24h
	a := NewSearchAdapter(client, cache, cfg, common.NewSilentLogger())

	a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	cache.mu.Lock()
	got := cache.lastTTL
	cache.mu.Unlock()
	if got != common.FreshnessSearch {
		t.Errorf("cache write ttl = %s, want %s", got, common.FreshnessSearch)
	}
}

func TestSearchAdapterPassesConfiguredMaxResults(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "t", URL: "https://example.com", Snippet: "s"}}, nil
		},
	}
	cfg := common.NewDefaultConfig()
	cfg.Clients.Tavily.MaxResults = 3
	a := NewSearchAdapter(client, newMockCacheStore(), cfg, common.NewSilentLogger())

	a.Fetch(context.Background(), "AAPL", "Apple Inc", false)
	params := client.lastSearchParams()
	if params.MaxResults != 3 {
		t.Errorf("MaxResults = %d, want 3", params.MaxResults)
	}
	if params.Topic != "news" {
		t.Errorf("Topic = %q, want news", params.Topic)
	}
}

func TestSearchCachedPayloadRoundTrips(t *testing.T) {
	client := &mockSearchClient{
		searchFn: func(_ context.Context, _ string) ([]models.SearchItem, error) {
			return []models.SearchItem{{Title: "t", URL: "https://example.com/a", Snippet: "s"}}, nil
		},
	}
	cache := newMockCacheStore()
	a := newTestSearchAdapter(client, cache)

	a.Fetch(context.Background(), "AAPL", "Apple Inc", false)

	cache.mu.Lock()
	var raw []byte
	for _, payload := range cache.entries {
		raw = payload
	}
	cache.mu.Unlock()

	var stored models.SearchResult
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("cached payload is not valid JSON: %v", err)
	}
	if stored.Ticker != "AAPL" {
		t.Errorf("stored ticker = %q, want AAPL", stored.Ticker)
	}
}
