package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bobmcallan/thesis/internal/app"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

type mockReportService struct {
	generateFn func(ctx context.Context, ticker string, opts interfaces.ReportOptions) (*models.Report, *models.RenderedDocument, error)
}

func (m *mockReportService) GenerateReport(ctx context.Context, ticker string, opts interfaces.ReportOptions) (*models.Report, *models.RenderedDocument, error) {
	return m.generateFn(ctx, ticker, opts)
}

type mockCacheStore struct {
	statsFn       func() (*interfaces.CacheStats, error)
	purgeFn       func() (int, error)
	purgeTickerFn func(ticker string) (int, error)
}

func (m *mockCacheStore) Get(ctx context.Context, fingerprint string) ([]byte, bool, error) {
	return nil, false, nil
}
func (m *mockCacheStore) Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error {
	return nil
}
func (m *mockCacheStore) PutTagged(ctx context.Context, fingerprint, source, ticker string, payload []byte, ttl time.Duration) error {
	return nil
}
func (m *mockCacheStore) PurgeTicker(ctx context.Context, ticker string) (int, error) {
	if m.purgeTickerFn != nil {
		return m.purgeTickerFn(ticker)
	}
	return 0, nil
}
func (m *mockCacheStore) Purge(ctx context.Context) (int, error) {
	if m.purgeFn != nil {
		return m.purgeFn()
	}
	return 0, nil
}
func (m *mockCacheStore) Stats(ctx context.Context) (*interfaces.CacheStats, error) {
	if m.statsFn != nil {
		return m.statsFn()
	}
	return &interfaces.CacheStats{}, nil
}
func (m *mockCacheStore) Close() error { return nil }

func newTestApp(svc interfaces.ReportService, cache interfaces.CacheStore) *app.App {
	if cache == nil {
		cache = &mockCacheStore{}
	}
	return &app.App{
		Cache:         cache,
		ReportService: svc,
		Runs:          app.NewRunRegistry(),
	}
}

// waitForRun polls the registry until the run leaves pending/running.
func waitForRun(t *testing.T, a *app.App, id string) app.Run {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		run, ok := a.Runs.Get(id)
		if !ok {
			t.Fatalf("run %s disappeared", id)
		}
		if run.State == app.RunCompleted || run.State == app.RunFailed {
			return run
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("run did not finish in time")
	return app.Run{}
}

func TestCreateReport_CompletesRun(t *testing.T) {
	doc := &models.RenderedDocument{
		Ticker:  "AAPL",
		PDFPath: "/tmp/reports/AAPL/report.pdf",
	}
	svc := &mockReportService{
		generateFn: func(ctx context.Context, ticker string, opts interfaces.ReportOptions) (*models.Report, *models.RenderedDocument, error) {
			if ticker != "AAPL" {
				t.Errorf("ticker = %q", ticker)
			}
			opts.Progress(interfaces.StageFetchData, "fetching source data")
			opts.Progress(interfaces.StageDone, "report complete")
			return &models.Report{Ticker: ticker}, doc, nil
		},
	}
	a := newTestApp(svc, nil)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reports/AAPL", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	var created struct {
		ID     string `json:"id"`
		Ticker string `json:"ticker"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("response missing run id")
	}
	if created.Ticker != "AAPL" {
		t.Errorf("ticker = %q", created.Ticker)
	}

	run := waitForRun(t, a, created.ID)
	if run.State != app.RunCompleted {
		t.Errorf("state = %s, want completed (error: %s)", run.State, run.Error)
	}
	if run.Document == nil || run.Document.PDFPath != doc.PDFPath {
		t.Errorf("document not attached to run: %+v", run.Document)
	}
}

func TestCreateReport_ForceFlag(t *testing.T) {
	var gotForce bool
	svc := &mockReportService{
		generateFn: func(ctx context.Context, ticker string, opts interfaces.ReportOptions) (*models.Report, *models.RenderedDocument, error) {
			gotForce = opts.ForceRefresh
			return &models.Report{Ticker: ticker}, &models.RenderedDocument{}, nil
		},
	}
	a := newTestApp(svc, nil)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reports/AAPL?force=true", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	waitForRun(t, a, created.ID)

	if !gotForce {
		t.Error("force=true not propagated to pipeline")
	}
}

func TestCreateReport_InvalidTicker(t *testing.T) {
	a := newTestApp(&mockReportService{}, nil)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reports/$$bad$$", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCreateReport_PipelineFailure(t *testing.T) {
	svc := &mockReportService{
		generateFn: func(ctx context.Context, ticker string, opts interfaces.ReportOptions) (*models.Report, *models.RenderedDocument, error) {
			return nil, nil, errors.New("all sources unavailable")
		},
	}
	a := newTestApp(svc, nil)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reports/AAPL", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)

	run := waitForRun(t, a, created.ID)
	if run.State != app.RunFailed {
		t.Errorf("state = %s, want failed", run.State)
	}
	if run.Error != "all sources unavailable" {
		t.Errorf("error = %q", run.Error)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	a := newTestApp(&mockReportService{}, nil)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/no-such-run")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestArtifact_ConflictBeforeCompletion(t *testing.T) {
	a := newTestApp(&mockReportService{}, nil)
	run := a.Runs.Create("AAPL")

	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/" + run.ID + "/report.pdf")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestArtifact_ServesMarkdown(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "report.md")
	if err := os.WriteFile(mdPath, []byte("# AAPL (AAPL) Investment Thesis\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a := newTestApp(&mockReportService{}, nil)
	run := a.Runs.Create("AAPL")
	a.Runs.Complete(run.ID, &models.RenderedDocument{
		Ticker:       "AAPL",
		MarkdownPath: mdPath,
	})

	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/runs/" + run.ID + "/report.md")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/markdown; charset=utf-8" {
		t.Errorf("content-type = %q", ct)
	}
}

func TestCacheEndpoints(t *testing.T) {
	cache := &mockCacheStore{
		statsFn: func() (*interfaces.CacheStats, error) {
			return &interfaces.CacheStats{Entries: 4, CachedTickers: []string{"AAPL", "MSFT"}}, nil
		},
		purgeFn: func() (int, error) { return 4, nil },
		purgeTickerFn: func(ticker string) (int, error) {
			if ticker != "AAPL" {
				t.Errorf("ticker = %q", ticker)
			}
			return 2, nil
		},
	}
	a := newTestApp(&mockReportService{}, cache)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/cache/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats interfaces.CacheStats
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if stats.Entries != 4 || len(stats.CachedTickers) != 2 {
		t.Errorf("stats = %+v", stats)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/cache", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var purged map[string]int
	json.NewDecoder(resp.Body).Decode(&purged)
	resp.Body.Close()
	if purged["removed"] != 4 {
		t.Errorf("removed = %d, want 4", purged["removed"])
	}

	req, _ = http.NewRequest(http.MethodDelete, srv.URL+"/api/cache/AAPL", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var tickerPurge map[string]any
	json.NewDecoder(resp.Body).Decode(&tickerPurge)
	resp.Body.Close()
	if tickerPurge["removed"].(float64) != 2 {
		t.Errorf("removed = %v, want 2", tickerPurge["removed"])
	}
}

func TestHealth(t *testing.T) {
	a := newTestApp(&mockReportService{}, nil)
	srv := httptest.NewServer(buildMux(a))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
