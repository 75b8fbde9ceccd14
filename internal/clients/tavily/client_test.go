package tavily

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/thesis/internal/interfaces"
)

func TestSearch_ParsesResponse(t *testing.T) {
	var capturedBody searchRequest
	var capturedAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/search" {
			t.Errorf("expected path /search, got %s", r.URL.Path)
		}
		capturedAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &capturedBody)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"query": "AAPL latest quarterly earnings results",
			"results": [
				{"title": "Apple beats expectations", "url": "https://example.com/a", "content": "Revenue up 8%", "score": 0.92, "published_date": "2026-08-14"},
				{"title": "No URL entry", "url": "", "content": "dropped"},
				{"title": "Undated analysis", "url": "https://example.com/b", "content": "Outlook steady", "score": 0.71}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient("tvly-test-key", WithBaseURL(srv.URL))
	items, err := client.Search(context.Background(), "AAPL latest quarterly earnings results")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if capturedAuth != "Bearer tvly-test-key" {
		t.Errorf("expected bearer auth header, got %q", capturedAuth)
	}
	if capturedBody.Query != "AAPL latest quarterly earnings results" {
		t.Errorf("query not forwarded, got %q", capturedBody.Query)
	}
	if capturedBody.SearchDepth != "advanced" {
		t.Errorf("expected default depth advanced, got %q", capturedBody.SearchDepth)
	}
	if capturedBody.Topic != "general" {
		t.Errorf("expected default topic general, got %q", capturedBody.Topic)
	}
	if capturedBody.MaxResults != DefaultMaxResults {
		t.Errorf("expected default max_results %d, got %d", DefaultMaxResults, capturedBody.MaxResults)
	}

	// Entry without a URL is dropped
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title != "Apple beats expectations" {
		t.Errorf("title = %q", items[0].Title)
	}
	if items[0].Snippet != "Revenue up 8%" {
		t.Errorf("snippet = %q", items[0].Snippet)
	}
	want := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
	if !items[0].PublishedAt.Equal(want) {
		t.Errorf("published_at = %v, want %v", items[0].PublishedAt, want)
	}
	if !items[1].PublishedAt.IsZero() {
		t.Errorf("expected zero published_at when date missing, got %v", items[1].PublishedAt)
	}
}

func TestSearch_Options(t *testing.T) {
	var capturedBody searchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &capturedBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	client := NewClient("tvly-test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "AAPL business risks",
		interfaces.WithTopic("news"),
		interfaces.WithDepth("basic"),
		interfaces.WithMaxResults(5),
	)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if capturedBody.Topic != "news" {
		t.Errorf("topic = %q, want news", capturedBody.Topic)
	}
	if capturedBody.SearchDepth != "basic" {
		t.Errorf("depth = %q, want basic", capturedBody.SearchDepth)
	}
	if capturedBody.MaxResults != 5 {
		t.Errorf("max_results = %d, want 5", capturedBody.MaxResults)
	}
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "invalid api key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "AAPL analyst outlook")
	if err == nil {
		t.Fatal("expected error on 401")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.StatusCode)
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient("tvly-test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "AAPL competitive position")
	if err == nil {
		t.Fatal("expected error on invalid JSON")
	}
}

func TestSearch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient("tvly-test-key", WithBaseURL(srv.URL), WithTimeout(100*time.Millisecond))
	_, err := client.Search(context.Background(), "AAPL latest quarterly earnings results")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSearch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("tvly-test-key", WithBaseURL(srv.URL))
	_, err := client.Search(ctx, "AAPL analyst outlook")
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
