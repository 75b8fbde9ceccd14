package models

import "time"

// SourceStatus tags an adapter result as usable, degraded, or missing.
// Degraded results carry explicit placeholder text downstream instead of
// silently dropping data.
type SourceStatus string

const (
	SourceOK          SourceStatus = "ok"
	SourceDegraded    SourceStatus = "degraded"
	SourceUnavailable SourceStatus = "unavailable"
)

// SearchItem is one normalized web search hit.
type SearchItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Snippet     string    `json:"snippet"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// SearchResult is the search adapter's normalized output: the ordered hits
// for each research query issued for a ticker.
type SearchResult struct {
	Ticker    string       `json:"ticker"`
	Queries   []string     `json:"queries"`
	Items     []SearchItem `json:"items"`
	Status    SourceStatus `json:"status"`
	Notice    string       `json:"notice,omitempty"` // set when Status != ok
	FetchedAt time.Time    `json:"fetched_at"`
}
