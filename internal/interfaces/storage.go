// Package interfaces defines the contracts between pipeline components.
package interfaces

import (
	"context"
	"time"
)

// CacheStore maps request fingerprints to previously fetched payloads.
// Entries past their TTL are treated as absent. Implementations must be
// safe for concurrent use; last-writer-wins is acceptable because entries
// are idempotent for identical fingerprints.
type CacheStore interface {
	// Get returns the payload for a fingerprint, reporting whether a live
	// (non-expired) entry was found.
	Get(ctx context.Context, fingerprint string) ([]byte, bool, error)

	// Put stores a payload under a fingerprint with the given TTL.
	Put(ctx context.Context, fingerprint string, payload []byte, ttl time.Duration) error

	// PutTagged stores a payload with source/ticker tags so entries can be
	// purged and inspected per ticker.
	PutTagged(ctx context.Context, fingerprint, source, ticker string, payload []byte, ttl time.Duration) error

	// PurgeTicker deletes all entries for one ticker, returning the count.
	PurgeTicker(ctx context.Context, ticker string) (int, error)

	// Purge deletes all entries, returning the count.
	Purge(ctx context.Context) (int, error)

	// Stats summarizes the store contents.
	Stats(ctx context.Context) (*CacheStats, error)

	Close() error
}

// CacheStats summarizes cache store contents.
type CacheStats struct {
	Entries       int      `json:"entries"`
	CachedTickers []string `json:"cached_tickers"`
}
