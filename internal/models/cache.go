package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// CacheEntry is one cached data-source payload, keyed by fingerprint.
type CacheEntry struct {
	Fingerprint string `badgerhold:"key"`
	Source      string
	Ticker      string
	Payload     []byte
	CreatedAt   time.Time
	TTL         time.Duration
}

// Expired reports whether the entry is past its TTL at the given instant.
// Expired entries are treated as absent by the cache layer.
func (e *CacheEntry) Expired(now time.Time) bool {
	if e.CreatedAt.IsZero() {
		return true
	}
	return now.Sub(e.CreatedAt) >= e.TTL
}

// Fingerprint derives the deterministic cache key for a request.
// Composition: sha256 over source, ticker, and the sorted "k=v" parameter
// pairs, NUL-separated. Identical requests always produce identical keys.
func Fingerprint(source, ticker string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(source)
	sb.WriteByte(0)
	sb.WriteString(ticker)
	for _, k := range keys {
		sb.WriteByte(0)
		sb.WriteString(fmt.Sprintf("%s=%s", k, params[k]))
	}

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
