// Package badger provides the BadgerHold-backed cache store for data-source
// payloads.
package badger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/thesis/internal/common"
	"github.com/bobmcallan/thesis/internal/interfaces"
	"github.com/bobmcallan/thesis/internal/models"
)

type cacheStorage struct {
	db     *badgerhold.Store
	logger *common.Logger
	now    func() time.Time
}

// NewCacheStorage opens a CacheStore backed by BadgerHold at the given
// directory. Entries past their TTL are reported as absent and lazily
// deleted.
func NewCacheStorage(logger *common.Logger, path string) (interfaces.CacheStore, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("path", path).Msg("Cache store opened")
	return &cacheStorage{db: db, logger: logger, now: time.Now}, nil
}

func openDB(path string) (*badgerhold.Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	return db, nil
}

func (s *cacheStorage) Get(_ context.Context, fingerprint string) ([]byte, bool, error) {
	var entry models.CacheEntry
	err := s.db.Get(fingerprint, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get fingerprint '%s': %w", fingerprint, err)
	}

	if entry.Expired(s.now()) {
		// Lazy expiry: drop the stale entry so Stats stays honest.
		if err := s.db.Delete(fingerprint, models.CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			s.logger.Warn().Str("fingerprint", fingerprint).Err(err).Msg("Failed to delete expired cache entry")
		}
		return nil, false, nil
	}

	return entry.Payload, true, nil
}

func (s *cacheStorage) Put(_ context.Context, fingerprint string, payload []byte, ttl time.Duration) error {
	entry := models.CacheEntry{
		Fingerprint: fingerprint,
		Payload:     payload,
		CreatedAt:   s.now(),
		TTL:         ttl,
	}
	if err := s.db.Upsert(fingerprint, &entry); err != nil {
		return fmt.Errorf("failed to put fingerprint '%s': %w", fingerprint, err)
	}
	return nil
}

// PutTagged stores a payload with source/ticker tags so entries can be
// purged and inspected per ticker.
func (s *cacheStorage) PutTagged(_ context.Context, fingerprint, source, ticker string, payload []byte, ttl time.Duration) error {
	entry := models.CacheEntry{
		Fingerprint: fingerprint,
		Source:      source,
		Ticker:      ticker,
		Payload:     payload,
		CreatedAt:   s.now(),
		TTL:         ttl,
	}
	if err := s.db.Upsert(fingerprint, &entry); err != nil {
		return fmt.Errorf("failed to put fingerprint '%s': %w", fingerprint, err)
	}
	return nil
}

func (s *cacheStorage) PurgeTicker(_ context.Context, ticker string) (int, error) {
	var entries []models.CacheEntry
	if err := s.db.Find(&entries, badgerhold.Where("Ticker").Eq(ticker)); err != nil {
		return 0, fmt.Errorf("failed to find entries for '%s': %w", ticker, err)
	}
	count := 0
	for _, entry := range entries {
		if err := s.db.Delete(entry.Fingerprint, models.CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			return count, fmt.Errorf("failed to delete entry '%s': %w", entry.Fingerprint, err)
		}
		count++
	}
	return count, nil
}

func (s *cacheStorage) Purge(_ context.Context) (int, error) {
	var entries []models.CacheEntry
	if err := s.db.Find(&entries, nil); err != nil {
		return 0, fmt.Errorf("failed to list cache entries: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if err := s.db.Delete(entry.Fingerprint, models.CacheEntry{}); err != nil && err != badgerhold.ErrNotFound {
			return count, fmt.Errorf("failed to delete entry '%s': %w", entry.Fingerprint, err)
		}
		count++
	}
	return count, nil
}

func (s *cacheStorage) Stats(_ context.Context) (*interfaces.CacheStats, error) {
	var entries []models.CacheEntry
	if err := s.db.Find(&entries, nil); err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}

	now := s.now()
	tickers := map[string]bool{}
	live := 0
	for _, entry := range entries {
		if entry.Expired(now) {
			continue
		}
		live++
		if entry.Ticker != "" {
			tickers[entry.Ticker] = true
		}
	}

	names := make([]string, 0, len(tickers))
	for t := range tickers {
		names = append(names, t)
	}
	sort.Strings(names)

	return &interfaces.CacheStats{
		Entries:       live,
		CachedTickers: names,
	}, nil
}

func (s *cacheStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ interfaces.CacheStore = (*cacheStorage)(nil)
