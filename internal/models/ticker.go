// Package models defines the data types shared across the thesis pipeline.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTicker rejects a pipeline run before any remote call is made.
var ErrInvalidTicker = errors.New("invalid ticker")

// knownSuffixes lists the exchange suffixes the pipeline accepts. A bare
// symbol is treated as a US listing.
var knownSuffixes = map[string]bool{
	"US": true,
	"HK": true,
	"AU": true,
	"L":  true,
	"TO": true,
}

// ValidateTicker checks a raw ticker string and returns its normalized
// (uppercased, trimmed) form. The base symbol must be 1-6 alphanumeric
// characters; an optional suffix must name a known exchange. Numeric-only
// bases are only valid for Hong Kong listings (e.g. "0700.HK").
func ValidateTicker(raw string) (string, error) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	if ticker == "" {
		return "", fmt.Errorf("%w: empty symbol", ErrInvalidTicker)
	}

	base := ticker
	suffix := ""
	if i := strings.IndexByte(ticker, '.'); i >= 0 {
		base = ticker[:i]
		suffix = ticker[i+1:]
		if !knownSuffixes[suffix] {
			return "", fmt.Errorf("%w: unknown exchange suffix '.%s'", ErrInvalidTicker, suffix)
		}
	}

	if len(base) < 1 || len(base) > 6 {
		return "", fmt.Errorf("%w: symbol '%s' must be 1-6 characters", ErrInvalidTicker, base)
	}

	digitsOnly := true
	for _, r := range base {
		switch {
		case r >= 'A' && r <= 'Z':
			digitsOnly = false
		case r >= '0' && r <= '9':
		default:
			return "", fmt.Errorf("%w: symbol '%s' contains '%c'", ErrInvalidTicker, base, r)
		}
	}

	if digitsOnly && suffix != "HK" {
		return "", fmt.Errorf("%w: numeric symbol '%s' requires the .HK suffix", ErrInvalidTicker, base)
	}

	return ticker, nil
}

// Exchange returns the exchange portion of a validated ticker, defaulting
// to "US" for bare symbols.
func Exchange(ticker string) string {
	if i := strings.IndexByte(ticker, '.'); i >= 0 {
		return ticker[i+1:]
	}
	return "US"
}
