package market

import (
	"context"
	"errors"
)

// ErrUnavailable signals that a price lookup produced no usable quote.
// Callers fall back to the last known price rather than failing the tick.
var ErrUnavailable = errors.New("market: price unavailable")

// Token is a discovered tradeable pair snapshot. Snapshots are immutable;
// each discovery pass replaces the previous one wholesale.
type Token struct {
	// PairAddress identifies the DEX pair and is the key for price lookups,
	// open-position checks and the re-entry guard.
	PairAddress  string
	TokenAddress string
	Ticker       string
	Name         string

	LiquidityUSD float64
	MarketCapUSD float64
	AgeMinutes   float64

	HasTwitter  bool
	HasTelegram bool
	ImageURL    string

	PriceChange5m float64
	PriceUSD      float64
	URL           string
}

// Source supplies discovered candidates and on-demand price refreshes.
//
// Discover returns a deduplicated list (by token address), newest pair
// first. An empty list is a valid answer on transient upstream trouble.
// PriceOf returns ErrUnavailable when no fresh quote exists.
type Source interface {
	Discover(ctx context.Context) ([]Token, error)
	PriceOf(ctx context.Context, pairAddress string) (float64, error)
}
