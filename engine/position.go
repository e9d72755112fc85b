package engine

import (
	"time"

	"github.com/akhlistunov-sys/config-ai-meme-bot/market"
)

// Status is the position lifecycle state.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Position is one open allocation. The engine owns it exclusively: the exit
// evaluator receives a snapshot and proposes events, the engine applies
// them under its lock.
type Position struct {
	ID    string       `json:"id"`
	Token market.Token `json:"token"`

	// EntryPrice is fixed at open and never mutated. All P/L percentages
	// reference it, regardless of partial exits.
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`

	// Tokens is the remaining token quantity, monotonically non-increasing
	// while the position is open.
	Tokens    float64   `json:"amount_tokens"`
	EntryTime time.Time `json:"entry_time"`

	// Triggered is the set of ladder step indices that have already fired.
	// A triggered step never re-fires.
	Triggered map[int]bool `json:"triggered_steps"`

	// PeakPrice tracks the high-water mark once the position is down to its
	// moonbag, for the trailing stop.
	PeakPrice float64 `json:"peak_price,omitempty"`

	Status Status `json:"status"`
}

// PnLPercent is the position-level profit percentage at the given price,
// always measured against entry price.
func (p *Position) PnLPercent(price float64) float64 {
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// MarketValue is the remaining balance marked at the current price.
func (p *Position) MarketValue() float64 {
	return p.Tokens * p.CurrentPrice
}

// moonbag reports whether every ladder step has fired, leaving only the
// residual balance.
func (p *Position) moonbag(ladderSteps int) bool {
	return ladderSteps > 0 && len(p.Triggered) == ladderSteps
}

// copyOut returns a detached value copy safe to hand to callers.
func (p *Position) copyOut() Position {
	cp := *p
	cp.Triggered = make(map[int]bool, len(p.Triggered))
	for k, v := range p.Triggered {
		cp.Triggered[k] = v
	}
	return cp
}
