package engine

import (
	"time"

	"github.com/akhlistunov-sys/config-ai-meme-bot/config"
	"github.com/akhlistunov-sys/config-ai-meme-bot/journal"
)

// ExitEvent is one proposed sale. SellFraction applies to the balance
// remaining at the moment the event is applied, never the original size, so
// a sequence of events can never oversell. Every event carries exactly one
// reason.
type ExitEvent struct {
	// StepIndex is the ladder rung that fired, or -1 for full exits.
	StepIndex    int
	Reason       string
	SellFraction float64
}

// Full reports whether the event liquidates the whole remaining balance.
func (ev ExitEvent) Full() bool {
	return ev.SellFraction >= 1
}

// EvaluateExits runs the exit rules for one open position against a
// refreshed price and proposes zero or more sales. It never mutates the
// position; the engine applies the events under its lock.
//
// Rule order is fixed: take-profit ladder first (several rungs may fire in
// one tick when price gapped past them), then hard stop, time stop and
// moonbag trailing stop. At most one full-exit event is produced, and a
// partial take-profit followed by a hard stop in the same tick is legal:
// ticks are discrete samples, and a whipsaw between them hits both rules.
func EvaluateExits(p *Position, price float64, now time.Time, s *config.Strategy) []ExitEvent {
	if p.Status != StatusOpen || p.Tokens <= 0 {
		return nil
	}

	pnl := p.PnLPercent(price)
	ladder := s.TakeProfit.ScaleOut

	var events []ExitEvent
	fired := len(p.Triggered)
	for i, step := range ladder {
		if p.Triggered[i] {
			continue
		}
		if pnl >= step.ProfitPercent {
			events = append(events, ExitEvent{
				StepIndex:    i,
				Reason:       journal.ReasonTakeProfit,
				SellFraction: step.SellPercent / 100,
			})
			fired++
		}
	}

	switch {
	case pnl <= -s.StopLoss.HardStopPercent:
		events = append(events, fullExit(journal.ReasonStopLoss))

	case timeStopHit(p, now, s, fired):
		events = append(events, fullExit(journal.ReasonTimeStop))

	case trailingStopHit(p, price, s):
		events = append(events, fullExit(journal.ReasonTrailing))
	}

	return events
}

func fullExit(reason string) ExitEvent {
	return ExitEvent{StepIndex: -1, Reason: reason, SellFraction: 1}
}

// timeStopHit fires on positions that have gone nowhere: held past the time
// limit with no ladder step triggered, this tick's included. Once a
// position has scaled out it is left to the ladder and the trailing stop.
func timeStopHit(p *Position, now time.Time, s *config.Strategy, fired int) bool {
	if s.StopLoss.TimeStopMinutes <= 0 || fired > 0 {
		return false
	}
	limit := time.Duration(s.StopLoss.TimeStopMinutes) * time.Minute
	return now.Sub(p.EntryTime) >= limit
}

// trailingStopHit guards the moonbag: once every ladder rung has fired, a
// retreat from the peak by the configured percentage liquidates the rest.
func trailingStopHit(p *Position, price float64, s *config.Strategy) bool {
	pct := s.TakeProfit.MoonbagTrailingStopPercent
	if pct <= 0 || !p.moonbag(len(s.TakeProfit.ScaleOut)) || p.PeakPrice <= 0 {
		return false
	}
	return price <= p.PeakPrice*(1-pct/100)
}
