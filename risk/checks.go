package risk

import "fmt"

// Violation is one coded reason an entry was refused.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the outcome of the entry admission checks. A refused entry is
// a no-op for the ledger, never an error.
type Decision struct {
	Allowed    bool
	Violations []Violation

	Bet float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// EntryIntent carries everything the admission checks need about a
// prospective position.
type EntryIntent struct {
	PairAddress string
	EntryPrice  float64

	FreeCash float64
	Equity   float64

	OpenCount        int
	MaxOpenPositions int
	BetPercent       float64

	AlreadyOpen   bool
	AlreadyTraded bool
}

// CheckEntry applies the ledger's admission rules and computes the bet.
// All checks run so the decision lists every violation, not just the first.
func CheckEntry(in EntryIntent) Decision {
	d := Decision{Allowed: true}

	d.Bet = BetSize(in.Equity, in.BetPercent)

	if in.AlreadyOpen {
		d.add("ALREADY_OPEN", fmt.Sprintf("position already open for %s", in.PairAddress))
	}
	if in.AlreadyTraded {
		d.add("ALREADY_TRADED", fmt.Sprintf("%s already traded, re-entry suppressed", in.PairAddress))
	}
	if in.OpenCount >= in.MaxOpenPositions {
		d.add("MAX_OPEN_POSITIONS",
			fmt.Sprintf("open positions %d >= max %d", in.OpenCount, in.MaxOpenPositions))
	}
	if d.Bet < DustThreshold {
		d.add("BET_BELOW_DUST",
			fmt.Sprintf("bet %.4f below dust threshold %.2f", d.Bet, DustThreshold))
	}
	if d.Bet > in.FreeCash {
		d.add("INSUFFICIENT_CASH",
			fmt.Sprintf("bet %.2f exceeds free cash %.2f", d.Bet, in.FreeCash))
	}
	if in.EntryPrice <= 0 {
		d.add("BAD_ENTRY_PRICE", fmt.Sprintf("entry price %.10f not positive", in.EntryPrice))
	}

	return d
}
