package journal

// Summary aggregates realized results for reporting.
type Summary struct {
	TotalTrades   int
	WinningTrades int
	WinRate       float64 // percent
	TotalPnLUSD   float64
}

// Summarize computes win rate and total realized P/L over a record set.
// A record counts as a win when its chunk P/L is positive.
func Summarize(records []TradeRecord) Summary {
	var s Summary
	for _, r := range records {
		s.TotalTrades++
		if r.PnLUSD > 0 {
			s.WinningTrades++
		}
		s.TotalPnLUSD += r.PnLUSD
	}
	if s.TotalTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.TotalTrades) * 100
	}
	return s
}

// HasTraded reports whether any record references the pair address. The
// ledger uses it as the re-entry guard.
func HasTraded(records []TradeRecord, pairAddress string) bool {
	for _, r := range records {
		if r.PairAddress == pairAddress {
			return true
		}
	}
	return false
}
