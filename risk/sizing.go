package risk

// DustThreshold is the minimum bet size in account currency. Entries below
// it are skipped as economically meaningless.
const DustThreshold = 1.0

// BetSize computes the per-trade allocation from total equity and the
// strategy's bet percentage. Equity is free cash plus the marked value of
// all open positions; how it decomposes between the two does not matter.
// Affordability is the ledger's call, not ours.
func BetSize(equity, betPercent float64) float64 {
	return equity * betPercent / 100
}

// Equity combines free cash with the marked value of open positions.
func Equity(freeCash float64, positionValues ...float64) float64 {
	equity := freeCash
	for _, v := range positionValues {
		equity += v
	}
	return equity
}
