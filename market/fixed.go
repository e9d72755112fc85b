package market

import "context"

// Fixed is an offline Source: it discovers one synthetic pair and quotes the
// same flat price for every lookup. Lets the whole scan/monitor machinery
// run without network access.
type Fixed struct {
	price float64
}

// NewFixed returns a source pinned to the given price.
func NewFixed(price float64) *Fixed {
	return &Fixed{price: price}
}

// Discover returns the one synthetic candidate. Its metadata clears the
// stock strategy's filters so an offline run actually opens a position.
func (f *Fixed) Discover(ctx context.Context) ([]Token, error) {
	return []Token{{
		PairAddress:  "offline-pair",
		TokenAddress: "offline-mint",
		Ticker:       "$FLAT",
		Name:         "Offline Flat",
		LiquidityUSD: 50000,
		MarketCapUSD: 250000,
		AgeMinutes:   10,
		HasTwitter:   true,
		HasTelegram:  true,
		ImageURL:     "https://img.example/flat.png",
		PriceUSD:     f.price,
	}}, nil
}

// PriceOf quotes the flat price for any pair.
func (f *Fixed) PriceOf(ctx context.Context, pairAddress string) (float64, error) {
	return f.price, nil
}
