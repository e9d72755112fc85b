package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/akhlistunov-sys/config-ai-meme-bot/config"
	"github.com/akhlistunov-sys/config-ai-meme-bot/market"
)

func filterStrategy() *config.Strategy {
	s := config.DefaultStrategy()
	s.Filters.LiquidityUSD = config.Range{Min: 1000, Max: 500000}
	s.Filters.MarketCapUSD = config.Range{Min: 5000, Max: 5000000}
	s.Filters.TokenAgeMinutes = config.Range{Min: 0, Max: 2880}
	s.SocialFilters.RequireImage = false
	s.SocialFilters.RequireTwitter = false
	s.SocialFilters.RequireTelegram = false
	return s
}

func passingToken(pair string) market.Token {
	return market.Token{
		PairAddress:  pair,
		TokenAddress: "mint-" + pair,
		Ticker:       "$TOK",
		LiquidityUSD: 50000,
		MarketCapUSD: 100000,
		AgeMinutes:   30,
		HasTwitter:   true,
		HasTelegram:  true,
		ImageURL:     "https://img.example/t.png",
		PriceUSD:     0.001,
	}
}

func TestFilterPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*market.Token, *config.Strategy)
		want   bool
	}{
		{"passes_all", func(tok *market.Token, s *config.Strategy) {}, true},
		{"liquidity_too_low", func(tok *market.Token, s *config.Strategy) { tok.LiquidityUSD = 999 }, false},
		{"liquidity_too_high", func(tok *market.Token, s *config.Strategy) { tok.LiquidityUSD = 500001 }, false},
		{"mcap_too_low", func(tok *market.Token, s *config.Strategy) { tok.MarketCapUSD = 4999 }, false},
		{"mcap_too_high", func(tok *market.Token, s *config.Strategy) { tok.MarketCapUSD = 5000001 }, false},
		{"too_old", func(tok *market.Token, s *config.Strategy) { tok.AgeMinutes = 3000 }, false},
		{
			"placeholder_image_rejected_when_required",
			func(tok *market.Token, s *config.Strategy) {
				s.SocialFilters.RequireImage = true
				tok.ImageURL = market.PlaceholderImage
			},
			false,
		},
		{
			"placeholder_image_fine_when_not_required",
			func(tok *market.Token, s *config.Strategy) { tok.ImageURL = market.PlaceholderImage },
			true,
		},
		{
			"no_twitter_rejected_when_required",
			func(tok *market.Token, s *config.Strategy) {
				s.SocialFilters.RequireTwitter = true
				tok.HasTwitter = false
			},
			false,
		},
		{
			"no_telegram_rejected_when_required",
			func(tok *market.Token, s *config.Strategy) {
				s.SocialFilters.RequireTelegram = true
				tok.HasTelegram = false
			},
			false,
		},
		{
			"missing_socials_vacuously_fine",
			func(tok *market.Token, s *config.Strategy) {
				tok.HasTwitter = false
				tok.HasTelegram = false
			},
			true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := filterStrategy()
			tok := passingToken("p1")
			tt.mutate(&tok, s)

			got := Filter([]market.Token{tok}, s)
			if tt.want {
				assert.Len(t, got, 1)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	t.Parallel()

	s := filterStrategy()
	a := passingToken("a")
	b := passingToken("b")
	b.LiquidityUSD = 1 // filtered out
	c := passingToken("c")

	got := Filter([]market.Token{a, b, c}, s)
	assert.Equal(t, []string{"a", "c"}, []string{got[0].PairAddress, got[1].PairAddress})
}
