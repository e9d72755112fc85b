package engine

import (
	"strings"

	"github.com/akhlistunov-sys/config-ai-meme-bot/config"
	"github.com/akhlistunov-sys/config-ai-meme-bot/market"
)

// Filter reduces discovered candidates to the ones the strategy admits.
// Pure and stable: output preserves input order, which the scan loop relies
// on when it opens the first acceptable candidate.
func Filter(tokens []market.Token, s *config.Strategy) []market.Token {
	out := make([]market.Token, 0, len(tokens))
	for _, t := range tokens {
		if !s.Filters.LiquidityUSD.Contains(t.LiquidityUSD) {
			continue
		}
		if !s.Filters.MarketCapUSD.Contains(t.MarketCapUSD) {
			continue
		}
		if !s.Filters.TokenAgeMinutes.Contains(t.AgeMinutes) {
			continue
		}
		if s.SocialFilters.RequireImage && !hasRealImage(t.ImageURL) {
			continue
		}
		if s.SocialFilters.RequireTwitter && !t.HasTwitter {
			continue
		}
		if s.SocialFilters.RequireTelegram && !t.HasTelegram {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasRealImage(url string) bool {
	return url != "" && !strings.Contains(url, "placeholder")
}
