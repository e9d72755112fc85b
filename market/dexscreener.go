package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// DefaultBaseURL is the public DexScreener API endpoint.
const DefaultBaseURL = "https://api.dexscreener.com"

// PlaceholderImage is substituted for pairs without an icon. The image
// filter treats it as "no image".
const PlaceholderImage = "https://via.placeholder.com/48?text=?"

const (
	chainSolana = "solana"
	// The tokens endpoint accepts at most 30 addresses per call.
	maxBatchAddresses = 30
)

// DexScreener implements Source against the DexScreener public API.
// Discovery merges the latest token profiles and boosts, falling back to a
// generic search when both come back thin.
type DexScreener struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	maxRetries int
}

// NewDexScreener creates a DexScreener client. Zero-valued parameters fall
// back to defaults (public endpoint, 10s timeout, 3 tries).
func NewDexScreener(baseURL string, timeout time.Duration, maxRetries int, logger *zap.Logger) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &DexScreener{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("dexscreener"),
		maxRetries: maxRetries,
	}
}

type dexBaseToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexSocial struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type dexPair struct {
	ChainID     string       `json:"chainId"`
	URL         string       `json:"url"`
	PairAddress string       `json:"pairAddress"`
	BaseToken   dexBaseToken `json:"baseToken"`
	PriceUSD    string       `json:"priceUsd"`
	Liquidity   *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap     float64 `json:"marketCap"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"` // unix millis
	Info          *struct {
		ImageURL string      `json:"imageUrl"`
		Socials  []dexSocial `json:"socials"`
	} `json:"info"`
	PriceChange *struct {
		M5 float64 `json:"m5"`
	} `json:"priceChange"`
}

type dexPairsResponse struct {
	Pairs []dexPair `json:"pairs"`
}

type tokenProfile struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

type tokenBoost struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

// Discover collects candidate Solana token addresses from the profile and
// boost feeds, resolves them to pair snapshots and returns them newest
// first, deduplicated by token address. Individual feed failures degrade to
// whatever the other feeds produced.
func (c *DexScreener) Discover(ctx context.Context) ([]Token, error) {
	seen := make(map[string]struct{})
	var addresses []string
	add := func(addr string) {
		if addr == "" {
			return
		}
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		addresses = append(addresses, addr)
	}

	var profiles []tokenProfile
	if err := c.getJSON(ctx, "/token-profiles/latest/v1", &profiles); err != nil {
		c.logger.Warn("token profiles fetch failed", zap.Error(err))
	}
	for _, p := range profiles {
		if p.ChainID == chainSolana {
			add(p.TokenAddress)
		}
	}

	var boosts []tokenBoost
	if err := c.getJSON(ctx, "/token-boosts/latest/v1", &boosts); err != nil {
		c.logger.Warn("token boosts fetch failed", zap.Error(err))
	}
	for _, b := range boosts {
		if b.ChainID == chainSolana {
			add(b.TokenAddress)
		}
	}

	// Thin feeds: pad with a generic search so a discovery pass rarely
	// comes back completely empty.
	if len(addresses) < 5 {
		var res dexPairsResponse
		if err := c.getJSON(ctx, "/latest/dex/search?q=solana%20meme", &res); err != nil {
			c.logger.Warn("search fallback failed", zap.Error(err))
		}
		for i, p := range res.Pairs {
			if i >= 10 {
				break
			}
			if p.ChainID == chainSolana {
				add(p.BaseToken.Address)
			}
		}
	}

	if len(addresses) == 0 {
		return nil, nil
	}
	if len(addresses) > maxBatchAddresses {
		addresses = addresses[:maxBatchAddresses]
	}

	var res dexPairsResponse
	path := "/latest/dex/tokens/" + strings.Join(addresses, ",")
	if err := c.getJSON(ctx, path, &res); err != nil {
		return nil, fmt.Errorf("fetch pairs: %w", err)
	}

	now := time.Now()
	tokens := make([]Token, 0, len(res.Pairs))
	for _, p := range res.Pairs {
		if p.ChainID != chainSolana {
			continue
		}
		tokens = append(tokens, p.toToken(now))
	}

	// Newest first, then dedup by token address keeping the first pair.
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].AgeMinutes < tokens[j].AgeMinutes
	})
	byToken := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := byToken[t.TokenAddress]; ok {
			continue
		}
		byToken[t.TokenAddress] = struct{}{}
		out = append(out, t)
	}

	return out, nil
}

// PriceOf looks up the current USD price of a single pair. ErrUnavailable
// covers both transport trouble and an empty or unparsable quote.
func (c *DexScreener) PriceOf(ctx context.Context, pairAddress string) (float64, error) {
	var res dexPairsResponse
	if err := c.getJSON(ctx, "/latest/dex/pairs/"+chainSolana+"/"+pairAddress, &res); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(res.Pairs) == 0 {
		return 0, ErrUnavailable
	}
	price, err := strconv.ParseFloat(res.Pairs[0].PriceUSD, 64)
	if err != nil || price <= 0 {
		return 0, ErrUnavailable
	}
	return price, nil
}

func (p dexPair) toToken(now time.Time) Token {
	ageMinutes := 0.0
	if p.PairCreatedAt > 0 {
		created := time.UnixMilli(p.PairCreatedAt)
		ageMinutes = now.Sub(created).Minutes()
		if ageMinutes < 0 {
			ageMinutes = 0
		}
	}

	var hasTwitter, hasTelegram bool
	imageURL := PlaceholderImage
	if p.Info != nil {
		for _, s := range p.Info.Socials {
			switch s.Type {
			case "twitter":
				hasTwitter = true
			case "telegram":
				hasTelegram = true
			}
		}
		if p.Info.ImageURL != "" {
			imageURL = p.Info.ImageURL
		}
	}

	liquidity := 0.0
	if p.Liquidity != nil {
		liquidity = p.Liquidity.USD
	}
	mcap := p.MarketCap
	if mcap == 0 {
		mcap = p.FDV
	}

	change5m := 0.0
	if p.PriceChange != nil {
		change5m = p.PriceChange.M5
	}

	price, _ := strconv.ParseFloat(p.PriceUSD, 64)

	return Token{
		PairAddress:   p.PairAddress,
		TokenAddress:  p.BaseToken.Address,
		Ticker:        "$" + p.BaseToken.Symbol,
		Name:          p.BaseToken.Name,
		LiquidityUSD:  liquidity,
		MarketCapUSD:  mcap,
		AgeMinutes:    ageMinutes,
		HasTwitter:    hasTwitter,
		HasTelegram:   hasTelegram,
		ImageURL:      imageURL,
		PriceChange5m: change5m,
		PriceUSD:      price,
		URL:           p.URL,
	}
}

// getJSON performs a GET with bounded exponential retries and decodes the
// JSON body into out. Client errors other than 429 are not retried.
func (c *DexScreener) getJSON(ctx context.Context, path string, out interface{}) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 300 * time.Millisecond
	policy.MaxInterval = 5 * time.Second

	notify := func(err error, d time.Duration) {
		c.logger.Debug("retrying request",
			zap.String("path", path),
			zap.Duration("backoff", d),
			zap.Error(err))
	}

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %d", resp.StatusCode)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return body, nil
	}

	body, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxRetries)),
		backoff.WithNotify(notify))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
