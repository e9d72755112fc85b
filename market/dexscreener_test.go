package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) *DexScreener {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewDexScreener(srv.URL, time.Second, 1, zap.NewNop())
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func pairJSON(pair, mint, symbol, price string, ageMinutes int) map[string]interface{} {
	created := time.Now().Add(-time.Duration(ageMinutes) * time.Minute)
	return map[string]interface{}{
		"chainId":     "solana",
		"url":         "https://dexscreener.com/solana/" + pair,
		"pairAddress": pair,
		"baseToken": map[string]string{
			"address": mint,
			"name":    strings.ToUpper(symbol),
			"symbol":  symbol,
		},
		"priceUsd":      price,
		"liquidity":     map[string]float64{"usd": 50000},
		"marketCap":     100000,
		"pairCreatedAt": created.UnixMilli(),
		"info": map[string]interface{}{
			"imageUrl": "https://img.example/" + mint + ".png",
			"socials": []map[string]string{
				{"type": "twitter", "url": "https://x.com/" + symbol},
			},
		},
		"priceChange": map[string]float64{"m5": 12.5},
	}
}

func TestDiscover(t *testing.T) {
	t.Parallel()

	var tokensPath atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/token-profiles/latest/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]string{
			{"chainId": "solana", "tokenAddress": "mint-a"},
			{"chainId": "ethereum", "tokenAddress": "mint-eth"},
			{"chainId": "solana", "tokenAddress": "mint-b"},
		})
	})
	mux.HandleFunc("/token-boosts/latest/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]string{
			{"chainId": "solana", "tokenAddress": "mint-b"}, // duplicate
			{"chainId": "solana", "tokenAddress": "mint-c"},
		})
	})
	mux.HandleFunc("/latest/dex/search", func(w http.ResponseWriter, r *http.Request) {
		// Three addresses so far: the thin-feed fallback kicks in.
		assert.Equal(t, "solana meme", r.URL.Query().Get("q"))
		writeJSON(t, w, map[string]interface{}{
			"pairs": []map[string]interface{}{pairJSON("pair-d", "mint-d", "ddd", "0.004", 5)},
		})
	})
	mux.HandleFunc("/latest/dex/tokens/", func(w http.ResponseWriter, r *http.Request) {
		tokensPath.Store(r.URL.Path)
		writeJSON(t, w, map[string]interface{}{
			"pairs": []map[string]interface{}{
				pairJSON("pair-a", "mint-a", "aaa", "0.001", 60),
				pairJSON("pair-b1", "mint-b", "bbb", "0.002", 30),
				pairJSON("pair-b2", "mint-b", "bbb", "0.0021", 45), // older pair, same token
				pairJSON("pair-c", "mint-c", "ccc", "0.003", 10),
				pairJSON("pair-d", "mint-d", "ddd", "0.004", 5),
			},
		})
	})

	c := newTestClient(t, mux)
	tokens, err := c.Discover(context.Background())
	require.NoError(t, err)

	// All four feeds' addresses resolved in one batch.
	path, _ := tokensPath.Load().(string)
	assert.Equal(t, "/latest/dex/tokens/mint-a,mint-b,mint-c,mint-d", path)

	// Newest first, one entry per token address.
	require.Len(t, tokens, 4)
	assert.Equal(t, []string{"pair-d", "pair-c", "pair-b1", "pair-a"}, []string{
		tokens[0].PairAddress, tokens[1].PairAddress, tokens[2].PairAddress, tokens[3].PairAddress,
	})

	got := tokens[1]
	assert.Equal(t, "mint-c", got.TokenAddress)
	assert.Equal(t, "$ccc", got.Ticker)
	assert.InDelta(t, 0.003, got.PriceUSD, 1e-9)
	assert.InDelta(t, 50000, got.LiquidityUSD, 1e-9)
	assert.InDelta(t, 100000, got.MarketCapUSD, 1e-9)
	assert.InDelta(t, 10, got.AgeMinutes, 1)
	assert.True(t, got.HasTwitter)
	assert.False(t, got.HasTelegram)
	assert.Equal(t, "https://img.example/mint-c.png", got.ImageURL)
	assert.InDelta(t, 12.5, got.PriceChange5m, 1e-9)
	assert.Equal(t, "https://dexscreener.com/solana/pair-c", got.URL)
}

func TestDiscoverMissingInfoGetsPlaceholder(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token-profiles/latest/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]string{
			{"chainId": "solana", "tokenAddress": "m1"},
			{"chainId": "solana", "tokenAddress": "m2"},
			{"chainId": "solana", "tokenAddress": "m3"},
			{"chainId": "solana", "tokenAddress": "m4"},
			{"chainId": "solana", "tokenAddress": "m5"},
		})
	})
	mux.HandleFunc("/token-boosts/latest/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]string{})
	})
	mux.HandleFunc("/latest/dex/tokens/", func(w http.ResponseWriter, r *http.Request) {
		bare := map[string]interface{}{
			"chainId":     "solana",
			"pairAddress": "pair-1",
			"baseToken":   map[string]string{"address": "m1", "symbol": "one"},
			"priceUsd":    "0.5",
		}
		writeJSON(t, w, map[string]interface{}{"pairs": []map[string]interface{}{bare}})
	})

	c := newTestClient(t, mux)
	tokens, err := c.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	assert.Equal(t, PlaceholderImage, tokens[0].ImageURL)
	assert.Zero(t, tokens[0].LiquidityUSD)
	assert.Zero(t, tokens[0].AgeMinutes)
	assert.False(t, tokens[0].HasTwitter)
}

func TestDiscoverSurvivesFeedFailures(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/token-profiles/latest/v1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/token-boosts/latest/v1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []map[string]string{{"chainId": "solana", "tokenAddress": "mint-a"}})
	})
	mux.HandleFunc("/latest/dex/search", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})
	mux.HandleFunc("/latest/dex/tokens/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"pairs": []map[string]interface{}{pairJSON("pair-a", "mint-a", "aaa", "0.001", 10)},
		})
	})

	c := newTestClient(t, mux)
	tokens, err := c.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "pair-a", tokens[0].PairAddress)
}

func TestDiscoverEmptyFeeds(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	for _, path := range []string{"/token-profiles/latest/v1", "/token-boosts/latest/v1"} {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, []map[string]string{})
		})
	}
	mux.HandleFunc("/latest/dex/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{"pairs": []map[string]interface{}{}})
	})

	c := newTestClient(t, mux)
	tokens, err := c.Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestPriceOf(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/latest/dex/pairs/solana/pair-a", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"pairs": []map[string]interface{}{pairJSON("pair-a", "mint-a", "aaa", "0.00123", 10)},
		})
	})

	c := newTestClient(t, mux)
	price, err := c.PriceOf(context.Background(), "pair-a")
	require.NoError(t, err)
	assert.InDelta(t, 0.00123, price, 1e-12)
}

func TestPriceOfUnavailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server_error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "down", http.StatusInternalServerError)
			},
		},
		{
			name: "no_pairs",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]interface{}{"pairs": []map[string]interface{}{}})
			},
		},
		{
			name: "unparsable_price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]interface{}{
					"pairs": []map[string]interface{}{pairJSON("pair-a", "mint-a", "aaa", "n/a", 10)},
				})
			},
		},
		{
			name: "zero_price",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, map[string]interface{}{
					"pairs": []map[string]interface{}{pairJSON("pair-a", "mint-a", "aaa", "0", 10)},
				})
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, tt.handler)
			_, err := c.PriceOf(context.Background(), "pair-a")
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"pairs":[]}`)
	}))
	t.Cleanup(srv.Close)

	c := NewDexScreener(srv.URL, time.Second, 3, zap.NewNop())
	var out dexPairsResponse
	require.NoError(t, c.getJSON(context.Background(), "/latest/dex/pairs/solana/x", &out))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetJSONDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := NewDexScreener(srv.URL, time.Second, 3, zap.NewNop())
	var out dexPairsResponse
	require.Error(t, c.getJSON(context.Background(), "/nope", &out))
	assert.Equal(t, int32(1), calls.Load())
}
