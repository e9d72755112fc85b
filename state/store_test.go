package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akhlistunov-sys/config-ai-meme-bot/engine"
	"github.com/akhlistunov-sys/config-ai-meme-bot/market"
)

func TestCashRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())

	// No snapshot yet: the fallback wins.
	cash, err := s.LoadCash(100)
	require.NoError(t, err)
	assert.InDelta(t, 100, cash, 1e-9)

	require.NoError(t, s.SaveCash(87.65))
	cash, err = s.LoadCash(100)
	require.NoError(t, err)
	assert.InDelta(t, 87.65, cash, 1e-9)
}

func TestPositionsRoundTrip(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir())

	empty, err := s.LoadPositions()
	require.NoError(t, err)
	assert.Nil(t, empty)

	want := []engine.Position{{
		ID: "pos1",
		Token: market.Token{
			PairAddress:  "pair-a",
			TokenAddress: "mint-a",
			Ticker:       "$TOK",
			PriceUSD:     0.0012,
		},
		EntryPrice:   0.001,
		CurrentPrice: 0.0012,
		Tokens:       2000,
		EntryTime:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Triggered:    map[int]bool{0: true},
		PeakPrice:    0.0015,
		Status:       engine.StatusOpen,
	}}
	require.NoError(t, s.SavePositions(want))

	got, err := s.LoadPositions()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReset(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := New(dir)

	require.NoError(t, s.SaveCash(42))
	require.NoError(t, s.SavePositions([]engine.Position{{ID: "p1"}}))
	require.NoError(t, s.Reset())

	_, err := os.Stat(filepath.Join(dir, "cash.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "positions.json"))
	assert.True(t, os.IsNotExist(err))

	// Resetting an already clean store is fine.
	require.NoError(t, s.Reset())

	cash, err := s.LoadCash(100)
	require.NoError(t, err)
	assert.InDelta(t, 100, cash, 1e-9)
}

func TestCreatesStateDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "state")
	s := New(dir)
	require.NoError(t, s.SaveCash(10))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCorruptSnapshotSurfacesError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cash.json"), []byte("{oops"), 0o644))

	_, err := s.LoadCash(100)
	assert.Error(t, err)
}
