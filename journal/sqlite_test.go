package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, pair string, pnl float64, closedAt time.Time) TradeRecord {
	return TradeRecord{
		TradeID:      id,
		Ticker:       "$TOK",
		PairAddress:  pair,
		TokenURL:     "https://dexscreener.com/solana/" + pair,
		EntryPrice:   0.001,
		ExitPrice:    0.0013,
		SellValueUSD: 65,
		SellPercent:  50,
		PnLUSD:       pnl,
		PnLPercent:   30,
		Reason:       ReasonTakeProfit,
		ClosedAt:     closedAt,
	}
}

func newTestSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSQLiteRecordAndList(t *testing.T) {
	j := newTestSQLite(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(record("t1", "pair-a", 15, base)))
	require.NoError(t, j.RecordTrade(record("t2", "pair-b", -10, base.Add(time.Minute))))
	require.NoError(t, j.RecordTrade(record("t3", "pair-a", 5, base.Add(2*time.Minute))))

	got, err := j.ListTrades(0)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Newest first.
	assert.Equal(t, "t3", got[0].TradeID)
	assert.Equal(t, "t2", got[1].TradeID)
	assert.Equal(t, "t1", got[2].TradeID)

	assert.Equal(t, "pair-b", got[1].PairAddress)
	assert.InDelta(t, -10, got[1].PnLUSD, 1e-9)
	assert.Equal(t, ReasonTakeProfit, got[1].Reason)
	assert.True(t, got[1].ClosedAt.Equal(base.Add(time.Minute)))
}

func TestSQLiteListLimit(t *testing.T) {
	j := newTestSQLite(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"t1", "t2", "t3", "t4"} {
		require.NoError(t, j.RecordTrade(record(id, "pair", 1, base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := j.ListTrades(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t4", got[0].TradeID)
	assert.Equal(t, "t3", got[1].TradeID)
}

func TestSQLiteReset(t *testing.T) {
	j := newTestSQLite(t)

	require.NoError(t, j.RecordTrade(record("t1", "pair", 1, time.Now().UTC())))
	require.NoError(t, j.Reset())

	got, err := j.ListTrades(0)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The journal stays usable after a reset.
	require.NoError(t, j.RecordTrade(record("t2", "pair", 2, time.Now().UTC())))
	got, err = j.ListTrades(0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteRejectsDuplicateTradeID(t *testing.T) {
	j := newTestSQLite(t)

	now := time.Now().UTC()
	require.NoError(t, j.RecordTrade(record("t1", "pair", 1, now)))
	assert.Error(t, j.RecordTrade(record("t1", "pair", 1, now)))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Summary{}, Summarize(nil))

	now := time.Now()
	s := Summarize([]TradeRecord{
		record("t1", "a", 15, now),
		record("t2", "b", -10, now),
		record("t3", "c", 5, now),
		record("t4", "d", 0, now), // breakeven is not a win
	})
	assert.Equal(t, 4, s.TotalTrades)
	assert.Equal(t, 2, s.WinningTrades)
	assert.InDelta(t, 50, s.WinRate, 1e-9)
	assert.InDelta(t, 10, s.TotalPnLUSD, 1e-9)
}

func TestHasTraded(t *testing.T) {
	t.Parallel()

	records := []TradeRecord{
		record("t1", "pair-a", 15, time.Now()),
		record("t2", "pair-b", -10, time.Now()),
	}
	assert.True(t, HasTraded(records, "pair-a"))
	assert.True(t, HasTraded(records, "pair-b"))
	assert.False(t, HasTraded(records, "pair-c"))
	assert.False(t, HasTraded(nil, "pair-a"))
}
