package journal

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var csvHeader = []string{
	"trade_id", "ticker", "pair_address", "token_url", "entry_price",
	"exit_price", "sell_value_usd", "sell_percent", "pnl_usd", "pnl_percent",
	"reason", "closed_at",
}

type CSVJournal struct {
	path   string
	trades *csv.Writer
	tf     *os.File
}

func NewCSV(tradesPath string) (*CSVJournal, error) {
	j := &CSVJournal{path: tradesPath}
	if err := j.open(); err != nil {
		return nil, err
	}
	return j, nil
}

// open appends to an existing journal file so past trades survive restarts:
// the run command restores the re-entry guard from ListTrades at startup.
func (j *CSVJournal) open() error {
	tf, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	info, err := tf.Stat()
	if err != nil {
		tf.Close()
		return err
	}

	tw := csv.NewWriter(tf)
	if info.Size() == 0 {
		if err := tw.Write(csvHeader); err != nil {
			tf.Close()
			return err
		}
		tw.Flush()
		if err := tw.Error(); err != nil {
			tf.Close()
			return err
		}
	}

	j.trades = tw
	j.tf = tf
	return nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Ticker,
		t.PairAddress,
		t.TokenURL,
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.SellValueUSD),
		f(t.SellPercent),
		f(t.PnLUSD),
		f(t.PnLPercent),
		t.Reason,
		t.ClosedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

// ListTrades re-reads the file and returns records newest first.
func (j *CSVJournal) ListTrades(limit int) ([]TradeRecord, error) {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return nil, err
	}

	rf, err := os.Open(j.path)
	if err != nil {
		return nil, err
	}
	defer rf.Close()

	rows, err := csv.NewReader(rf).ReadAll()
	if err != nil {
		return nil, err
	}

	var out []TradeRecord
	// Skip the header; appended rows are oldest first, so walk backwards.
	for i := len(rows) - 1; i >= 1; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		row := rows[i]
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("malformed trade row %d", i)
		}
		closedAt, err := time.Parse(time.RFC3339, row[11])
		if err != nil {
			return nil, fmt.Errorf("trade row %d: %w", i, err)
		}
		out = append(out, TradeRecord{
			TradeID:      row[0],
			Ticker:       row[1],
			PairAddress:  row[2],
			TokenURL:     row[3],
			EntryPrice:   p(row[4]),
			ExitPrice:    p(row[5]),
			SellValueUSD: p(row[6]),
			SellPercent:  p(row[7]),
			PnLUSD:       p(row[8]),
			PnLPercent:   p(row[9]),
			Reason:       row[10],
			ClosedAt:     closedAt,
		})
	}
	return out, nil
}

// Reset truncates the file back to just the header.
func (j *CSVJournal) Reset() error {
	j.trades.Flush()
	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := os.Remove(j.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return j.open()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	return j.tf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func p(s string) float64 {
	x, _ := strconv.ParseFloat(s, 64)
	return x
}
