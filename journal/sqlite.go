package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, ticker, pair_address, token_url, entry_price, exit_price,
		 sell_value_usd, sell_percent, pnl_usd, pnl_percent, reason, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Ticker, t.PairAddress, t.TokenURL, t.EntryPrice, t.ExitPrice,
		t.SellValueUSD, t.SellPercent, t.PnLUSD, t.PnLPercent, t.Reason, t.ClosedAt,
	)
	return err
}

func (j *SQLiteJournal) ListTrades(limit int) ([]TradeRecord, error) {
	q := `
		SELECT trade_id, ticker, pair_address, token_url, entry_price, exit_price,
		       sell_value_usd, sell_percent, pnl_usd, pnl_percent, reason, closed_at
		FROM trades
		ORDER BY closed_at DESC, trade_id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = j.db.Query(q+" LIMIT ?", limit)
	} else {
		rows, err = j.db.Query(q)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Ticker,
			&rec.PairAddress,
			&rec.TokenURL,
			&rec.EntryPrice,
			&rec.ExitPrice,
			&rec.SellValueUSD,
			&rec.SellPercent,
			&rec.PnLUSD,
			&rec.PnLPercent,
			&rec.Reason,
			&rec.ClosedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (j *SQLiteJournal) Reset() error {
	_, err := j.db.Exec(`DELETE FROM trades`)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
