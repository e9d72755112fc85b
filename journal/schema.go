package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL,
	pair_address TEXT NOT NULL,
	token_url TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	sell_value_usd REAL NOT NULL,
	sell_percent REAL NOT NULL,
	pnl_usd REAL NOT NULL,
	pnl_percent REAL NOT NULL,
	reason TEXT NOT NULL,
	closed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_closed_at ON trades(closed_at);
CREATE INDEX IF NOT EXISTS idx_trades_pair ON trades(pair_address);
`
