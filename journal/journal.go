package journal

import "time"

// Exit reasons recorded on trade records.
const (
	ReasonTakeProfit = "TAKE_PROFIT"
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTimeStop   = "TIME_STOP"
	ReasonTrailing   = "TRAILING"
	ReasonManual     = "MANUAL"
)

// TradeRecord is one realized exit, partial or full. Records are immutable
// and append-only; a full account reset clears them wholesale.
type TradeRecord struct {
	TradeID     string
	Ticker      string
	PairAddress string
	TokenURL    string
	EntryPrice  float64
	ExitPrice   float64
	// SellValueUSD is the proceeds of the sold chunk at exit price.
	SellValueUSD float64
	// SellPercent is the share of the then-remaining balance that was sold.
	SellPercent float64
	// PnLUSD is the chunk's realized profit against its proportional entry
	// cost.
	PnLUSD float64
	// PnLPercent is the position-level P/L at exit time, always measured
	// against entry price regardless of prior partial exits.
	PnLPercent float64
	Reason     string
	ClosedAt   time.Time
}

type Journal interface {
	RecordTrade(TradeRecord) error
	// ListTrades returns records newest first. limit <= 0 means no limit.
	ListTrades(limit int) ([]TradeRecord, error)
	// Reset drops all records. Administrative, used by the full account
	// reset only.
	Reset() error
	Close() error
}
