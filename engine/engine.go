package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/akhlistunov-sys/config-ai-meme-bot/config"
	"github.com/akhlistunov-sys/config-ai-meme-bot/journal"
	"github.com/akhlistunov-sys/config-ai-meme-bot/market"
	"github.com/akhlistunov-sys/config-ai-meme-bot/pkg/id"
	"github.com/akhlistunov-sys/config-ai-meme-bot/risk"
)

// ErrPositionNotFound is returned by PanicSell for an unknown or already
// closed position id.
var ErrPositionNotFound = errors.New("engine: position not found")

// Options configures a new Engine.
type Options struct {
	Source  market.Source
	Journal journal.Journal

	Strategy    *config.Strategy
	InitialCash float64

	ScanInterval    time.Duration
	MonitorInterval time.Duration

	Logger *zap.Logger
}

// Engine owns the trading state: free cash, open positions and realized
// history. All mutations happen under one mutex (single-writer discipline);
// candidate and price fetches run outside it and their results are joined
// before any state is touched.
type Engine struct {
	mu sync.Mutex

	logger  *zap.Logger
	source  market.Source
	journal journal.Journal

	strategy    config.Strategy
	initialCash float64
	cash        float64
	positions   []*Position
	history     []journal.TradeRecord

	scanEvery    time.Duration
	monitorEvery time.Duration

	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a stopped engine. Zero intervals default to 8s scans and 3s
// monitor ticks; a nil strategy defaults to the stock one.
func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	strat := opts.Strategy
	if strat == nil {
		strat = config.DefaultStrategy()
	}
	scan := opts.ScanInterval
	if scan <= 0 {
		scan = 8 * time.Second
	}
	monitor := opts.MonitorInterval
	if monitor <= 0 {
		monitor = 3 * time.Second
	}

	return &Engine{
		logger:       logger.Named("engine"),
		source:       opts.Source,
		journal:      opts.Journal,
		strategy:     *strat,
		initialCash:  opts.InitialCash,
		cash:         opts.InitialCash,
		scanEvery:    scan,
		monitorEvery: monitor,
	}
}

// Restore replaces cash, open positions and history with a persisted
// snapshot. Call before Start.
func (e *Engine) Restore(cash float64, positions []Position, history []journal.TradeRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cash = cash
	e.positions = e.positions[:0]
	for i := range positions {
		p := positions[i]
		if p.Status != StatusOpen || p.Tokens <= 0 {
			continue
		}
		if p.Triggered == nil {
			p.Triggered = make(map[int]bool)
		}
		e.positions = append(e.positions, &p)
	}
	e.history = append([]journal.TradeRecord(nil), history...)
}

// Start launches the scan and monitor loops. A second Start on a running
// engine is a no-op.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()

	e.logger.Info("engine started",
		zap.Duration("scan_interval", e.scanEvery),
		zap.Duration("monitor_interval", e.monitorEvery))

	e.wg.Add(2)
	go e.scanLoop(loopCtx)
	go e.monitorLoop(loopCtx)
}

// Stop cancels both loops and waits for them to drain. In-flight fetches
// finish or are discarded; neither can corrupt state.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	cancel()
	e.wg.Wait()
	e.logger.Info("engine stopped")
}

// Running reports whether the loops are live.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (e *Engine) scanLoop(ctx context.Context) {
	defer e.wg.Done()

	// The first scan fires immediately; the loop then settles into its
	// period. A failed tick never stops the loop.
	e.scanTick(ctx)

	t := time.NewTicker(e.scanEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.scanTick(ctx)
		}
	}
}

func (e *Engine) monitorLoop(ctx context.Context) {
	defer e.wg.Done()

	t := time.NewTicker(e.monitorEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.monitorTick(ctx)
		}
	}
}

// scanTick discovers candidates, filters them and opens at most one
// position: the first acceptable candidate in filter order. Conservative
// pacing: capital is deployed one entry per tick at most.
func (e *Engine) scanTick(ctx context.Context) {
	tokens, err := e.source.Discover(ctx)
	if err != nil {
		e.logger.Warn("discovery failed, no candidates this tick", zap.Error(err))
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	strat := e.strategy
	candidates := Filter(tokens, &strat)
	e.logger.Debug("scan tick",
		zap.Int("discovered", len(tokens)),
		zap.Int("candidates", len(candidates)))

	for i := range candidates {
		tok := candidates[i]
		d := risk.CheckEntry(risk.EntryIntent{
			PairAddress:      tok.PairAddress,
			EntryPrice:       tok.PriceUSD,
			FreeCash:         e.cash,
			Equity:           e.equityLocked(),
			OpenCount:        len(e.positions),
			MaxOpenPositions: strat.PositionSizing.MaxOpenPositions,
			BetPercent:       strat.PositionSizing.BetPercent,
			AlreadyOpen:      e.openForPairLocked(tok.PairAddress) != nil,
			AlreadyTraded:    journal.HasTraded(e.history, tok.PairAddress),
		})
		if d.Allowed {
			e.openLocked(tok, d.Bet)
			return
		}
		if exhaustsTick(d) {
			return
		}
	}
}

// exhaustsTick reports whether a refusal also rules out every later
// candidate in this tick (capacity and budget do, per-instrument guards do
// not).
func exhaustsTick(d risk.Decision) bool {
	for _, v := range d.Violations {
		switch v.Code {
		case "MAX_OPEN_POSITIONS", "BET_BELOW_DUST", "INSUFFICIENT_CASH":
			return true
		}
	}
	return false
}

func (e *Engine) openLocked(tok market.Token, bet float64) {
	if tok.PriceUSD <= 0 {
		// CheckEntry refuses these; reaching here is a logic defect.
		panic(fmt.Sprintf("engine: open with entry price %v", tok.PriceUSD))
	}

	pos := &Position{
		ID:           id.New(),
		Token:        tok,
		EntryPrice:   tok.PriceUSD,
		CurrentPrice: tok.PriceUSD,
		Tokens:       bet / tok.PriceUSD,
		EntryTime:    time.Now(),
		Triggered:    make(map[int]bool),
		Status:       StatusOpen,
	}
	e.cash -= bet
	e.positions = append(e.positions, pos)

	e.logger.Info("position opened",
		zap.String("ticker", tok.Ticker),
		zap.String("pair", tok.PairAddress),
		zap.Float64("bet_usd", bet),
		zap.Float64("entry_price", tok.PriceUSD),
		zap.Float64("tokens", pos.Tokens))
}

// monitorTick refreshes prices for a snapshot of the open set, one fetch
// per position running concurrently, then applies all exit rules in a
// single locked pass. A position panic-sold while its fetch was in flight
// is simply skipped.
func (e *Engine) monitorTick(ctx context.Context) {
	type target struct {
		id    string
		pair  string
		stale float64
	}

	e.mu.Lock()
	targets := make([]target, 0, len(e.positions))
	for _, p := range e.positions {
		targets = append(targets, target{id: p.ID, pair: p.Token.PairAddress, stale: p.CurrentPrice})
	}
	e.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	prices := make([]float64, len(targets))
	g, fetchCtx := errgroup.WithContext(ctx)
	for i := range targets {
		i := i
		g.Go(func() error {
			price, err := e.source.PriceOf(fetchCtx, targets[i].pair)
			if err != nil {
				// Stale-price tolerance: keep the last known quote.
				prices[i] = targets[i].stale
				if !errors.Is(err, market.ErrUnavailable) && !errors.Is(err, context.Canceled) {
					e.logger.Warn("price refresh failed",
						zap.String("pair", targets[i].pair), zap.Error(err))
				}
				return nil
			}
			prices[i] = price
			return nil
		})
	}
	// Workers never return errors; the join is what orders all fetches
	// before any ledger mutation for this tick.
	_ = g.Wait()

	now := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	strat := e.strategy
	for i := range targets {
		p := e.findLocked(targets[i].id)
		if p == nil {
			continue
		}
		e.applyTickLocked(p, prices[i], now, &strat)
	}
	e.compactLocked()
}

func (e *Engine) applyTickLocked(p *Position, price float64, now time.Time, strat *config.Strategy) {
	p.CurrentPrice = price

	ladder := len(strat.TakeProfit.ScaleOut)
	if p.moonbag(ladder) && price > p.PeakPrice {
		p.PeakPrice = price
	}

	events := EvaluateExits(p, price, now, strat)
	for _, ev := range events {
		if p.Status != StatusOpen || p.Tokens <= 0 {
			break
		}
		e.sellLocked(p, price, ev, now)
	}

	// Moonbag formed this tick: start the trailing high-water mark here.
	if p.Status == StatusOpen && p.moonbag(ladder) && p.PeakPrice == 0 {
		p.PeakPrice = price
	}
}

// sellLocked realizes one exit event against the remaining balance.
// The fraction always applies to what remains now, so cumulative oversell
// is impossible by construction.
func (e *Engine) sellLocked(p *Position, price float64, ev ExitEvent, now time.Time) {
	if p.Status == StatusClosed {
		// A position closes exactly once; a second close is a logic defect.
		panic("engine: sell on closed position " + p.ID)
	}

	fraction := ev.SellFraction
	if fraction > 1 {
		fraction = 1
	}
	tokens := p.Tokens * fraction
	proceeds := tokens * price
	cost := tokens * p.EntryPrice

	e.cash += proceeds
	p.Tokens -= tokens
	if ev.StepIndex >= 0 {
		p.Triggered[ev.StepIndex] = true
	}
	if ev.Full() {
		p.Tokens = 0
		p.Status = StatusClosed
	}

	rec := journal.TradeRecord{
		TradeID:      id.New(),
		Ticker:       p.Token.Ticker,
		PairAddress:  p.Token.PairAddress,
		TokenURL:     p.Token.URL,
		EntryPrice:   p.EntryPrice,
		ExitPrice:    price,
		SellValueUSD: proceeds,
		SellPercent:  fraction * 100,
		PnLUSD:       proceeds - cost,
		PnLPercent:   p.PnLPercent(price),
		Reason:       ev.Reason,
		ClosedAt:     now,
	}
	e.history = append([]journal.TradeRecord{rec}, e.history...)
	if err := e.journal.RecordTrade(rec); err != nil {
		e.logger.Error("journal write failed", zap.Error(err))
	}

	e.logger.Info("exit realized",
		zap.String("ticker", p.Token.Ticker),
		zap.String("reason", ev.Reason),
		zap.Float64("sell_percent", rec.SellPercent),
		zap.Float64("proceeds_usd", proceeds),
		zap.Float64("pnl_usd", rec.PnLUSD))
}

// PanicSell liquidates the whole remaining balance of one position at its
// last known price, synchronously, and removes it from the open set.
func (e *Engine) PanicSell(positionID string) (journal.TradeRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := e.findLocked(positionID)
	if p == nil {
		return journal.TradeRecord{}, fmt.Errorf("%w: %s", ErrPositionNotFound, positionID)
	}

	e.sellLocked(p, p.CurrentPrice, fullExit(journal.ReasonManual), time.Now())
	e.compactLocked()
	return e.history[0], nil
}

// SetStrategy swaps the strategy for the next cycles. An invalid strategy
// is refused and the previous one stays in force.
func (e *Engine) SetStrategy(s *config.Strategy) error {
	if s == nil {
		return fmt.Errorf("nil strategy")
	}
	if err := s.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategy = *s
	e.logger.Info("strategy updated", zap.String("name", s.StrategyName))
	return nil
}

// Strategy returns a copy of the active strategy.
func (e *Engine) Strategy() config.Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.strategy
}

// Positions returns detached copies of the open positions, in open order.
func (e *Engine) Positions() []Position {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Position, 0, len(e.positions))
	for _, p := range e.positions {
		out = append(out, p.copyOut())
	}
	return out
}

// History returns the realized trade records, newest first.
func (e *Engine) History() []journal.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]journal.TradeRecord(nil), e.history...)
}

// FreeCash returns the uncommitted balance.
func (e *Engine) FreeCash() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cash
}

// Equity returns free cash plus the marked value of all open positions.
func (e *Engine) Equity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.equityLocked()
}

// Stats summarizes realized results.
func (e *Engine) Stats() journal.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return journal.Summarize(e.history)
}

// Snapshot returns the persistable trading state: cash and detached copies
// of the open positions. History is the journal's concern.
func (e *Engine) Snapshot() (cash float64, positions []Position) {
	e.mu.Lock()
	defer e.mu.Unlock()

	positions = make([]Position, 0, len(e.positions))
	for _, p := range e.positions {
		positions = append(positions, p.copyOut())
	}
	return e.cash, positions
}

// Reset stops the engine if needed, restores the initial cash balance and
// clears positions, history and the journal. The next Start behaves as a
// fresh account.
func (e *Engine) Reset() {
	e.Stop()

	e.mu.Lock()
	e.cash = e.initialCash
	e.positions = nil
	e.history = nil
	e.strategy = *config.DefaultStrategy()
	e.mu.Unlock()

	if err := e.journal.Reset(); err != nil {
		e.logger.Error("journal reset failed", zap.Error(err))
	}
	e.logger.Info("account reset", zap.Float64("cash", e.initialCash))
}

func (e *Engine) equityLocked() float64 {
	values := make([]float64, 0, len(e.positions))
	for _, p := range e.positions {
		values = append(values, p.MarketValue())
	}
	return risk.Equity(e.cash, values...)
}

func (e *Engine) findLocked(positionID string) *Position {
	for _, p := range e.positions {
		if p.ID == positionID {
			return p
		}
	}
	return nil
}

func (e *Engine) openForPairLocked(pairAddress string) *Position {
	for _, p := range e.positions {
		if p.Token.PairAddress == pairAddress {
			return p
		}
	}
	return nil
}

func (e *Engine) compactLocked() {
	open := e.positions[:0]
	for _, p := range e.positions {
		if p.Status == StatusOpen && p.Tokens > 0 {
			open = append(open, p)
		}
	}
	e.positions = open
}
