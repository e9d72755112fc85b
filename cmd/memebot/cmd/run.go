package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akhlistunov-sys/config-ai-meme-bot/config"
	"github.com/akhlistunov-sys/config-ai-meme-bot/engine"
	"github.com/akhlistunov-sys/config-ai-meme-bot/journal"
	"github.com/akhlistunov-sys/config-ai-meme-bot/market"
	"github.com/akhlistunov-sys/config-ai-meme-bot/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scanner and position monitor",
	Long: `Run the bot: scan for candidates on the configured interval, open
simulated positions and monitor them until exit. State survives restarts
through the snapshot store and the trade journal. Stop with Ctrl-C.

Example:
  memebot run --config memebot.yaml --strategy strategy.yaml`,
	RunE: runRun,
}

var (
	runConfigPath   string
	runStrategyPath string
	runFlatPrice    float64
	runVerbose      bool
)

const snapshotEvery = 30 * time.Second

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON), defaults built in")
	runCmd.Flags().StringVarP(&runStrategyPath, "strategy", "s", "", "path to strategy file (YAML or JSON), stock strategy if omitted")
	runCmd.Flags().Float64Var(&runFlatPrice, "flat-price", 0, "run offline against a synthetic pair quoted at this fixed price")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
}

func loadConfig() (*config.Config, error) {
	if runConfigPath == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(runConfigPath)
}

func openJournal(cfg *config.Config) (journal.Journal, error) {
	if cfg.Journal.Type == "csv" {
		return journal.NewCSV(cfg.Journal.TradesFile)
	}
	return journal.NewSQLite(cfg.Journal.DBPath)
}

func newLogger() (*zap.Logger, error) {
	if runVerbose {
		return zap.NewDevelopment()
	}
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	return logCfg.Build()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	strat := config.DefaultStrategy()
	if runStrategyPath != "" {
		strat, err = config.LoadStrategy(runStrategyPath)
		if err != nil {
			return fmt.Errorf("load strategy: %w", err)
		}
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	scanEvery, _ := cfg.Scanner.ScanPeriod()
	monitorEvery, _ := cfg.Scanner.MonitorPeriod()

	var source market.Source
	if runFlatPrice > 0 {
		source = market.NewFixed(runFlatPrice)
	} else {
		var timeout time.Duration
		if cfg.Market.Timeout != "" {
			timeout, _ = time.ParseDuration(cfg.Market.Timeout)
		}
		source = market.NewDexScreener(cfg.Market.BaseURL, timeout, cfg.Market.MaxRetries, logger)
	}

	eng := engine.New(engine.Options{
		Source:          source,
		Journal:         j,
		Strategy:        strat,
		InitialCash:     cfg.Account.InitialBalance,
		ScanInterval:    scanEvery,
		MonitorInterval: monitorEvery,
		Logger:          logger,
	})

	// Restore whatever survived the last run. Each piece loads
	// independently; a broken one just falls back to fresh.
	store := state.New(cfg.State.Dir)
	cash, err := store.LoadCash(cfg.Account.InitialBalance)
	if err != nil {
		logger.Warn("cash snapshot unreadable, starting fresh", zap.Error(err))
		cash = cfg.Account.InitialBalance
	}
	positions, err := store.LoadPositions()
	if err != nil {
		logger.Warn("positions snapshot unreadable, starting fresh", zap.Error(err))
		positions = nil
	}
	history, err := j.ListTrades(0)
	if err != nil {
		logger.Warn("journal unreadable, re-entry guard starts empty", zap.Error(err))
		history = nil
	}
	eng.Restore(cash, positions, history)

	fmt.Printf("Starting memebot\n")
	fmt.Printf("  Account: $%.2f %s free cash, %d open positions, %d past trades\n",
		cash, cfg.Account.Currency, len(eng.Positions()), len(history))
	fmt.Printf("  Strategy: %s (bet %.1f%%, max %d positions, hard stop %.0f%%)\n",
		strat.StrategyName, strat.PositionSizing.BetPercent,
		strat.PositionSizing.MaxOpenPositions, strat.StopLoss.HardStopPercent)
	fmt.Println()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	eng.Start(ctx)

	saveSnapshot := func() {
		snapCash, snapPositions := eng.Snapshot()
		if err := store.SaveCash(snapCash); err != nil {
			logger.Error("cash snapshot failed", zap.Error(err))
		}
		if err := store.SavePositions(snapPositions); err != nil {
			logger.Error("positions snapshot failed", zap.Error(err))
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	snapshots := time.NewTicker(snapshotEvery)
	defer snapshots.Stop()

	for {
		select {
		case <-snapshots.C:
			saveSnapshot()
		case <-sig:
			fmt.Println("\nShutting down...")
			eng.Stop()
			saveSnapshot()

			stats := eng.Stats()
			fmt.Printf("\nFinal Results:\n")
			fmt.Printf("  Free Cash: $%.2f\n", eng.FreeCash())
			fmt.Printf("  Equity: $%.2f\n", eng.Equity())
			fmt.Printf("  Trades: %d (win rate %.1f%%)\n", stats.TotalTrades, stats.WinRate)
			fmt.Printf("  Realized P/L: $%.2f\n", stats.TotalPnLUSD)
			return nil
		}
	}
}
