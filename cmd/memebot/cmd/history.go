package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akhlistunov-sys/config-ai-meme-bot/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List realized trades from the journal",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON), defaults built in")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max records to show, 0 for all")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	records, err := j.ListTrades(historyLimit)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No trades recorded yet.")
		return nil
	}

	fmt.Printf("%-10s %-12s %7s %12s %12s %10s %9s  %s\n",
		"TICKER", "REASON", "SOLD%", "ENTRY", "EXIT", "PNL $", "PNL %", "CLOSED AT")
	for _, r := range records {
		fmt.Printf("%-10s %-12s %6.1f%% %12.8f %12.8f %+10.2f %+8.2f%%  %s\n",
			r.Ticker, r.Reason, r.SellPercent, r.EntryPrice, r.ExitPrice,
			r.PnLUSD, r.PnLPercent, r.ClosedAt.Format("2006-01-02 15:04:05"))
	}

	all, err := j.ListTrades(0)
	if err != nil {
		return err
	}
	s := journal.Summarize(all)
	fmt.Printf("\n%d trades, %d wins (%.1f%%), realized P/L $%.2f\n",
		s.TotalTrades, s.WinningTrades, s.WinRate, s.TotalPnLUSD)
	return nil
}
