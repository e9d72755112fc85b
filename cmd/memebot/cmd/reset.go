package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akhlistunov-sys/config-ai-meme-bot/state"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the paper account",
	Long: `Clear the snapshot store and the trade journal. The next run starts
from the configured initial balance with no open positions and an empty
re-entry guard.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON), defaults built in")
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := state.New(cfg.State.Dir).Reset(); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}

	j, err := openJournal(cfg)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()
	if err := j.Reset(); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}

	fmt.Printf("Account reset: balance back to $%.2f, positions and history cleared\n",
		cfg.Account.InitialBalance)
	return nil
}
