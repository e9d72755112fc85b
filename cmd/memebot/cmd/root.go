package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "memebot",
	Short: "A paper-trading bot for freshly listed Solana meme tokens",
	Long: `Memebot scans DexScreener for newly listed Solana pairs, opens simulated
positions according to a configurable strategy and manages each position
through a take-profit ladder, hard stop-loss, time stop and moonbag
trailing stop until it is closed.

It provides tools for:
  - Running the scanner and position monitor against live market data
  - Managing strategy documents (init, show, validate)
  - Inspecting the realized trade journal and win-rate summary
  - Resetting the paper account to its initial balance`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
