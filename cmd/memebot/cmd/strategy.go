package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akhlistunov-sys/config-ai-meme-bot/config"
)

var strategyCmd = &cobra.Command{
	Use:   "strategy",
	Short: "Manage strategy documents",
}

var strategyInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the stock strategy to a file",
	Long: `Write the default ultra-early meme scalp strategy to a YAML or JSON
file, to be edited and passed to 'memebot run --strategy'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := config.DefaultStrategy()
		if err := s.SaveToFile(args[0]); err != nil {
			return err
		}
		fmt.Printf("Wrote strategy %q to %s\n", s.StrategyName, args[0])
		return nil
	},
}

var strategyValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Validate a strategy file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadStrategy(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Strategy %q is valid\n", s.StrategyName)
		return nil
	},
}

var strategyShowCmd = &cobra.Command{
	Use:   "show <path>",
	Short: "Print the engine-relevant parts of a strategy file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.LoadStrategy(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Strategy: %s (%s, %s)\n", s.StrategyName, s.Chain, s.RiskProfile)
		fmt.Printf("  Filters: liquidity $%.0f-%.0f, mcap $%.0f-%.0f, age %.0f-%.0f min\n",
			s.Filters.LiquidityUSD.Min, s.Filters.LiquidityUSD.Max,
			s.Filters.MarketCapUSD.Min, s.Filters.MarketCapUSD.Max,
			s.Filters.TokenAgeMinutes.Min, s.Filters.TokenAgeMinutes.Max)
		fmt.Printf("  Social: twitter=%v telegram=%v image=%v\n",
			s.SocialFilters.RequireTwitter, s.SocialFilters.RequireTelegram, s.SocialFilters.RequireImage)
		fmt.Printf("  Sizing: %.1f%% of equity, max %d open\n",
			s.PositionSizing.BetPercent, s.PositionSizing.MaxOpenPositions)
		fmt.Printf("  Stop: hard %.0f%%, time stop %d min\n",
			s.StopLoss.HardStopPercent, s.StopLoss.TimeStopMinutes)
		for i, step := range s.TakeProfit.ScaleOut {
			fmt.Printf("  TP %d: +%.0f%% -> sell %.0f%% of remaining\n",
				i+1, step.ProfitPercent, step.SellPercent)
		}
		if s.TakeProfit.MoonbagTrailingStopPercent > 0 {
			fmt.Printf("  Moonbag trailing stop: %.0f%% off peak\n",
				s.TakeProfit.MoonbagTrailingStopPercent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategyCmd)
	strategyCmd.AddCommand(strategyInitCmd)
	strategyCmd.AddCommand(strategyValidateCmd)
	strategyCmd.AddCommand(strategyShowCmd)
}
