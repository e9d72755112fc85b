package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Range is an inclusive [Min, Max] filter bound in the strategy document.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MinBound is a lower-bound-only filter value.
type MinBound struct {
	Min float64 `json:"min" yaml:"min"`
}

// TakeProfitStep is one scale-out rung: at ProfitPercent gain, sell
// SellPercent of the tokens remaining at that moment.
type TakeProfitStep struct {
	ProfitPercent float64 `json:"profit_percent" yaml:"profit_percent"`
	SellPercent   float64 `json:"sell_percent" yaml:"sell_percent"`
}

// Filters holds the candidate admission predicates.
type Filters struct {
	LiquidityUSD           Range    `json:"liquidity_usd" yaml:"liquidity_usd"`
	MarketCapUSD           Range    `json:"market_cap_usd" yaml:"market_cap_usd"`
	TokenAgeMinutes        Range    `json:"token_age_minutes" yaml:"token_age_minutes"`
	VolumeFirst10mUSD      MinBound `json:"volume_first_10m_usd" yaml:"volume_first_10m_usd"`
	LPLockedRequired       bool     `json:"lp_locked_required" yaml:"lp_locked_required"`
	MintAuthority          string   `json:"mint_authority" yaml:"mint_authority"`
	FreezeAuthority        string   `json:"freeze_authority" yaml:"freeze_authority"`
	MaxSingleWalletPercent float64  `json:"max_single_wallet_percent" yaml:"max_single_wallet_percent"`
	MaxDevWalletPercent    float64  `json:"max_dev_wallet_percent" yaml:"max_dev_wallet_percent"`
}

// EntryRules describes the pump/pullback entry pattern. Carried for
// round-tripping strategy documents; the scanner currently admits any
// candidate that clears the filters.
type EntryRules struct {
	Type             string     `json:"type" yaml:"type"`
	MinPumpPercent   float64    `json:"min_pump_percent" yaml:"min_pump_percent"`
	MaxPumpPercent   float64    `json:"max_pump_percent" yaml:"max_pump_percent"`
	PullbackPercent  [2]float64 `json:"pullback_percent" yaml:"pullback_percent"`
	ConfirmNewVolume bool       `json:"confirm_new_volume" yaml:"confirm_new_volume"`
}

// PositionSizing controls bet size and exposure.
type PositionSizing struct {
	Mode             string  `json:"mode" yaml:"mode"`
	BetPercent       float64 `json:"bet_percent" yaml:"bet_percent"`
	MaxOpenPositions int     `json:"max_open_positions" yaml:"max_open_positions"`
}

// StopLoss holds the hard stop and the time stop.
type StopLoss struct {
	Type            string  `json:"type" yaml:"type"`
	HardStopPercent float64 `json:"hard_stop_percent" yaml:"hard_stop_percent"`
	TimeStopMinutes int     `json:"time_stop_minutes" yaml:"time_stop_minutes"`
}

// TakeProfit holds the scale-out ladder and the moonbag trailing stop.
type TakeProfit struct {
	ScaleOut                   []TakeProfitStep `json:"scale_out" yaml:"scale_out"`
	MoonbagTrailingStopPercent float64          `json:"moonbag_trailing_stop_percent" yaml:"moonbag_trailing_stop_percent"`
}

// ExitConditions are the event-driven exit flags from the strategy document.
// They require on-chain wallet/LP telemetry, so the engine carries but does
// not evaluate them.
type ExitConditions struct {
	NoNewBuysSeconds int  `json:"no_new_buys_seconds" yaml:"no_new_buys_seconds"`
	LargeWalletDump  bool `json:"large_wallet_dump" yaml:"large_wallet_dump"`
	LPMoved          bool `json:"lp_moved" yaml:"lp_moved"`
	VolumeCollapse   bool `json:"volume_collapse" yaml:"volume_collapse"`
}

// SocialFilters are the metadata-presence requirements.
type SocialFilters struct {
	RequireTwitter  bool   `json:"require_twitter" yaml:"require_twitter"`
	RequireTelegram bool   `json:"require_telegram" yaml:"require_telegram"`
	RequireImage    bool   `json:"require_image" yaml:"require_image"`
	Keywords        string `json:"keywords" yaml:"keywords"`
}

// Strategy is the full versioned strategy document. It is immutable per
// engine cycle: the engine copies it on SetStrategy and both loops read the
// same copy until the next swap.
type Strategy struct {
	StrategyName      string         `json:"strategy_name" yaml:"strategy_name"`
	TimeWindowMinutes [2]int         `json:"time_window_minutes" yaml:"time_window_minutes"`
	Chain             string         `json:"chain" yaml:"chain"`
	DiscoverySources  []string       `json:"discovery_sources" yaml:"discovery_sources"`
	Filters           Filters        `json:"filters" yaml:"filters"`
	Entry             EntryRules     `json:"entry" yaml:"entry"`
	PositionSizing    PositionSizing `json:"position_sizing" yaml:"position_sizing"`
	StopLoss          StopLoss       `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit        TakeProfit     `json:"take_profit" yaml:"take_profit"`
	ExitConditions    ExitConditions `json:"exit_conditions" yaml:"exit_conditions"`
	SocialFilters     SocialFilters  `json:"social_filters" yaml:"social_filters"`
	RiskProfile       string         `json:"risk_profile" yaml:"risk_profile"`
}

// LoadStrategy loads a strategy document from a YAML or JSON file.
func LoadStrategy(path string) (*Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	s := &Strategy{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, s); err != nil {
		if jerr := json.Unmarshal(data, s); jerr != nil {
			return nil, fmt.Errorf("parse strategy (tried YAML and JSON): %w", err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy: %w", err)
	}
	return s, nil
}

// SaveToFile writes the strategy as YAML or JSON depending on the extension.
func (s *Strategy) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal strategy: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write strategy file: %w", err)
	}
	return nil
}

// Validate checks the fields the engine actually depends on.
func (s *Strategy) Validate() error {
	if s.StrategyName == "" {
		return fmt.Errorf("strategy_name is required")
	}
	if s.Filters.LiquidityUSD.Max < s.Filters.LiquidityUSD.Min {
		return fmt.Errorf("filters.liquidity_usd: max below min")
	}
	if s.Filters.MarketCapUSD.Max < s.Filters.MarketCapUSD.Min {
		return fmt.Errorf("filters.market_cap_usd: max below min")
	}
	if s.Filters.TokenAgeMinutes.Max < s.Filters.TokenAgeMinutes.Min {
		return fmt.Errorf("filters.token_age_minutes: max below min")
	}
	if s.PositionSizing.BetPercent <= 0 || s.PositionSizing.BetPercent > 100 {
		return fmt.Errorf("position_sizing.bet_percent must be in (0, 100]")
	}
	if s.PositionSizing.MaxOpenPositions < 1 {
		return fmt.Errorf("position_sizing.max_open_positions must be at least 1")
	}
	if s.StopLoss.HardStopPercent <= 0 {
		return fmt.Errorf("stop_loss.hard_stop_percent must be positive")
	}
	if s.StopLoss.TimeStopMinutes < 0 {
		return fmt.Errorf("stop_loss.time_stop_minutes must not be negative")
	}
	for i, step := range s.TakeProfit.ScaleOut {
		if step.ProfitPercent <= 0 {
			return fmt.Errorf("take_profit.scale_out[%d].profit_percent must be positive", i)
		}
		if step.SellPercent <= 0 || step.SellPercent > 100 {
			return fmt.Errorf("take_profit.scale_out[%d].sell_percent must be in (0, 100]", i)
		}
	}
	if s.TakeProfit.MoonbagTrailingStopPercent < 0 || s.TakeProfit.MoonbagTrailingStopPercent >= 100 {
		return fmt.Errorf("take_profit.moonbag_trailing_stop_percent must be in [0, 100)")
	}
	return nil
}

// DefaultStrategy returns the stock ultra-early Solana meme scalp strategy.
func DefaultStrategy() *Strategy {
	return &Strategy{
		StrategyName:      "SolanaUltraEarlyMemeScalp",
		TimeWindowMinutes: [2]int{2, 60},
		Chain:             "Solana",
		DiscoverySources:  []string{"DexScreener_NewPairs"},
		Filters: Filters{
			LiquidityUSD:           Range{Min: 1000, Max: 500000},
			MarketCapUSD:           Range{Min: 5000, Max: 5000000},
			TokenAgeMinutes:        Range{Min: 0, Max: 2880},
			VolumeFirst10mUSD:      MinBound{Min: 5000},
			LPLockedRequired:       false,
			MintAuthority:          "revoked",
			FreezeAuthority:        "revoked",
			MaxSingleWalletPercent: 25,
			MaxDevWalletPercent:    20,
		},
		Entry: EntryRules{
			Type:             "first_pullback",
			MinPumpPercent:   30,
			MaxPumpPercent:   150,
			PullbackPercent:  [2]float64{20, 40},
			ConfirmNewVolume: true,
		},
		PositionSizing: PositionSizing{
			Mode:             "percent_equity",
			BetPercent:       2,
			MaxOpenPositions: 5,
		},
		StopLoss: StopLoss{
			Type:            "soft",
			HardStopPercent: 10,
			TimeStopMinutes: 5,
		},
		TakeProfit: TakeProfit{
			ScaleOut: []TakeProfitStep{
				{ProfitPercent: 30, SellPercent: 50},
				{ProfitPercent: 60, SellPercent: 50},
			},
			MoonbagTrailingStopPercent: 30,
		},
		ExitConditions: ExitConditions{
			NoNewBuysSeconds: 120,
			LargeWalletDump:  true,
			LPMoved:          true,
			VolumeCollapse:   true,
		},
		SocialFilters: SocialFilters{
			RequireTwitter:  false,
			RequireTelegram: false,
			RequireImage:    true,
			Keywords:        "",
		},
		RiskProfile: "ultra_high",
	}
}
