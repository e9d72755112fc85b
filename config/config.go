package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete bot configuration, strategy excluded: the
// strategy is its own document (see strategy.go) so it can be edited and
// reloaded without touching account or journal settings.
type Config struct {
	Account Account `json:"account" yaml:"account"`
	Scanner Scanner `json:"scanner" yaml:"scanner"`
	Market  Market  `json:"market" yaml:"market"`
	Journal Journal `json:"journal" yaml:"journal"`
	State   State   `json:"state" yaml:"state"`
}

// Account contains paper-account initialization parameters.
type Account struct {
	Currency       string  `json:"currency" yaml:"currency"`
	InitialBalance float64 `json:"initial_balance" yaml:"initial_balance"`
}

// Scanner contains the two loop periods.
type Scanner struct {
	ScanInterval    string `json:"scan_interval" yaml:"scan_interval"`
	MonitorInterval string `json:"monitor_interval" yaml:"monitor_interval"`
}

// ScanPeriod returns the parsed scan loop period.
func (s Scanner) ScanPeriod() (time.Duration, error) {
	return time.ParseDuration(s.ScanInterval)
}

// MonitorPeriod returns the parsed monitor loop period.
func (s Scanner) MonitorPeriod() (time.Duration, error) {
	return time.ParseDuration(s.MonitorInterval)
}

// Market contains data source parameters.
type Market struct {
	BaseURL    string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout    string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxRetries int    `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

// Journal contains trade journaling parameters.
type Journal struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// State contains snapshot persistence parameters.
type State struct {
	Dir string `json:"dir" yaml:"dir"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML or JSON depending on the
// extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.InitialBalance <= 0 {
		return fmt.Errorf("account.initial_balance must be positive")
	}
	scan, err := c.Scanner.ScanPeriod()
	if err != nil || scan <= 0 {
		return fmt.Errorf("scanner.scan_interval must be a positive duration")
	}
	monitor, err := c.Scanner.MonitorPeriod()
	if err != nil || monitor <= 0 {
		return fmt.Errorf("scanner.monitor_interval must be a positive duration")
	}
	if c.Market.Timeout != "" {
		if _, err := time.ParseDuration(c.Market.Timeout); err != nil {
			return fmt.Errorf("market.timeout: %w", err)
		}
	}
	if c.Market.MaxRetries < 0 {
		return fmt.Errorf("market.max_retries must not be negative")
	}
	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && c.Journal.TradesFile == "" {
		return fmt.Errorf("journal.trades_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path required for SQLite type")
	}
	if c.State.Dir == "" {
		return fmt.Errorf("state.dir is required")
	}
	return nil
}

// Default returns a configuration with sensible defaults: a $100 paper
// account, an 8s scan loop and a 3s monitor loop.
func Default() *Config {
	return &Config{
		Account: Account{
			Currency:       "USD",
			InitialBalance: 100.00,
		},
		Scanner: Scanner{
			ScanInterval:    "8s",
			MonitorInterval: "3s",
		},
		Market: Market{
			Timeout:    "10s",
			MaxRetries: 3,
		},
		Journal: Journal{
			Type:   "sqlite",
			DBPath: "./memebot.db",
		},
		State: State{
			Dir: "./state",
		},
	}
}
