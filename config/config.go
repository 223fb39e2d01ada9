package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Collateral registers one collateral asset: its ledger symbol, the oracle
// feed pricing it, and the price seeded into the manual feed at startup.
type Collateral struct {
	Symbol       string `toml:"Symbol"`
	FeedID       string `toml:"FeedID"`
	GenesisPrice string `toml:"GenesisPrice"`
}

type Config struct {
	RPCAddress                  string       `toml:"RPCAddress"`
	MetricsAddress              string       `toml:"MetricsAddress"`
	DataDir                     string       `toml:"DataDir"`
	StableSymbol                string       `toml:"StableSymbol"`
	OracleMaxQuoteAgeSeconds    uint64       `toml:"OracleMaxQuoteAgeSeconds"`
	LiquidationThresholdPercent uint64       `toml:"LiquidationThresholdPercent"`
	LiquidationBonusPercent     uint64       `toml:"LiquidationBonusPercent"`
	Collateral                  []Collateral `toml:"Collateral"`
}

// Load loads the configuration from the given path, writing and returning the
// defaults when no file exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.StableSymbol) == "" {
		cfg.StableSymbol = "SUSD"
	}
	if cfg.OracleMaxQuoteAgeSeconds == 0 {
		cfg.OracleMaxQuoteAgeSeconds = defaultOracleMaxQuoteAgeSeconds
	}
	if cfg.LiquidationThresholdPercent == 0 {
		cfg.LiquidationThresholdPercent = defaultLiquidationThresholdPercent
	}
	if cfg.LiquidationBonusPercent == 0 {
		cfg.LiquidationBonusPercent = defaultLiquidationBonusPercent
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:                  ":8080",
		MetricsAddress:              ":9090",
		DataDir:                     "./synth-data",
		StableSymbol:                "SUSD",
		OracleMaxQuoteAgeSeconds:    defaultOracleMaxQuoteAgeSeconds,
		LiquidationThresholdPercent: defaultLiquidationThresholdPercent,
		LiquidationBonusPercent:     defaultLiquidationBonusPercent,
		Collateral: []Collateral{
			{Symbol: "WETH", FeedID: "eth-usd", GenesisPrice: "2000"},
			{Symbol: "WBTC", FeedID: "btc-usd", GenesisPrice: "40000"},
		},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func (c *Collateral) validate() error {
	if strings.TrimSpace(c.Symbol) == "" {
		return fmt.Errorf("collateral: Symbol required")
	}
	if strings.TrimSpace(c.FeedID) == "" {
		return fmt.Errorf("collateral %s: FeedID required", c.Symbol)
	}
	if strings.TrimSpace(c.GenesisPrice) == "" {
		return fmt.Errorf("collateral %s: GenesisPrice required", c.Symbol)
	}
	return nil
}
