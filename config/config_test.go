package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.RPCAddress != ":8080" {
		t.Fatalf("unexpected RPCAddress: %s", cfg.RPCAddress)
	}
	if cfg.LiquidationThresholdPercent != 50 || cfg.LiquidationBonusPercent != 10 {
		t.Fatalf("unexpected solvency defaults: %d/%d", cfg.LiquidationThresholdPercent, cfg.LiquidationBonusPercent)
	}
	if len(cfg.Collateral) == 0 {
		t.Fatal("default config has no collateral entries")
	}

	// A second load reads the file back identically.
	reread, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reread.StableSymbol != cfg.StableSymbol || len(reread.Collateral) != len(cfg.Collateral) {
		t.Fatalf("reloaded config differs: %+v vs %+v", reread, cfg)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
RPCAddress = ":9999"
DataDir = "./data"

[[Collateral]]
Symbol = "WETH"
FeedID = "eth-usd"
GenesisPrice = "1500"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":9999" {
		t.Fatalf("unexpected RPCAddress: %s", cfg.RPCAddress)
	}
	if cfg.StableSymbol != "SUSD" {
		t.Fatalf("StableSymbol default not applied: %s", cfg.StableSymbol)
	}
	if cfg.OracleMaxQuoteAgeSeconds != defaultOracleMaxQuoteAgeSeconds {
		t.Fatalf("quote age default not applied: %d", cfg.OracleMaxQuoteAgeSeconds)
	}
	if cfg.LiquidationThresholdPercent != 50 || cfg.LiquidationBonusPercent != 10 {
		t.Fatalf("solvency defaults not applied: %d/%d", cfg.LiquidationThresholdPercent, cfg.LiquidationBonusPercent)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	base := func() *Config {
		return &Config{
			LiquidationThresholdPercent: 50,
			LiquidationBonusPercent:     10,
			Collateral: []Collateral{
				{Symbol: "WETH", FeedID: "eth-usd", GenesisPrice: "2000"},
			},
		}
	}

	cfg := base()
	cfg.LiquidationThresholdPercent = 150
	if err := Validate(cfg); err == nil {
		t.Fatal("threshold above 100 accepted")
	}

	cfg = base()
	cfg.Collateral = nil
	if err := Validate(cfg); err == nil {
		t.Fatal("empty collateral set accepted")
	}

	cfg = base()
	cfg.Collateral = append(cfg.Collateral, Collateral{Symbol: "WETH", FeedID: "eth-usd-2", GenesisPrice: "2000"})
	if err := Validate(cfg); err == nil {
		t.Fatal("duplicate collateral symbol accepted")
	}

	cfg = base()
	cfg.Collateral[0].FeedID = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("missing feed id accepted")
	}
}
