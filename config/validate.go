package config

import "fmt"

const (
	defaultOracleMaxQuoteAgeSeconds    = uint64(3 * 60 * 60)
	defaultLiquidationThresholdPercent = uint64(50)
	defaultLiquidationBonusPercent     = uint64(10)
)

func Validate(cfg *Config) error {
	if cfg.LiquidationThresholdPercent > 100 {
		return fmt.Errorf("LiquidationThresholdPercent > 100")
	}
	if cfg.LiquidationBonusPercent > 100 {
		return fmt.Errorf("LiquidationBonusPercent > 100")
	}
	if len(cfg.Collateral) == 0 {
		return fmt.Errorf("at least one [[Collateral]] entry required")
	}
	seen := make(map[string]struct{}, len(cfg.Collateral))
	for i := range cfg.Collateral {
		if err := cfg.Collateral[i].validate(); err != nil {
			return err
		}
		if _, dup := seen[cfg.Collateral[i].Symbol]; dup {
			return fmt.Errorf("duplicate collateral symbol %s", cfg.Collateral[i].Symbol)
		}
		seen[cfg.Collateral[i].Symbol] = struct{}{}
	}
	return nil
}
