package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultPath returns the default config file path: ~/.config/listingiq/config.toml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "listingiq", "config.toml"), nil
}

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies LISTINGIQ_* environment variable overrides, and
// returns the final Config. A missing file is not an error; the defaults are
// used. The returned Config has NOT been validated.
func Load(path string) (Config, error) {
	if path == "" {
		return LoadLayered()
	}
	return LoadLayered(path)
}

// LoadLayered decodes each path in order on top of the defaults, so later
// files override earlier ones key by key. Missing files are skipped.
func LoadLayered(paths ...string) (Config, error) {
	cfg := Defaults()
	for _, p := range paths {
		if _, err := toml.DecodeFile(p, &cfg); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("parsing config %s: %w", p, err)
		}
	}

	_ = godotenv.Load()
	applyEnvOverrides(&cfg)

	return cfg, nil
}

// applyEnvOverrides reads well-known LISTINGIQ_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	setStringSlice(&cfg.Analysis.Strategies, "LISTINGIQ_STRATEGIES")
	setInt(&cfg.Analysis.Workers, "LISTINGIQ_WORKERS")

	setFloat64(&cfg.Analysis.BRRR.MaxPurchasePctOfARV, "LISTINGIQ_BRRR_MAX_PURCHASE_PCT_OF_ARV")
	setFloat64(&cfg.Analysis.BRRR.RehabCostPerSqft, "LISTINGIQ_BRRR_REHAB_COST_PER_SQFT")
	setFloat64(&cfg.Analysis.BRRR.RefinanceLTV, "LISTINGIQ_BRRR_REFINANCE_LTV")
	setFloat64(&cfg.Analysis.BRRR.MinCashOnCashReturn, "LISTINGIQ_BRRR_MIN_CASH_ON_CASH_RETURN")
	setStr(&cfg.Analysis.BRRR.RentBasis, "LISTINGIQ_BRRR_RENT_BASIS")

	setFloat64(&cfg.Analysis.CashFlow.DownPaymentPct, "LISTINGIQ_CASH_FLOW_DOWN_PAYMENT_PCT")
	setFloat64(&cfg.Analysis.CashFlow.InterestRate, "LISTINGIQ_CASH_FLOW_INTEREST_RATE")
	setInt(&cfg.Analysis.CashFlow.LoanTermYears, "LISTINGIQ_CASH_FLOW_LOAN_TERM_YEARS")
	setFloat64(&cfg.Analysis.CashFlow.MinMonthlyCashFlow, "LISTINGIQ_CASH_FLOW_MIN_MONTHLY_CASH_FLOW")
	setFloat64(&cfg.Analysis.CashFlow.MinCapRate, "LISTINGIQ_CASH_FLOW_MIN_CAP_RATE")

	setFloat64(&cfg.Analysis.Flip.MinProfit, "LISTINGIQ_FLIP_MIN_PROFIT")
	setFloat64(&cfg.Analysis.Flip.SellingCostPct, "LISTINGIQ_FLIP_SELLING_COST_PCT")

	setBool(&cfg.Analysis.Comps.Enabled, "LISTINGIQ_COMPS_ENABLED")
	setInt(&cfg.Analysis.Comps.AsOfYear, "LISTINGIQ_COMPS_AS_OF_YEAR")

	setInt(&cfg.Analysis.Offer.MaxIterations, "LISTINGIQ_OFFER_MAX_ITERATIONS")
	setFloat64(&cfg.Analysis.Offer.PriceTolerance, "LISTINGIQ_OFFER_PRICE_TOLERANCE")

	setStr(&cfg.Database.Path, "LISTINGIQ_DB")
	setInt(&cfg.Server.Port, "LISTINGIQ_PORT")
	setFloat64(&cfg.Server.RateLimit, "LISTINGIQ_RATE_LIMIT")
	setStr(&cfg.LogLevel, "LISTINGIQ_LOG_LEVEL")
	setBool(&cfg.Dev, "LISTINGIQ_DEV")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
