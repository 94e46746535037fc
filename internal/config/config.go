// Package config defines the configuration for listingiq and provides
// defaults and validation.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy names accepted in Analysis.Strategies.
const (
	StrategyBRRR     = "brrr"
	StrategyCashFlow = "cash_flow"
	StrategyFlip     = "flip"
)

// BRRR rent bases. RentBasisARV scales an external rent estimate by
// ARV / price so it reflects the post-rehab property; RentBasisAsIs uses the
// external estimate unchanged.
const (
	RentBasisARV  = "arv"
	RentBasisAsIs = "as_is"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by LISTINGIQ_* environment variables.
type Config struct {
	Analysis AnalysisConfig `toml:"analysis" json:"analysis" yaml:"analysis"`
	Database DatabaseConfig `toml:"database" json:"database" yaml:"database"`
	Server   ServerConfig   `toml:"server" json:"server" yaml:"server"`
	LogLevel string         `toml:"log_level" json:"log_level" yaml:"log_level"`
	// Dev switches logging to human-readable text at debug level.
	Dev bool `toml:"dev" json:"dev" yaml:"dev"`
}

// AnalysisConfig selects the strategies to run and holds their parameters.
type AnalysisConfig struct {
	Strategies []string       `toml:"strategies" json:"strategies" yaml:"strategies"`
	Workers    int            `toml:"workers" json:"workers" yaml:"workers"`
	BRRR       BRRRConfig     `toml:"brrr" json:"brrr" yaml:"brrr"`
	CashFlow   CashFlowConfig `toml:"cash_flow" json:"cash_flow" yaml:"cash_flow"`
	Flip       FlipConfig     `toml:"flip" json:"flip" yaml:"flip"`
	Comps      CompsConfig    `toml:"comps" json:"comps" yaml:"comps"`
	Offer      OfferConfig    `toml:"offer" json:"offer" yaml:"offer"`
}

// BRRRConfig holds buy-rehab-rent-refinance parameters. Financing and
// operating-expense rates for the rental phase come from CashFlowConfig.
type BRRRConfig struct {
	MaxPurchasePctOfARV float64 `toml:"max_purchase_pct_of_arv" json:"max_purchase_pct_of_arv" yaml:"max_purchase_pct_of_arv"`
	RehabCostPerSqft    float64 `toml:"rehab_cost_per_sqft" json:"rehab_cost_per_sqft" yaml:"rehab_cost_per_sqft"`
	RefinanceLTV        float64 `toml:"refinance_ltv" json:"refinance_ltv" yaml:"refinance_ltv"`
	MinCashOnCashReturn float64 `toml:"min_cash_on_cash_return" json:"min_cash_on_cash_return" yaml:"min_cash_on_cash_return"`
	MonthlyHoldingCost  float64 `toml:"monthly_holding_cost" json:"monthly_holding_cost" yaml:"monthly_holding_cost"`
	RehabMonths         int     `toml:"rehab_months" json:"rehab_months" yaml:"rehab_months"`
	RentBasis           string  `toml:"rent_basis" json:"rent_basis" yaml:"rent_basis"`
}

// CashFlowConfig holds buy-and-hold rental parameters.
type CashFlowConfig struct {
	DownPaymentPct     float64 `toml:"down_payment_pct" json:"down_payment_pct" yaml:"down_payment_pct"`
	InterestRate       float64 `toml:"interest_rate" json:"interest_rate" yaml:"interest_rate"`
	LoanTermYears      int     `toml:"loan_term_years" json:"loan_term_years" yaml:"loan_term_years"`
	RentEstimatePct    float64 `toml:"rent_estimate_pct" json:"rent_estimate_pct" yaml:"rent_estimate_pct"`
	VacancyRate        float64 `toml:"vacancy_rate" json:"vacancy_rate" yaml:"vacancy_rate"`
	ManagementFeePct   float64 `toml:"management_fee_pct" json:"management_fee_pct" yaml:"management_fee_pct"`
	MaintenancePct     float64 `toml:"maintenance_pct" json:"maintenance_pct" yaml:"maintenance_pct"`
	AnnualInsurance    float64 `toml:"annual_insurance" json:"annual_insurance" yaml:"annual_insurance"`
	MinMonthlyCashFlow float64 `toml:"min_monthly_cash_flow" json:"min_monthly_cash_flow" yaml:"min_monthly_cash_flow"`
	MinCapRate         float64 `toml:"min_cap_rate" json:"min_cap_rate" yaml:"min_cap_rate"`
}

// FlipConfig holds fix-and-flip parameters.
type FlipConfig struct {
	MaxPurchasePctOfARV float64 `toml:"max_purchase_pct_of_arv" json:"max_purchase_pct_of_arv" yaml:"max_purchase_pct_of_arv"`
	MinProfit           float64 `toml:"min_profit" json:"min_profit" yaml:"min_profit"`
	SellingCostPct      float64 `toml:"selling_cost_pct" json:"selling_cost_pct" yaml:"selling_cost_pct"`
	MonthlyHoldingCost  float64 `toml:"monthly_holding_cost" json:"monthly_holding_cost" yaml:"monthly_holding_cost"`
	ProjectMonths       int     `toml:"project_months" json:"project_months" yaml:"project_months"`
}

// CompsConfig holds comparable-property estimation parameters.
type CompsConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`

	SalesMaxComps      int     `toml:"sales_max_comps" json:"sales_max_comps" yaml:"sales_max_comps"`
	SalesSqftTolerance float64 `toml:"sales_sqft_tolerance" json:"sales_sqft_tolerance" yaml:"sales_sqft_tolerance"`
	SalesBedsTolerance int     `toml:"sales_beds_tolerance" json:"sales_beds_tolerance" yaml:"sales_beds_tolerance"`

	RentalMaxComps      int `toml:"rental_max_comps" json:"rental_max_comps" yaml:"rental_max_comps"`
	RentalBedsTolerance int `toml:"rental_beds_tolerance" json:"rental_beds_tolerance" yaml:"rental_beds_tolerance"`

	MinCompsForHighConfidence   int `toml:"min_comps_for_high_confidence" json:"min_comps_for_high_confidence" yaml:"min_comps_for_high_confidence"`
	MinCompsForMediumConfidence int `toml:"min_comps_for_medium_confidence" json:"min_comps_for_medium_confidence" yaml:"min_comps_for_medium_confidence"`

	// Monthly rent per sqft by property type, used when no comps are found.
	RentPerSqftSingleFamily float64 `toml:"rent_per_sqft_single_family" json:"rent_per_sqft_single_family" yaml:"rent_per_sqft_single_family"`
	RentPerSqftMultiFamily  float64 `toml:"rent_per_sqft_multi_family" json:"rent_per_sqft_multi_family" yaml:"rent_per_sqft_multi_family"`
	RentPerSqftCondo        float64 `toml:"rent_per_sqft_condo" json:"rent_per_sqft_condo" yaml:"rent_per_sqft_condo"`
	RentPerSqftTownhouse    float64 `toml:"rent_per_sqft_townhouse" json:"rent_per_sqft_townhouse" yaml:"rent_per_sqft_townhouse"`

	// AsOfYear is the year property ages are measured from. 0 means the current year.
	AsOfYear int `toml:"as_of_year" json:"as_of_year" yaml:"as_of_year"`
}

// OfferConfig holds default targets and search bounds for offer pricing.
type OfferConfig struct {
	CashFlowTargetMonthly float64 `toml:"cash_flow_target_monthly" json:"cash_flow_target_monthly" yaml:"cash_flow_target_monthly"`
	CashFlowTargetCoC     float64 `toml:"cash_flow_target_coc" json:"cash_flow_target_coc" yaml:"cash_flow_target_coc"`
	BRRRTargetCoC         float64 `toml:"brrr_target_coc" json:"brrr_target_coc" yaml:"brrr_target_coc"`
	FlipTargetProfit      float64 `toml:"flip_target_profit" json:"flip_target_profit" yaml:"flip_target_profit"`
	MaxIterations         int     `toml:"max_iterations" json:"max_iterations" yaml:"max_iterations"`
	PriceTolerance        float64 `toml:"price_tolerance" json:"price_tolerance" yaml:"price_tolerance"`
}

// DatabaseConfig holds the SQLite database location. Empty means the default path.
type DatabaseConfig struct {
	Path string `toml:"path" json:"path" yaml:"path"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `toml:"port" json:"port" yaml:"port"`
	// RateLimit is the sustained API request rate per second; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `toml:"rate_burst" json:"rate_burst" yaml:"rate_burst"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Analysis: AnalysisConfig{
			Strategies: []string{StrategyBRRR, StrategyCashFlow, StrategyFlip},
			Workers:    4,
			BRRR: BRRRConfig{
				MaxPurchasePctOfARV: 0.70,
				RehabCostPerSqft:    30.0,
				RefinanceLTV:        0.75,
				MinCashOnCashReturn: 8.0,
				MonthlyHoldingCost:  1500.0,
				RehabMonths:         4,
				RentBasis:           RentBasisARV,
			},
			CashFlow: CashFlowConfig{
				DownPaymentPct:     0.20,
				InterestRate:       0.07,
				LoanTermYears:      30,
				RentEstimatePct:    0.008,
				VacancyRate:        0.05,
				ManagementFeePct:   0.10,
				MaintenancePct:     0.01,
				AnnualInsurance:    1800.0,
				MinMonthlyCashFlow: 200.0,
				MinCapRate:         6.0,
			},
			Flip: FlipConfig{
				MaxPurchasePctOfARV: 0.65,
				MinProfit:           30_000.0,
				SellingCostPct:      0.08,
				MonthlyHoldingCost:  2000.0,
				ProjectMonths:       6,
			},
			Comps: CompsConfig{
				Enabled:                     true,
				SalesMaxComps:               10,
				SalesSqftTolerance:          0.20,
				SalesBedsTolerance:          1,
				RentalMaxComps:              10,
				RentalBedsTolerance:         0,
				MinCompsForHighConfidence:   5,
				MinCompsForMediumConfidence: 3,
				RentPerSqftSingleFamily:     1.10,
				RentPerSqftMultiFamily:      1.00,
				RentPerSqftCondo:            1.20,
				RentPerSqftTownhouse:        1.15,
			},
			Offer: OfferConfig{
				CashFlowTargetMonthly: 200.0,
				CashFlowTargetCoC:     8.0,
				BRRRTargetCoC:         10.0,
				FlipTargetProfit:      30_000.0,
				MaxIterations:         50,
				PriceTolerance:        500.0,
			},
		},
		Server:   ServerConfig{Port: 8080, RateLimit: 10, RateBurst: 20},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is usable. It returns all problems
// found, joined into one error.
func (c Config) Validate() error {
	var errs []error

	a := c.Analysis
	if len(a.Strategies) == 0 {
		errs = append(errs, errors.New("analysis.strategies: at least one strategy is required"))
	}
	for _, s := range a.Strategies {
		switch s {
		case StrategyBRRR, StrategyCashFlow, StrategyFlip:
		default:
			errs = append(errs, fmt.Errorf("analysis.strategies: unknown strategy %q", s))
		}
	}
	if a.Workers < 1 {
		errs = append(errs, fmt.Errorf("analysis.workers must be at least 1, got %d", a.Workers))
	}

	if a.BRRR.MaxPurchasePctOfARV <= 0 || a.BRRR.MaxPurchasePctOfARV > 1 {
		errs = append(errs, fmt.Errorf("analysis.brrr.max_purchase_pct_of_arv must be in (0, 1], got %v", a.BRRR.MaxPurchasePctOfARV))
	}
	if a.BRRR.RefinanceLTV <= 0 || a.BRRR.RefinanceLTV > 1 {
		errs = append(errs, fmt.Errorf("analysis.brrr.refinance_ltv must be in (0, 1], got %v", a.BRRR.RefinanceLTV))
	}
	if a.BRRR.RehabCostPerSqft < 0 || a.BRRR.MonthlyHoldingCost < 0 || a.BRRR.RehabMonths < 0 {
		errs = append(errs, errors.New("analysis.brrr: rehab and holding costs must be non-negative"))
	}
	switch a.BRRR.RentBasis {
	case RentBasisARV, RentBasisAsIs:
	default:
		errs = append(errs, fmt.Errorf("analysis.brrr.rent_basis must be %q or %q, got %q", RentBasisARV, RentBasisAsIs, a.BRRR.RentBasis))
	}

	cf := a.CashFlow
	if cf.DownPaymentPct < 0 || cf.DownPaymentPct > 1 {
		errs = append(errs, fmt.Errorf("analysis.cash_flow.down_payment_pct must be in [0, 1], got %v", cf.DownPaymentPct))
	}
	if cf.InterestRate < 0 {
		errs = append(errs, fmt.Errorf("analysis.cash_flow.interest_rate must be non-negative, got %v", cf.InterestRate))
	}
	if cf.LoanTermYears <= 0 {
		errs = append(errs, fmt.Errorf("analysis.cash_flow.loan_term_years must be positive, got %d", cf.LoanTermYears))
	}
	if cf.VacancyRate < 0 || cf.VacancyRate > 1 {
		errs = append(errs, fmt.Errorf("analysis.cash_flow.vacancy_rate must be in [0, 1], got %v", cf.VacancyRate))
	}

	if a.Flip.MaxPurchasePctOfARV <= 0 || a.Flip.MaxPurchasePctOfARV > 1 {
		errs = append(errs, fmt.Errorf("analysis.flip.max_purchase_pct_of_arv must be in (0, 1], got %v", a.Flip.MaxPurchasePctOfARV))
	}
	if a.Flip.SellingCostPct < 0 || a.Flip.SellingCostPct >= 1 {
		errs = append(errs, fmt.Errorf("analysis.flip.selling_cost_pct must be in [0, 1), got %v", a.Flip.SellingCostPct))
	}

	if a.Comps.MinCompsForMediumConfidence > a.Comps.MinCompsForHighConfidence {
		errs = append(errs, errors.New("analysis.comps: medium confidence threshold exceeds high confidence threshold"))
	}

	if a.Offer.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("analysis.offer.max_iterations must be positive, got %d", a.Offer.MaxIterations))
	}
	if a.Offer.PriceTolerance <= 0 {
		errs = append(errs, fmt.Errorf("analysis.offer.price_tolerance must be positive, got %v", a.Offer.PriceTolerance))
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateBurst < 1) {
		errs = append(errs, fmt.Errorf("server: rate_limit must be non-negative with rate_burst of at least 1, got %v/%d", c.Server.RateLimit, c.Server.RateBurst))
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}

// HasStrategy reports whether name is one of the configured strategies.
func (a AnalysisConfig) HasStrategy(name string) bool {
	for _, s := range a.Strategies {
		if s == name {
			return true
		}
	}
	return false
}
