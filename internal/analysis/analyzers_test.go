package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
)

func defaultConfig() config.AnalysisConfig {
	return config.Defaults().Analysis
}

func testListing(price float64, sqft int) listing.Listing {
	return listing.Listing{
		Source:       "test",
		SourceID:     "1",
		Address:      "123 Main St",
		City:         "Springfield",
		State:        "IL",
		ZipCode:      "62701",
		Price:        price,
		Beds:         3,
		Baths:        2,
		Sqft:         sqft,
		PropertyType: listing.PropertyTypeSingleFamily,
		Status:       listing.StatusActive,
	}
}

func near(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func allAnalyzers(cfg config.AnalysisConfig) []Analyzer {
	return []Analyzer{
		NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow),
		NewCashFlowAnalyzer(cfg.CashFlow),
		NewFlipAnalyzer(cfg.Flip),
	}
}

func TestBRRRDefaultScenario(t *testing.T) {
	cfg := defaultConfig()
	a := NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow)

	deal := a.Analyze(testListing(150_000, 1200), Estimates{})

	if deal.Strategy != StrategyBRRR {
		t.Errorf("strategy = %q, want %q", deal.Strategy, StrategyBRRR)
	}
	checks := map[string]float64{
		MetricEstimatedARV:        214_285.71,
		MetricRehabCost:           36_000,
		MetricHoldingCosts:        6_000,
		MetricTotalInvestment:     192_000,
		MetricRefinanceAmount:     160_714.29,
		MetricCashLeftInDeal:      31_285.71,
		MetricMonthlyRentEstimate: 1_714.29,
		MetricEquityCaptured:      53_571.43,
	}
	for name, want := range checks {
		if got := deal.Metrics.Get(name); !near(got, want, 0.01) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if deal.Metrics.Get(MetricMonthlyCashFlow) >= 0 {
		t.Errorf("monthly_cash_flow = %v, want negative", deal.Metrics.Get(MetricMonthlyCashFlow))
	}
	if deal.MeetsCriteria {
		t.Error("expected deal with negative cash flow not to qualify")
	}
}

func TestBRRRUnknownSqftUsesDefaultRehab(t *testing.T) {
	cfg := defaultConfig()
	a := NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow)

	deal := a.Analyze(testListing(150_000, 0), Estimates{})
	if got := deal.Metrics.Get(MetricRehabCost); got != 25_000 {
		t.Errorf("rehab_cost = %v, want 25000", got)
	}
}

func TestBRRRInfiniteCashOnCash(t *testing.T) {
	cfg := defaultConfig()
	a := NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow)

	l := testListing(100_000, 1000)
	l.TaxAnnual = 1200
	deal := a.Analyze(l, Estimates{ARV: Float(400_000)})

	if got := deal.Metrics.Get(MetricCashLeftInDeal); got != 0 {
		t.Fatalf("cash_left_in_deal = %v, want 0", got)
	}
	if got := deal.Metrics.Get(MetricCashOnCashReturn); !math.IsInf(got, 1) {
		t.Errorf("cash_on_cash_return = %v, want +Inf", got)
	}
	if !deal.MeetsCriteria {
		t.Error("expected infinite return with positive cash flow to qualify")
	}
	if deal.Score != 85 {
		t.Errorf("score = %v, want 85", deal.Score)
	}
	if !strings.Contains(deal.Summary, "CoC Return: ∞%") {
		t.Errorf("summary should render infinite return, got:\n%s", deal.Summary)
	}
}

func TestBRRRNoCashLeftAndNoCashFlow(t *testing.T) {
	cfg := defaultConfig()
	a := NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow)

	// Paid off by the refinance but losing money every month.
	deal := a.Analyze(testListing(100_000, 1000), Estimates{ARV: Float(400_000), Rent: Float(0)})

	if got := deal.Metrics.Get(MetricCashOnCashReturn); got != 0 {
		t.Errorf("cash_on_cash_return = %v, want 0", got)
	}
	if deal.MeetsCriteria {
		t.Error("expected negative cash flow not to qualify")
	}
}

func TestBRRRRentBasis(t *testing.T) {
	tests := []struct {
		name  string
		basis string
		want  float64
	}{
		{"arv basis scales the estimate", config.RentBasisARV, 1_500},
		{"as-is basis uses the estimate", config.RentBasisAsIs, 1_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.BRRR.RentBasis = tt.basis
			a := NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow)

			deal := a.Analyze(testListing(100_000, 1000), Estimates{Rent: Float(1_000), ARV: Float(150_000)})
			if got := deal.Metrics.Get(MetricMonthlyRentEstimate); !near(got, tt.want, 0.01) {
				t.Errorf("monthly_rent_estimate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNonPositiveARVEstimateIgnored(t *testing.T) {
	cfg := defaultConfig()
	l := testListing(130_000, 1000)

	for _, arv := range []float64{0, -50_000} {
		flip := NewFlipAnalyzer(cfg.Flip).Analyze(l, Estimates{ARV: Float(arv)})
		if got := flip.Metrics.Get(MetricEstimatedARV); got != 200_000 {
			t.Errorf("flip estimated_arv with estimate %v = %v, want 200000", arv, got)
		}
	}
}

func TestCashFlowDefaultScenario(t *testing.T) {
	cfg := defaultConfig()
	a := NewCashFlowAnalyzer(cfg.CashFlow)

	deal := a.Analyze(testListing(100_000, 1000), Estimates{})

	checks := map[string]float64{
		MetricMonthlyRentEstimate: 800,
		MetricDownPayment:         20_000,
		MetricLoanAmount:          80_000,
		MetricMonthlyMortgage:     532.24,
		MetricEffectiveRent:       760,
		MetricNOI:                 4_160,
		MetricCapRate:             4.16,
		MetricGRM:                 10.42,
	}
	for name, want := range checks {
		if got := deal.Metrics.Get(name); !near(got, want, 0.01) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if deal.Metrics.Get(MetricNOI) <= 0 {
		t.Error("expected positive NOI")
	}
}

func TestCashFlowRentEstimateOverridesFormula(t *testing.T) {
	cfg := defaultConfig()
	a := NewCashFlowAnalyzer(cfg.CashFlow)

	deal := a.Analyze(testListing(200_000, 1500), Estimates{Rent: Float(1_800)})
	if got := deal.Metrics.Get(MetricMonthlyRentEstimate); got != 1_800 {
		t.Errorf("monthly_rent_estimate = %v, want 1800", got)
	}
}

func TestCashFlowInfiniteRatios(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*config.CashFlowConfig)
		rent     *float64
		wantDSCR bool
		wantGRM  bool
	}{
		{"financed with rent", func(*config.CashFlowConfig) {}, nil, false, false},
		{"all cash purchase", func(c *config.CashFlowConfig) { c.DownPaymentPct = 1 }, nil, true, false},
		{"zero interest", func(c *config.CashFlowConfig) { c.InterestRate = 0 }, nil, true, false},
		{"zero rent", func(*config.CashFlowConfig) {}, Float(0), false, true},
		{"negative rent estimate", func(*config.CashFlowConfig) {}, Float(-100), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg.CashFlow)
			a := NewCashFlowAnalyzer(cfg.CashFlow)

			deal := a.Analyze(testListing(150_000, 1200), Estimates{Rent: tt.rent})

			dscr := deal.Metrics.Get(MetricDSCR)
			if math.IsInf(dscr, 1) != tt.wantDSCR {
				t.Errorf("dscr = %v, want infinite %v", dscr, tt.wantDSCR)
			}
			grm := deal.Metrics.Get(MetricGRM)
			if math.IsInf(grm, 1) != tt.wantGRM {
				t.Errorf("grm = %v, want infinite %v", grm, tt.wantGRM)
			}
			if !tt.wantGRM && grm <= 0 {
				t.Errorf("grm = %v, want positive", grm)
			}
			if deal.Score < 0 || deal.Score > 100 {
				t.Errorf("score %v out of range", deal.Score)
			}
		})
	}
}

func TestCashFlowQualifies(t *testing.T) {
	cfg := defaultConfig()
	a := NewCashFlowAnalyzer(cfg.CashFlow)

	l := testListing(100_000, 1000)
	l.TaxAnnual = 1_200
	deal := a.Analyze(l, Estimates{Rent: Float(1_800)})

	if !deal.MeetsCriteria {
		t.Errorf("expected strong rental to qualify, metrics: %v", deal.Metrics)
	}
	if deal.Score < 50 {
		t.Errorf("score = %v, want at least 50", deal.Score)
	}
}

func TestFlipDefaultScenario(t *testing.T) {
	cfg := defaultConfig()
	a := NewFlipAnalyzer(cfg.Flip)

	deal := a.Analyze(testListing(200_000, 1500), Estimates{ARV: Float(300_000)})

	checks := map[string]float64{
		MetricEstimatedARV:    300_000,
		MetricRehabCost:       52_500,
		MetricHoldingCosts:    12_000,
		MetricSellingCosts:    24_000,
		MetricTotalCost:       288_500,
		MetricEstimatedProfit: 11_500,
		MetricProfitPerMonth:  1_916.67,
		MetricROI:             4.55,
	}
	for name, want := range checks {
		if got := deal.Metrics.Get(name); !near(got, want, 0.01) {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
	if deal.MeetsCriteria {
		t.Error("expected profit below minimum not to qualify")
	}
}

func TestFlipUnknownSqftUsesDefaultRehab(t *testing.T) {
	cfg := defaultConfig()
	deal := NewFlipAnalyzer(cfg.Flip).Analyze(testListing(100_000, 0), Estimates{})
	if got := deal.Metrics.Get(MetricRehabCost); got != 30_000 {
		t.Errorf("rehab_cost = %v, want 30000", got)
	}
}

func TestFlipZeroProjectMonths(t *testing.T) {
	cfg := defaultConfig()
	cfg.Flip.ProjectMonths = 0
	deal := NewFlipAnalyzer(cfg.Flip).Analyze(testListing(100_000, 1000), Estimates{})
	if got := deal.Metrics.Get(MetricProfitPerMonth); got != 0 {
		t.Errorf("profit_per_month = %v, want 0", got)
	}
}

func TestScoreRangeAndReproducibility(t *testing.T) {
	cfg := defaultConfig()
	prices := []float64{1, 25_000, 80_000, 150_000, 400_000, 2_500_000}
	sqfts := []int{0, 600, 1800, 5000}
	estimates := []Estimates{
		{},
		{Rent: Float(0)},
		{Rent: Float(2_500), ARV: Float(500_000)},
		{ARV: Float(10_000_000)},
	}

	for _, a := range allAnalyzers(cfg) {
		for _, p := range prices {
			for _, s := range sqfts {
				for _, est := range estimates {
					l := testListing(p, s)
					deal := a.Analyze(l, est)
					if deal.Score < 0 || deal.Score > 100 {
						t.Errorf("%s: score %v out of range for price=%v sqft=%d", a.Strategy(), deal.Score, p, s)
					}
					score, meets := a.Evaluate(deal.Metrics)
					if score != deal.Score || meets != deal.MeetsCriteria {
						t.Errorf("%s: Evaluate = (%v, %v), analysis has (%v, %v)",
							a.Strategy(), score, meets, deal.Score, deal.MeetsCriteria)
					}
					if deal.Strategy == StrategyBRRR && deal.Metrics.Get(MetricCashLeftInDeal) < 0 {
						t.Errorf("negative cash_left_in_deal for price=%v", p)
					}
				}
			}
		}
	}
}

func TestSummaries(t *testing.T) {
	cfg := defaultConfig()
	l := testListing(150_000, 1200)

	tests := []struct {
		analyzer Analyzer
		header   string
	}{
		{NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow), "BRRR Analysis for 123 Main St, Springfield, IL 62701"},
		{NewCashFlowAnalyzer(cfg.CashFlow), "Cash Flow Analysis for 123 Main St, Springfield, IL 62701"},
		{NewFlipAnalyzer(cfg.Flip), "Flip Analysis for 123 Main St, Springfield, IL 62701"},
	}

	for _, tt := range tests {
		t.Run(string(tt.analyzer.Strategy()), func(t *testing.T) {
			deal := tt.analyzer.Analyze(l, Estimates{})
			lines := strings.Split(deal.Summary, "\n")
			if len(lines) != 6 {
				t.Fatalf("summary has %d lines, want 6:\n%s", len(lines), deal.Summary)
			}
			if lines[0] != tt.header {
				t.Errorf("header = %q, want %q", lines[0], tt.header)
			}
			if !strings.HasPrefix(lines[5], "Deal Score: ") || !strings.HasSuffix(lines[5], "/100") {
				t.Errorf("last line = %q", lines[5])
			}
			if !strings.Contains(deal.Summary, "Purchase: $150,000") {
				t.Errorf("summary missing purchase line:\n%s", deal.Summary)
			}
		})
	}
}
