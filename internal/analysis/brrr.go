package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

const (
	// defaultBRRRRehab is the rehab budget when a listing's sqft is unknown.
	defaultBRRRRehab = 25_000.0
	// fallbackTaxRate is the annual property tax as a share of value when the
	// listing carries no tax figure.
	fallbackTaxRate = 0.012
)

// BRRRAnalyzer evaluates buy-rehab-rent-refinance deals. Financing and
// operating costs of the rental phase come from the cash flow settings.
type BRRRAnalyzer struct {
	cfg config.BRRRConfig
	cf  config.CashFlowConfig
}

// NewBRRRAnalyzer creates a BRRR analyzer.
func NewBRRRAnalyzer(cfg config.BRRRConfig, cf config.CashFlowConfig) *BRRRAnalyzer {
	return &BRRRAnalyzer{cfg: cfg, cf: cf}
}

// Strategy returns StrategyBRRR.
func (a *BRRRAnalyzer) Strategy() Strategy { return StrategyBRRR }

// Analyze runs the BRRR analysis on l.
func (a *BRRRAnalyzer) Analyze(l listing.Listing, est Estimates) DealAnalysis {
	return run(a, l, a.resolve(l, est))
}

// resolve picks the ARV and post-rehab rent. Without an ARV estimate the ARV
// is the price at which the purchase would sit exactly at the configured
// percent of ARV. A rent estimate is scaled by ARV / price under the "arv"
// rent basis, on the assumption it describes the property as listed.
func (a *BRRRAnalyzer) resolve(l listing.Listing, est Estimates) marketInputs {
	arv, ok := est.arv()
	if !ok {
		arv = l.Price / a.cfg.MaxPurchasePctOfARV
	}

	rent, ok := est.rent()
	switch {
	case !ok:
		rent = arv * a.cf.RentEstimatePct
	case a.cfg.RentBasis != config.RentBasisAsIs && l.Price > 0:
		rent = rent * arv / l.Price
	}

	return marketInputs{arv: arv, rent: rent}
}

func (a *BRRRAnalyzer) compute(l listing.Listing, in marketInputs) Metrics {
	price := l.Price
	arv := in.arv
	rent := in.rent

	rehab := defaultBRRRRehab
	if l.Sqft > 0 {
		rehab = float64(l.Sqft) * a.cfg.RehabCostPerSqft
	}
	holding := a.cfg.MonthlyHoldingCost * float64(a.cfg.RehabMonths)
	totalInvestment := price + rehab + holding

	refinance := arv * a.cfg.RefinanceLTV
	cashLeft := max(totalInvestment-refinance, 0)

	monthlyTax := l.TaxAnnual / 12
	if l.TaxAnnual <= 0 {
		monthlyTax = arv * fallbackTaxRate / 12
	}
	expenses := MonthlyPayment(refinance, a.cf.InterestRate, a.cf.LoanTermYears) +
		monthlyTax +
		a.cf.AnnualInsurance/12 +
		arv*a.cf.MaintenancePct/12 +
		rent*a.cf.ManagementFeePct +
		rent*a.cf.VacancyRate +
		l.HOAMonthly

	monthlyCashFlow := rent - expenses
	annualCashFlow := monthlyCashFlow * 12

	var coc float64
	switch {
	case cashLeft > 0:
		coc = annualCashFlow / cashLeft * 100
	case annualCashFlow > 0:
		coc = math.Inf(1)
	}

	return BRRRMetrics{
		PurchasePrice:       money.Cents(price),
		EstimatedARV:        money.Cents(arv),
		RehabCost:           money.Cents(rehab),
		TotalInvestment:     money.Cents(totalInvestment),
		HoldingCosts:        money.Cents(holding),
		RefinanceAmount:     money.Cents(refinance),
		CashLeftInDeal:      money.Cents(cashLeft),
		MonthlyRentEstimate: money.Cents(rent),
		MonthlyExpenses:     money.Cents(expenses),
		MonthlyCashFlow:     money.Cents(monthlyCashFlow),
		AnnualCashFlow:      money.Cents(annualCashFlow),
		CashOnCashReturn:    money.Cents(coc),
		EquityCaptured:      money.Cents(arv - refinance),
	}.Metrics()
}

// Evaluate scores BRRR metrics out of 100: cash-on-cash return (40), capital
// recovered by the refinance (25), monthly cash flow (20) and equity
// captured (15). A deal qualifies on cash-on-cash return and positive cash
// flow alone.
func (a *BRRRAnalyzer) Evaluate(flat Metrics) (float64, bool) {
	m := BRRRMetricsFrom(flat)

	score := tier(m.CashOnCashReturn, []float64{25, 15, 10, 5}, []float64{40, 30, 20, 10})

	if m.TotalInvestment != 0 {
		recovery := 1 - m.CashLeftInDeal/m.TotalInvestment
		score += min(25, max(0, recovery*25))
	}

	score += tier(m.MonthlyCashFlow, []float64{500, 300, 200, 100}, []float64{20, 15, 10, 5})
	score += tier(m.EquityCaptured, []float64{50_000, 30_000, 15_000}, []float64{15, 10, 5})

	meets := m.CashOnCashReturn >= a.cfg.MinCashOnCashReturn && m.MonthlyCashFlow > 0
	return finishScore(score), meets
}

func (a *BRRRAnalyzer) summary(l listing.Listing, flat Metrics, score float64) string {
	m := BRRRMetricsFrom(flat)
	return strings.Join([]string{
		"BRRR Analysis for " + l.FullAddress(),
		fmt.Sprintf("Purchase: $%s | Est. ARV: $%s", money.Format(m.PurchasePrice), money.Format(m.EstimatedARV)),
		fmt.Sprintf("Rehab: $%s | Total Investment: $%s", money.Format(m.RehabCost), money.Format(m.TotalInvestment)),
		fmt.Sprintf("Refinance: $%s | Cash Left: $%s", money.Format(m.RefinanceAmount), money.Format(m.CashLeftInDeal)),
		fmt.Sprintf("Monthly Cash Flow: $%s | CoC Return: %s", money.Format(m.MonthlyCashFlow), money.Percent(m.CashOnCashReturn)),
		fmt.Sprintf("Deal Score: %.1f/100", score),
	}, "\n")
}
