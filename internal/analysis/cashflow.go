package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

// CashFlowAnalyzer evaluates buy-and-hold rentals financed with a
// conventional mortgage.
type CashFlowAnalyzer struct {
	cfg config.CashFlowConfig
}

// NewCashFlowAnalyzer creates a cash flow analyzer.
func NewCashFlowAnalyzer(cfg config.CashFlowConfig) *CashFlowAnalyzer {
	return &CashFlowAnalyzer{cfg: cfg}
}

// Strategy returns StrategyCashFlow.
func (a *CashFlowAnalyzer) Strategy() Strategy { return StrategyCashFlow }

// Analyze runs the cash flow analysis on l.
func (a *CashFlowAnalyzer) Analyze(l listing.Listing, est Estimates) DealAnalysis {
	return run(a, l, a.resolve(l, est))
}

func (a *CashFlowAnalyzer) resolve(l listing.Listing, est Estimates) marketInputs {
	rent, ok := est.rent()
	if !ok {
		rent = l.Price * a.cfg.RentEstimatePct
	}
	return marketInputs{rent: rent}
}

func (a *CashFlowAnalyzer) compute(l listing.Listing, in marketInputs) Metrics {
	price := l.Price
	rent := in.rent

	down := price * a.cfg.DownPaymentPct
	loan := price - down
	mortgage := MonthlyPayment(loan, a.cfg.InterestRate, a.cfg.LoanTermYears)

	effectiveRent := rent * (1 - a.cfg.VacancyRate)

	monthlyTax := l.TaxAnnual / 12
	if l.TaxAnnual <= 0 {
		monthlyTax = price * fallbackTaxRate / 12
	}
	operating := monthlyTax +
		a.cfg.AnnualInsurance/12 +
		price*a.cfg.MaintenancePct/12 +
		rent*a.cfg.ManagementFeePct +
		l.HOAMonthly
	expenses := mortgage + operating

	monthlyCashFlow := effectiveRent - expenses
	annualCashFlow := monthlyCashFlow * 12

	annualRent := rent * 12
	noi := annualRent - annualRent*a.cfg.VacancyRate - operating*12

	var capRate, coc float64
	if price > 0 {
		capRate = noi / price * 100
	}
	if down > 0 {
		coc = annualCashFlow / down * 100
	}

	dscr := math.Inf(1)
	if debt := mortgage * 12; debt > 0 {
		dscr = noi / debt
	}
	grm := math.Inf(1)
	if annualRent > 0 {
		grm = price / annualRent
	}

	return CashFlowMetrics{
		PurchasePrice:       money.Cents(price),
		DownPayment:         money.Cents(down),
		LoanAmount:          money.Cents(loan),
		MonthlyMortgage:     money.Cents(mortgage),
		MonthlyRentEstimate: money.Cents(rent),
		EffectiveRent:       money.Cents(effectiveRent),
		MonthlyExpenses:     money.Cents(expenses),
		MonthlyCashFlow:     money.Cents(monthlyCashFlow),
		AnnualCashFlow:      money.Cents(annualCashFlow),
		CapRate:             money.Cents(capRate),
		CashOnCashReturn:    money.Cents(coc),
		NOI:                 money.Cents(noi),
		DSCR:                money.Cents(dscr),
		GRM:                 money.Cents(grm),
	}.Metrics()
}

// Evaluate scores cash flow metrics out of 100: monthly cash flow (35), cap
// rate (25), cash-on-cash return (20), DSCR (10) and GRM (10, lower is
// better).
func (a *CashFlowAnalyzer) Evaluate(flat Metrics) (float64, bool) {
	m := CashFlowMetricsFrom(flat)

	score := tier(m.MonthlyCashFlow, []float64{500, 300, 200, 100}, []float64{35, 25, 18, 10})
	if score == 0 && m.MonthlyCashFlow > 0 {
		score = 5
	}
	score += tier(m.CapRate, []float64{10, 8, 6, 4}, []float64{25, 20, 15, 8})
	score += tier(m.CashOnCashReturn, []float64{15, 10, 8, 5}, []float64{20, 15, 10, 5})
	score += tier(m.DSCR, []float64{1.5, 1.25, 1.0}, []float64{10, 7, 3})

	switch {
	case m.GRM <= 8:
		score += 10
	case m.GRM <= 10:
		score += 7
	case m.GRM <= 12:
		score += 4
	}

	meets := m.MonthlyCashFlow >= a.cfg.MinMonthlyCashFlow && m.CapRate >= a.cfg.MinCapRate
	return finishScore(score), meets
}

func (a *CashFlowAnalyzer) summary(l listing.Listing, flat Metrics, score float64) string {
	m := CashFlowMetricsFrom(flat)
	dscr := "∞"
	if !math.IsInf(m.DSCR, 1) {
		dscr = fmt.Sprintf("%.2f", m.DSCR)
	}
	return strings.Join([]string{
		"Cash Flow Analysis for " + l.FullAddress(),
		fmt.Sprintf("Purchase: $%s | Down Payment: $%s", money.Format(m.PurchasePrice), money.Format(m.DownPayment)),
		fmt.Sprintf("Monthly Rent: $%s | Mortgage: $%s", money.Format(m.MonthlyRentEstimate), money.Format(m.MonthlyMortgage)),
		fmt.Sprintf("Monthly Cash Flow: $%s | Annual: $%s", money.Format(m.MonthlyCashFlow), money.Format(m.AnnualCashFlow)),
		fmt.Sprintf("Cap Rate: %s | CoC Return: %s | DSCR: %s", money.Percent(m.CapRate), money.Percent(m.CashOnCashReturn), dscr),
		fmt.Sprintf("Deal Score: %.1f/100", score),
	}, "\n")
}
