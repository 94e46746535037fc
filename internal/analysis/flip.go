package analysis

import (
	"fmt"
	"strings"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

const (
	flipRehabPerSqft = 35.0
	defaultFlipRehab = 30_000.0
)

// FlipAnalyzer evaluates fix-and-flip deals.
type FlipAnalyzer struct {
	cfg config.FlipConfig
}

// NewFlipAnalyzer creates a flip analyzer.
func NewFlipAnalyzer(cfg config.FlipConfig) *FlipAnalyzer {
	return &FlipAnalyzer{cfg: cfg}
}

// Strategy returns StrategyFlip.
func (a *FlipAnalyzer) Strategy() Strategy { return StrategyFlip }

// Analyze runs the flip analysis on l.
func (a *FlipAnalyzer) Analyze(l listing.Listing, est Estimates) DealAnalysis {
	return run(a, l, a.resolve(l, est))
}

func (a *FlipAnalyzer) resolve(l listing.Listing, est Estimates) marketInputs {
	arv, ok := est.arv()
	if !ok {
		arv = l.Price / a.cfg.MaxPurchasePctOfARV
	}
	return marketInputs{arv: arv}
}

// costs returns the price-independent costs of a flip: rehab, holding and
// selling.
func (a *FlipAnalyzer) costs(l listing.Listing, arv float64) (rehab, holding, selling float64) {
	rehab = defaultFlipRehab
	if l.Sqft > 0 {
		rehab = float64(l.Sqft) * flipRehabPerSqft
	}
	holding = a.cfg.MonthlyHoldingCost * float64(a.cfg.ProjectMonths)
	selling = arv * a.cfg.SellingCostPct
	return rehab, holding, selling
}

func (a *FlipAnalyzer) compute(l listing.Listing, in marketInputs) Metrics {
	price := l.Price
	rehab, holding, selling := a.costs(l, in.arv)

	totalCost := price + rehab + holding + selling
	profit := in.arv - totalCost

	var roi, perMonth float64
	if basis := price + rehab; basis > 0 {
		roi = profit / basis * 100
	}
	if a.cfg.ProjectMonths > 0 {
		perMonth = profit / float64(a.cfg.ProjectMonths)
	}

	return FlipMetrics{
		PurchasePrice:   money.Cents(price),
		EstimatedARV:    money.Cents(in.arv),
		RehabCost:       money.Cents(rehab),
		HoldingCosts:    money.Cents(holding),
		SellingCosts:    money.Cents(selling),
		TotalCost:       money.Cents(totalCost),
		EstimatedProfit: money.Cents(profit),
		ROI:             money.Cents(roi),
		ProfitPerMonth:  money.Cents(perMonth),
	}.Metrics()
}

// Evaluate scores flip metrics out of 100: profit (40), ROI (30), profit
// per month (20) and the spread between ARV and price (10).
func (a *FlipAnalyzer) Evaluate(flat Metrics) (float64, bool) {
	m := FlipMetricsFrom(flat)

	score := tier(m.EstimatedProfit, []float64{75_000, 50_000, 30_000, 15_000}, []float64{40, 30, 20, 10})
	score += tier(m.ROI, []float64{30, 20, 15, 10}, []float64{30, 22, 15, 8})
	score += tier(m.ProfitPerMonth, []float64{10_000, 7_000, 5_000, 3_000}, []float64{20, 15, 10, 5})
	score += tier(m.EstimatedARV-m.PurchasePrice, []float64{100_000, 75_000, 50_000}, []float64{10, 7, 4})

	meets := m.EstimatedProfit >= a.cfg.MinProfit && m.ROI > 0
	return finishScore(score), meets
}

func (a *FlipAnalyzer) summary(l listing.Listing, flat Metrics, score float64) string {
	m := FlipMetricsFrom(flat)
	return strings.Join([]string{
		"Flip Analysis for " + l.FullAddress(),
		fmt.Sprintf("Purchase: $%s | Est. ARV: $%s", money.Format(m.PurchasePrice), money.Format(m.EstimatedARV)),
		fmt.Sprintf("Rehab: $%s | Holding: $%s | Selling: $%s", money.Format(m.RehabCost), money.Format(m.HoldingCosts), money.Format(m.SellingCosts)),
		fmt.Sprintf("Total Cost: $%s | Est. Profit: $%s", money.Format(m.TotalCost), money.Format(m.EstimatedProfit)),
		fmt.Sprintf("ROI: %s | Profit/Month: $%s", money.Percent(m.ROI), money.Format(m.ProfitPerMonth)),
		fmt.Sprintf("Deal Score: %.1f/100", score),
	}, "\n")
}
