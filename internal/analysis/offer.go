package analysis

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

// Lower bound of the offer search window. The upper bound is searchCeiling
// times the list price.
const (
	searchFloor   = 1_000.0
	searchCeiling = 1.5
)

// OfferResult is the highest price at which a strategy still reaches a
// target metric value.
type OfferResult struct {
	Strategy       Strategy `json:"strategy"`
	TargetMetric   string   `json:"target_metric"`
	TargetValue    float64  `json:"target_value"`
	MaxOfferPrice  float64  `json:"max_offer_price"`
	MetricsAtOffer Metrics  `json:"metrics_at_offer"`
	// DiscountFromList is the percent below list price. Negative when the
	// offer is above list.
	DiscountFromList float64 `json:"discount_from_list"`
}

// Target selects the metric to solve for. Empty fields take the strategy's
// defaults from the offer configuration.
type Target struct {
	Metric string   `json:"target_metric,omitempty"`
	Value  *float64 `json:"target_value,omitempty"`
}

// Calculator inverts the strategy analyzers into maximum offer prices.
type Calculator struct {
	cfg        config.OfferConfig
	analyzers  *Registry
	configured []Strategy
}

// NewCalculator creates an offer calculator. Any of the three strategies can
// be priced; CalculateAllOffers covers only those named in cfg.Strategies.
func NewCalculator(cfg config.AnalysisConfig) (*Calculator, error) {
	configured, err := NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("building strategy registry: %w", err)
	}

	all := cfg
	all.Strategies = []string{config.StrategyBRRR, config.StrategyCashFlow, config.StrategyFlip}
	analyzers, err := NewRegistry(all)
	if err != nil {
		return nil, fmt.Errorf("building strategy registry: %w", err)
	}

	return &Calculator{cfg: cfg.Offer, analyzers: analyzers, configured: configured.order}, nil
}

// CalculateOfferPrice finds the maximum price for l at which strategy s
// reaches target. ARV and rent are resolved once at the list price and held
// fixed while the price varies. ErrUnknownStrategy is the only error.
//
// Flip profit is linear in price, so it is solved directly. Every other
// metric is found by bisection over [1000, 1.5 × list price], which assumes
// the metric does not increase with price. A metric name the strategy does
// not produce reads as 0.
func (c *Calculator) CalculateOfferPrice(l listing.Listing, s Strategy, target Target, est Estimates) (OfferResult, error) {
	a, err := c.analyzers.Get(s)
	if err != nil {
		return OfferResult{}, err
	}

	metric, value := c.resolveTarget(s, target)
	in := a.resolve(l, est)

	var best float64
	if s == StrategyFlip && metric == MetricEstimatedProfit {
		best = c.solveFlipProfit(a.(*FlipAnalyzer), l, in, value)
	} else {
		best = c.search(a, l, in, metric, value)
	}

	// Rounding down keeps the target met, since metrics do not improve as
	// the price rises.
	offer := math.Floor(best)
	final := a.compute(l.WithPrice(offer), in)

	var discount float64
	if l.Price > 0 {
		discount = money.Round((l.Price-offer)/l.Price*100, 1)
	}

	return OfferResult{
		Strategy:         s,
		TargetMetric:     metric,
		TargetValue:      value,
		MaxOfferPrice:    offer,
		MetricsAtOffer:   final,
		DiscountFromList: discount,
	}, nil
}

// CalculateAllOffers prices l for every configured strategy with default
// targets. A strategy that fails is skipped.
func (c *Calculator) CalculateAllOffers(l listing.Listing, est Estimates) []OfferResult {
	var results []OfferResult
	for _, s := range c.configured {
		r, err := c.CalculateOfferPrice(l, s, Target{}, est)
		if err != nil {
			slog.Debug("skipping offer", "strategy", s, "listing", l.Address, "error", err)
			continue
		}
		results = append(results, r)
	}
	return results
}

func (c *Calculator) resolveTarget(s Strategy, t Target) (string, float64) {
	metric := t.Metric
	var def float64
	switch s {
	case StrategyCashFlow:
		if metric == "" {
			metric = MetricMonthlyCashFlow
		}
		def = c.cfg.CashFlowTargetCoC
		if metric == MetricMonthlyCashFlow {
			def = c.cfg.CashFlowTargetMonthly
		}
	case StrategyBRRR:
		if metric == "" {
			metric = MetricCashOnCashReturn
		}
		def = c.cfg.BRRRTargetCoC
	case StrategyFlip:
		if metric == "" {
			metric = MetricEstimatedProfit
		}
		def = c.cfg.FlipTargetProfit
	}

	if t.Value != nil {
		return metric, *t.Value
	}
	return metric, def
}

// search bisects for the highest price whose metric is at least target.
// low always satisfies the target (or is the floor) and high always
// violates it (or is the ceiling).
func (c *Calculator) search(a Analyzer, l listing.Listing, in marketInputs, metric string, target float64) float64 {
	low := searchFloor
	high := l.Price * searchCeiling
	best := low

	for i := 0; i < c.cfg.MaxIterations; i++ {
		if high-low < c.cfg.PriceTolerance {
			break
		}
		mid := (low + high) / 2
		if a.compute(l.WithPrice(mid), in).Get(metric) >= target {
			best = mid
			low = mid
		} else {
			high = mid
		}
	}

	return best
}

// solveFlipProfit returns ARV - rehab - holding - selling - target, floored
// at zero.
func (c *Calculator) solveFlipProfit(a *FlipAnalyzer, l listing.Listing, in marketInputs, target float64) float64 {
	rehab, holding, selling := a.costs(l, in.arv)
	return max(in.arv-rehab-holding-selling-target, 0)
}
