// Package analysis scores property listings against investment strategies
// and inverts those scores into maximum offer prices.
//
// Everything in this package is pure computation over in-memory values.
package analysis

import (
	"errors"
	"fmt"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

// Strategy names an investment strategy.
type Strategy string

const (
	StrategyBRRR     Strategy = config.StrategyBRRR
	StrategyCashFlow Strategy = config.StrategyCashFlow
	StrategyFlip     Strategy = config.StrategyFlip
)

// ErrUnknownStrategy is returned when a strategy name is not registered.
var ErrUnknownStrategy = errors.New("unknown strategy")

// ParseStrategy converts a name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyBRRR, StrategyCashFlow, StrategyFlip:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Estimates are optional externally supplied market estimates, typically
// produced by comp services. A nil field means "not available" and the
// analyzer falls back to its formula.
type Estimates struct {
	Rent *float64 `json:"rent_estimate,omitempty"`
	ARV  *float64 `json:"arv_estimate,omitempty"`
}

// Float returns a pointer to v, for building Estimates.
func Float(v float64) *float64 {
	return &v
}

// rent returns the supplied monthly rent, clamped at zero.
func (e Estimates) rent() (float64, bool) {
	if e.Rent == nil {
		return 0, false
	}
	return max(*e.Rent, 0), true
}

// arv returns the supplied ARV. Non-positive values are treated as absent.
func (e Estimates) arv() (float64, bool) {
	if e.ARV == nil || *e.ARV <= 0 {
		return 0, false
	}
	return *e.ARV, true
}

// marketInputs are the market-side values an analyzer needs besides the
// purchase price. They are resolved once per listing so the offer search can
// vary price alone.
type marketInputs struct {
	arv  float64
	rent float64
}

// DealAnalysis is the result of running one strategy against one listing.
// Score and MeetsCriteria are always derived from Metrics.
type DealAnalysis struct {
	Listing       listing.Listing `json:"listing"`
	Strategy      Strategy        `json:"strategy"`
	Score         float64         `json:"score"`
	Metrics       Metrics         `json:"metrics"`
	MeetsCriteria bool            `json:"meets_criteria"`
	Summary       string          `json:"summary"`
}

// Analyzer evaluates listings for one strategy. The set of implementations
// is closed: BRRR, cash flow and flip.
type Analyzer interface {
	Strategy() Strategy

	// Analyze runs the strategy against l.
	Analyze(l listing.Listing, est Estimates) DealAnalysis

	// Evaluate recomputes the score and qualification from flattened metrics.
	Evaluate(m Metrics) (score float64, meets bool)

	resolve(l listing.Listing, est Estimates) marketInputs
	compute(l listing.Listing, in marketInputs) Metrics
	summary(l listing.Listing, m Metrics, score float64) string
}

// run computes metrics at l.Price with fixed market inputs and wraps them
// into a DealAnalysis.
func run(a Analyzer, l listing.Listing, in marketInputs) DealAnalysis {
	m := a.compute(l, in)
	score, meets := a.Evaluate(m)
	return DealAnalysis{
		Listing:       l,
		Strategy:      a.Strategy(),
		Score:         score,
		Metrics:       m,
		MeetsCriteria: meets,
		Summary:       a.summary(l, m, score),
	}
}

// Registry maps strategy names to analyzers, in configuration order.
type Registry struct {
	order     []Strategy
	analyzers map[Strategy]Analyzer
}

// NewRegistry builds analyzers for every strategy named in cfg.Strategies.
// Unknown names are rejected.
func NewRegistry(cfg config.AnalysisConfig) (*Registry, error) {
	r := &Registry{analyzers: make(map[Strategy]Analyzer, len(cfg.Strategies))}
	for _, name := range cfg.Strategies {
		s, err := ParseStrategy(name)
		if err != nil {
			return nil, err
		}
		if _, dup := r.analyzers[s]; dup {
			continue
		}
		r.analyzers[s] = newAnalyzer(s, cfg)
		r.order = append(r.order, s)
	}
	return r, nil
}

func newAnalyzer(s Strategy, cfg config.AnalysisConfig) Analyzer {
	switch s {
	case StrategyBRRR:
		return NewBRRRAnalyzer(cfg.BRRR, cfg.CashFlow)
	case StrategyCashFlow:
		return NewCashFlowAnalyzer(cfg.CashFlow)
	default:
		return NewFlipAnalyzer(cfg.Flip)
	}
}

// Get returns the analyzer for s.
func (r *Registry) Get(s Strategy) (Analyzer, error) {
	a, ok := r.analyzers[s]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
	return a, nil
}

// Strategies returns the registered strategies in configuration order.
func (r *Registry) Strategies() []Strategy {
	return append([]Strategy(nil), r.order...)
}

// tier returns the points for the first threshold v meets, scanning from the
// highest threshold down. Thresholds must be sorted descending.
func tier(v float64, thresholds []float64, points []float64) float64 {
	for i, t := range thresholds {
		if v >= t {
			return points[i]
		}
	}
	return 0
}

// finishScore clamps a raw score to [0, 100] and rounds it to one decimal.
func finishScore(score float64) float64 {
	return min(100, max(0, money.Round(score, 1)))
}
