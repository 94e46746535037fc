package analysis

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
)

// Subject is a listing paired with the estimates to analyze it with.
type Subject struct {
	Listing   listing.Listing
	Estimates Estimates
}

// DealAnalyzer runs every configured strategy against listings.
type DealAnalyzer struct {
	registry *Registry
	workers  int
}

// NewDealAnalyzer creates a DealAnalyzer for the strategies in cfg.
func NewDealAnalyzer(cfg config.AnalysisConfig) (*DealAnalyzer, error) {
	reg, err := NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("building strategy registry: %w", err)
	}
	return &DealAnalyzer{registry: reg, workers: max(cfg.Workers, 1)}, nil
}

// Registry returns the analyzer registry.
func (d *DealAnalyzer) Registry() *Registry {
	return d.registry
}

// AnalyzeListing returns one DealAnalysis per configured strategy, in
// configuration order.
func (d *DealAnalyzer) AnalyzeListing(l listing.Listing, est Estimates) []DealAnalysis {
	deals := make([]DealAnalysis, 0, len(d.registry.order))
	for _, s := range d.registry.order {
		deals = append(deals, d.registry.analyzers[s].Analyze(l, est))
	}
	return deals
}

// AnalyzeListings analyzes every listing with the same estimates and
// flattens the results, listing by listing.
func (d *DealAnalyzer) AnalyzeListings(listings []listing.Listing, est Estimates) []DealAnalysis {
	var deals []DealAnalysis
	for _, l := range listings {
		deals = append(deals, d.AnalyzeListing(l, est)...)
	}
	return deals
}

// AnalyzeConcurrent analyzes subjects on a bounded pool of goroutines. The
// result order matches AnalyzeListings over the same subjects. It only
// fails if ctx is canceled.
func (d *DealAnalyzer) AnalyzeConcurrent(ctx context.Context, subjects []Subject) ([]DealAnalysis, error) {
	results := make([][]DealAnalysis, len(subjects))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, s := range subjects {
		i, s := i, s
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = d.AnalyzeListing(s.Listing, s.Estimates)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var deals []DealAnalysis
	for _, r := range results {
		deals = append(deals, r...)
	}
	return deals, nil
}

// TopDeals analyzes listings and returns the qualifying deals ranked by
// score. See RankDeals.
func (d *DealAnalyzer) TopDeals(listings []listing.Listing, est Estimates, minScore float64, limit int) []DealAnalysis {
	return RankDeals(d.AnalyzeListings(listings, est), minScore, limit)
}

// RankDeals keeps deals that meet their criteria with a score of at least
// minScore, sorts them by score descending and truncates to limit. Equal
// scores keep their input order. A limit of 0 or less means no limit.
func RankDeals(deals []DealAnalysis, minScore float64, limit int) []DealAnalysis {
	var ranked []DealAnalysis
	for _, d := range deals {
		if d.MeetsCriteria && d.Score >= minScore {
			ranked = append(ranked, d)
		}
	}
	slices.SortStableFunc(ranked, func(a, b DealAnalysis) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
