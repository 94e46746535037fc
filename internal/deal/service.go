package deal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
)

// Input is a listing to analyze, with any estimates supplied by the caller
// and the comps available for its market.
type Input struct {
	Listing   listing.Listing
	Estimates analysis.Estimates
	Comps     comps.Set
}

// Run is the outcome of one analysis batch.
type Run struct {
	ID    string                  `json:"run_id"`
	Deals []analysis.DealAnalysis `json:"deals"`
}

// Service stores listings, analyzes them and records the results.
type Service struct {
	listings   *listing.Repository
	deals      *Repository
	analyzer   *analysis.DealAnalyzer
	calculator *analysis.Calculator
	estimator  *comps.Estimator
	newRunID   func() string
}

// NewService creates a deal service over db for the given analysis settings.
// Comp estimation runs only when cfg.Comps.Enabled is set.
func NewService(db *sql.DB, cfg config.AnalysisConfig) (*Service, error) {
	analyzer, err := analysis.NewDealAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	calculator, err := analysis.NewCalculator(cfg)
	if err != nil {
		return nil, err
	}

	s := &Service{
		listings:   listing.NewRepository(db),
		deals:      NewRepository(db),
		analyzer:   analyzer,
		calculator: calculator,
		newRunID:   uuid.NewString,
	}
	if cfg.Comps.Enabled {
		s.estimator = comps.NewEstimator(cfg.Comps)
	}
	return s, nil
}

// Deals returns the deal repository.
func (s *Service) Deals() *Repository {
	return s.deals
}

// Run upserts each input listing, analyzes them all concurrently and stores
// every resulting deal under a new run ID.
func (s *Service) Run(ctx context.Context, inputs []Input) (*Run, error) {
	runID := s.newRunID()

	ids := make([]int64, len(inputs))
	for i, in := range inputs {
		id, err := s.listings.Upsert(in.Listing)
		if err != nil {
			return nil, fmt.Errorf("storing listing %q: %w", in.Listing.Address, err)
		}
		ids[i] = id
	}

	deals, err := s.analyzer.AnalyzeConcurrent(ctx, s.subjects(inputs))
	if err != nil {
		return nil, fmt.Errorf("analyzing listings: %w", err)
	}

	perListing := len(s.analyzer.Registry().Strategies())
	for i, d := range deals {
		if _, err := s.deals.Save(ids[i/perListing], runID, d); err != nil {
			return nil, fmt.Errorf("saving %s deal for %q: %w", d.Strategy, d.Listing.Address, err)
		}
	}

	slog.Info("analysis run complete", "run", runID, "listings", len(inputs), "deals", len(deals))
	return &Run{ID: runID, Deals: deals}, nil
}

// Analyze analyzes inputs concurrently without storing anything. Deals are
// returned listing by listing, in strategy order.
func (s *Service) Analyze(ctx context.Context, inputs []Input) ([]analysis.DealAnalysis, error) {
	deals, err := s.analyzer.AnalyzeConcurrent(ctx, s.subjects(inputs))
	if err != nil {
		return nil, fmt.Errorf("analyzing listings: %w", err)
	}
	return deals, nil
}

// subjects resolves each input's estimates against its comps.
func (s *Service) subjects(inputs []Input) []analysis.Subject {
	subjects := make([]analysis.Subject, len(inputs))
	for i, in := range inputs {
		est, _ := s.estimator.Resolve(in.Listing, in.Comps, in.Estimates)
		subjects[i] = analysis.Subject{Listing: in.Listing, Estimates: est}
	}
	return subjects
}

// Offers computes the maximum offer for every configured strategy at its
// default target and stores the results.
func (s *Service) Offers(ctx context.Context, in Input) ([]analysis.OfferResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := s.listings.Upsert(in.Listing)
	if err != nil {
		return nil, fmt.Errorf("storing listing %q: %w", in.Listing.Address, err)
	}

	est, _ := s.estimator.Resolve(in.Listing, in.Comps, in.Estimates)
	offers := s.calculator.CalculateAllOffers(in.Listing, est)

	runID := s.newRunID()
	for _, o := range offers {
		if _, err := s.deals.SaveOffer(id, runID, o); err != nil {
			return nil, fmt.Errorf("saving %s offer: %w", o.Strategy, err)
		}
	}

	slog.Info("offers calculated", "run", runID, "listing", in.Listing.Address, "offers", len(offers))
	return offers, nil
}
