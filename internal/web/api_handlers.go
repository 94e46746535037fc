package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/deal"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/report"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	resp := map[string]string{"error": msg}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// decodeBody decodes a JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// subjectRequest is a listing with optional estimates and comps.
type subjectRequest struct {
	Listing      listing.Listing    `json:"listing"`
	RentEstimate *float64           `json:"rent_estimate,omitempty"`
	ARVEstimate  *float64           `json:"arv_estimate,omitempty"`
	RentalComps  []comps.RentalComp `json:"rental_comps,omitempty"`
	SalesComps   []comps.SalesComp  `json:"sales_comps,omitempty"`
}

// input validates the request's listing and returns it as a deal input.
func (req subjectRequest) input(source string) (deal.Input, error) {
	l := req.Listing
	if l.Source == "" {
		l.Source = source
	}
	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return deal.Input{}, fmt.Errorf("invalid listing: %w", err)
	}
	return deal.Input{
		Listing:   l,
		Estimates: analysis.Estimates{Rent: req.RentEstimate, ARV: req.ARVEstimate},
		Comps:     comps.Set{Rental: req.RentalComps, Sales: req.SalesComps},
	}, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

type analyzeResponse struct {
	Deals []analysis.DealAnalysis `json:"deals"`
	Comps *comps.Result           `json:"comps,omitempty"`
}

// handleAnalyze runs every configured strategy against one listing.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req subjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := req.input("api")
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	est, res := s.estimator.Resolve(in.Listing, in.Comps, in.Estimates)
	apiJSON(w, analyzeResponse{
		Deals: s.analyzer.AnalyzeListing(in.Listing, est),
		Comps: res,
	}, http.StatusOK)
}

type batchRequest struct {
	Listings []subjectRequest `json:"listings"`
	MinScore float64          `json:"min_score"`
	Limit    int              `json:"limit"`
	Save     bool             `json:"save"`
}

type batchResponse struct {
	RunID           string                  `json:"run_id,omitempty"`
	TotalListings   int                     `json:"total_listings"`
	QualifyingDeals int                     `json:"qualifying_deals"`
	Deals           []analysis.DealAnalysis `json:"deals"`
}

// handleBatch analyzes many listings and returns the top qualifying deals.
// With save set, the listings and every deal are stored under a new run.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Listings) == 0 {
		apiError(w, "listings is required", http.StatusBadRequest)
		return
	}

	inputs := make([]deal.Input, 0, len(req.Listings))
	for i, sr := range req.Listings {
		in, err := sr.input("api")
		if err != nil {
			apiError(w, fmt.Sprintf("listing %d: %v", i+1, err), http.StatusBadRequest)
			return
		}
		inputs = append(inputs, in)
	}

	var resp batchResponse
	var deals []analysis.DealAnalysis
	if req.Save {
		run, err := s.service.Run(r.Context(), inputs)
		if err != nil {
			slog.Error("batch run failed", "error", err)
			apiError(w, "analysis failed", http.StatusInternalServerError)
			return
		}
		resp.RunID = run.ID
		deals = run.Deals
	} else {
		var err error
		deals, err = s.service.Analyze(r.Context(), inputs)
		if err != nil {
			apiError(w, "analysis canceled", http.StatusServiceUnavailable)
			return
		}
	}

	resp.Deals = analysis.RankDeals(deals, req.MinScore, req.Limit)
	if resp.Deals == nil {
		resp.Deals = []analysis.DealAnalysis{}
	}
	resp.TotalListings = len(inputs)
	resp.QualifyingDeals = len(resp.Deals)
	apiJSON(w, resp, http.StatusOK)
}

type offerRequest struct {
	subjectRequest
	Strategy     string   `json:"strategy,omitempty"`
	TargetMetric string   `json:"target_metric,omitempty"`
	TargetValue  *float64 `json:"target_value,omitempty"`
}

type offerResponse struct {
	ListPrice float64                `json:"list_price"`
	Offers    []analysis.OfferResult `json:"offers"`
}

// handleOffer computes maximum offer prices. Without a strategy, every
// configured strategy is priced at its default target.
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := decodeBody(w, r, &req); err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}
	in, err := req.input("api")
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	est, _ := s.estimator.Resolve(in.Listing, in.Comps, in.Estimates)

	resp := offerResponse{ListPrice: in.Listing.Price}
	if req.Strategy == "" {
		resp.Offers = s.calculator.CalculateAllOffers(in.Listing, est)
	} else {
		strategy, err := analysis.ParseStrategy(req.Strategy)
		if err != nil {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		target := analysis.Target{Metric: req.TargetMetric, Value: req.TargetValue}
		offer, err := s.calculator.CalculateOfferPrice(in.Listing, strategy, target, est)
		if errors.Is(err, analysis.ErrUnknownStrategy) {
			apiError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			apiError(w, "offer calculation failed", http.StatusInternalServerError)
			return
		}
		resp.Offers = []analysis.OfferResult{offer}
	}

	apiJSON(w, resp, http.StatusOK)
}

// queryTop parses the limit and strategy query parameters shared by the
// stored-deal endpoints.
func queryTop(r *http.Request) (int, string, error) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, "", errors.New("limit must be a non-negative integer")
		}
		limit = n
	}
	strategy := r.URL.Query().Get("strategy")
	if strategy != "" {
		if _, err := analysis.ParseStrategy(strategy); err != nil {
			return 0, "", err
		}
	}
	return limit, strategy, nil
}

// handleDeals returns stored qualifying deals, best first.
func (s *Server) handleDeals(w http.ResponseWriter, r *http.Request) {
	limit, strategy, err := queryTop(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	recs, err := s.deals.Top(limit, strategy)
	if err != nil {
		slog.Error("listing deals", "error", err)
		apiError(w, "failed to list deals", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*deal.Record{}
	}

	apiJSON(w, map[string]interface{}{"count": len(recs), "deals": recs}, http.StatusOK)
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, s.cfg.Analysis, http.StatusOK)
}

// handleReport renders stored qualifying deals as an HTML page.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	limit, strategy, err := queryTop(r)
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	recs, err := s.deals.Top(limit, strategy)
	if err != nil {
		slog.Error("listing deals", "error", err)
		apiError(w, "failed to list deals", http.StatusInternalServerError)
		return
	}

	deals := make([]analysis.DealAnalysis, 0, len(recs))
	for _, rec := range recs {
		deals = append(deals, rec.Analysis())
	}
	page, err := report.HTML("Top Deals", deals)
	if err != nil {
		slog.Error("rendering report", "error", err)
		apiError(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page)); err != nil {
		slog.Error("writing report", "error", err)
	}
}
