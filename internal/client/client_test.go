package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/db"
	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/web"
)

// apiServer runs the real API over a temp database.
func apiServer(t *testing.T) *httptest.Server {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	cfg := config.Defaults()
	cfg.Analysis.Comps.AsOfYear = 2026
	cfg.Server.RateLimit = 0
	srv, err := web.NewServer(d, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts
}

func rental() Subject {
	return Subject{
		Listing: listing.Listing{
			Address: "1 Rent Rd", City: "Akron", State: "OH",
			Price: 120000, Beds: 3, Baths: 1, Sqft: 1200, TaxAnnual: 2000,
		},
		RentEstimate: analysis.Float(1800),
	}
}

func TestHealth(t *testing.T) {
	c := New(apiServer(t).URL)
	if err := c.Health(); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	c := New(apiServer(t).URL)

	resp, err := c.Analyze(rental())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(resp.Deals) != 3 {
		t.Fatalf("got %d deals, want 3", len(resp.Deals))
	}
	if resp.Comps == nil {
		t.Error("expected comp estimates")
	}
	if rent := resp.Deals[1].Metrics.Get(analysis.MetricMonthlyRentEstimate); rent != 1800 {
		t.Errorf("cash flow rent = %v, want 1800", rent)
	}
}

func TestAnalyzeInvalidListing(t *testing.T) {
	c := New(apiServer(t).URL)

	s := rental()
	s.Listing.Price = 0
	_, err := c.Analyze(s)
	if err == nil || !strings.Contains(err.Error(), "invalid listing") {
		t.Errorf("expected invalid listing error, got %v", err)
	}
}

func TestBatchSaveAndDeals(t *testing.T) {
	c := New(apiServer(t).URL)

	resp, err := c.Batch(BatchRequest{Listings: []Subject{rental()}, Save: true})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if resp.RunID == "" {
		t.Error("expected run id")
	}
	if resp.TotalListings != 1 {
		t.Errorf("total listings = %d, want 1", resp.TotalListings)
	}

	recs, err := c.Deals(0, "")
	if err != nil {
		t.Fatalf("deals: %v", err)
	}
	if len(recs) != resp.QualifyingDeals {
		t.Errorf("stored %d deals, want %d", len(recs), resp.QualifyingDeals)
	}
	for _, rec := range recs {
		if rec.RunID != resp.RunID {
			t.Errorf("run id = %q, want %q", rec.RunID, resp.RunID)
		}
	}
}

func TestOffer(t *testing.T) {
	c := New(apiServer(t).URL)

	all, err := c.Offer(OfferRequest{Subject: rental()})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if all.ListPrice != 120000 || len(all.Offers) != 3 {
		t.Errorf("offers = %+v", all)
	}

	one, err := c.Offer(OfferRequest{Subject: rental(), Strategy: "flip"})
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if len(one.Offers) != 1 || one.Offers[0].Strategy != analysis.StrategyFlip {
		t.Errorf("offers = %+v", one.Offers)
	}

	_, err = c.Offer(OfferRequest{Subject: rental(), Strategy: "wholesale"})
	if err == nil || !strings.Contains(err.Error(), "unknown strategy") {
		t.Errorf("expected unknown strategy error, got %v", err)
	}
}

func TestConfig(t *testing.T) {
	c := New(apiServer(t).URL)

	cfg, err := c.Config()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.Comps.AsOfYear != 2026 || len(cfg.Strategies) != 3 {
		t.Errorf("config = %+v", cfg)
	}
}

func TestDealsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/deals" {
			t.Errorf("path = %q, want /api/deals", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" || r.URL.Query().Get("strategy") != "brrr" {
			t.Errorf("query = %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{"count": 0, "deals": []interface{}{}}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	recs, err := New(srv.URL).Deals(5, "brrr")
	if err != nil {
		t.Fatalf("deals: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("got %d deals, want 0", len(recs))
	}
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).Health()
	if err == nil || err.Error() != "server error: Bad Gateway" {
		t.Errorf("err = %v, want server error: Bad Gateway", err)
	}
}

func TestConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	if err := New(url).Health(); err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Errorf("expected request failed error, got %v", err)
	}
}
