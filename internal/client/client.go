// Package client provides an HTTP client for the listingiq JSON API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/comps"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/deal"
	"github.com/evcraddock/listingiq/internal/listing"
)

// Client is an HTTP client for the listingiq API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Subject is a listing to analyze with optional estimates and comps.
type Subject struct {
	Listing      listing.Listing    `json:"listing"`
	RentEstimate *float64           `json:"rent_estimate,omitempty"`
	ARVEstimate  *float64           `json:"arv_estimate,omitempty"`
	RentalComps  []comps.RentalComp `json:"rental_comps,omitempty"`
	SalesComps   []comps.SalesComp  `json:"sales_comps,omitempty"`
}

// NewSubject converts a deal input into a request subject.
func NewSubject(in deal.Input) Subject {
	return Subject{
		Listing:      in.Listing,
		RentEstimate: in.Estimates.Rent,
		ARVEstimate:  in.Estimates.ARV,
		RentalComps:  in.Comps.Rental,
		SalesComps:   in.Comps.Sales,
	}
}

// AnalyzeResponse is the response from POST /api/analyze.
type AnalyzeResponse struct {
	Deals []analysis.DealAnalysis `json:"deals"`
	Comps *comps.Result           `json:"comps,omitempty"`
}

// Analyze runs every configured strategy against one listing.
func (c *Client) Analyze(s Subject) (*AnalyzeResponse, error) {
	var resp AnalyzeResponse
	if err := c.post("/api/analyze", s, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchRequest is the body of POST /api/batch.
type BatchRequest struct {
	Listings []Subject `json:"listings"`
	MinScore float64   `json:"min_score"`
	Limit    int       `json:"limit"`
	Save     bool      `json:"save"`
}

// BatchResponse is the response from POST /api/batch.
type BatchResponse struct {
	RunID           string                  `json:"run_id,omitempty"`
	TotalListings   int                     `json:"total_listings"`
	QualifyingDeals int                     `json:"qualifying_deals"`
	Deals           []analysis.DealAnalysis `json:"deals"`
}

// Batch analyzes many listings and returns the ranked qualifying deals.
func (c *Client) Batch(req BatchRequest) (*BatchResponse, error) {
	var resp BatchResponse
	if err := c.post("/api/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OfferRequest is the body of POST /api/offer. An empty Strategy prices
// every configured strategy at its default target.
type OfferRequest struct {
	Subject
	Strategy     string   `json:"strategy,omitempty"`
	TargetMetric string   `json:"target_metric,omitempty"`
	TargetValue  *float64 `json:"target_value,omitempty"`
}

// OfferResponse is the response from POST /api/offer.
type OfferResponse struct {
	ListPrice float64                `json:"list_price"`
	Offers    []analysis.OfferResult `json:"offers"`
}

// Offer calculates maximum offer prices.
func (c *Client) Offer(req OfferRequest) (*OfferResponse, error) {
	var resp OfferResponse
	if err := c.post("/api/offer", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Deals returns stored qualifying deals, best first. A limit of 0 returns
// all of them; an empty strategy matches every strategy.
func (c *Client) Deals(limit int, strategy string) ([]*deal.Record, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	if strategy != "" {
		params.Set("strategy", strategy)
	}

	var resp struct {
		Count int            `json:"count"`
		Deals []*deal.Record `json:"deals"`
	}
	if err := c.get("/api/deals?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Deals, nil
}

// Config returns the server's analysis configuration.
func (c *Client) Config() (*config.AnalysisConfig, error) {
	var cfg config.AnalysisConfig
	if err := c.get("/api/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Health checks that the server is up.
func (c *Client) Health() error {
	return c.get("/health", nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	req, err := http.NewRequest("GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result)
}

// do executes an HTTP request and turns error responses into errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "warning: closing response body: %v\n", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("server error: %s", http.StatusText(resp.StatusCode))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
