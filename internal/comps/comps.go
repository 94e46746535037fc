// Package comps estimates market rent and after-repair value for a listing
// from comparable rentals and sales, falling back to property-based formulas
// when too few comparables are available.
package comps

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
)

// Confidence grades how much comparable data backs an estimate.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Estimate is an estimated value and the confidence behind it.
type Estimate struct {
	Value      float64    `json:"value" yaml:"value"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	CompsUsed  int        `json:"comps_used" yaml:"comps_used"`
}

// RentalComp is a comparable rental listing.
type RentalComp struct {
	Address       string  `json:"address" yaml:"address"`
	City          string  `json:"city,omitempty" yaml:"city,omitempty"`
	MonthlyRent   float64 `json:"monthly_rent" yaml:"monthly_rent"`
	Beds          int     `json:"beds" yaml:"beds"`
	Baths         float64 `json:"baths" yaml:"baths"`
	Sqft          int     `json:"sqft" yaml:"sqft"`
	DistanceMiles float64 `json:"distance_miles,omitempty" yaml:"distance_miles,omitempty"`
	Source        string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// SalesComp is a comparable sold property.
type SalesComp struct {
	Address       string  `json:"address" yaml:"address"`
	City          string  `json:"city,omitempty" yaml:"city,omitempty"`
	SoldPrice     float64 `json:"sold_price" yaml:"sold_price"`
	SoldDate      string  `json:"sold_date,omitempty" yaml:"sold_date,omitempty"`
	Beds          int     `json:"beds" yaml:"beds"`
	Baths         float64 `json:"baths" yaml:"baths"`
	Sqft          int     `json:"sqft" yaml:"sqft"`
	DistanceMiles float64 `json:"distance_miles,omitempty" yaml:"distance_miles,omitempty"`
	PricePerSqft  float64 `json:"price_per_sqft,omitempty" yaml:"price_per_sqft,omitempty"`
	Source        string  `json:"source,omitempty" yaml:"source,omitempty"`
}

// Set is the comparable data available for a market.
type Set struct {
	Rental []RentalComp `json:"rental_comps,omitempty" yaml:"rental_comps"`
	Sales  []SalesComp  `json:"sales_comps,omitempty" yaml:"sales_comps"`
}

// LoadFile reads a comp set from a YAML (or JSON) file.
func LoadFile(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("reading comps: %w", err)
	}
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Set{}, fmt.Errorf("parsing comps %s: %w", path, err)
	}
	return s, nil
}

// Result holds the rent and ARV estimates for one listing.
type Result struct {
	Rent Estimate `json:"rent"`
	ARV  Estimate `json:"arv"`
}

// Estimates converts r into analyzer inputs.
func (r Result) Estimates() analysis.Estimates {
	return analysis.Estimates{
		Rent: analysis.Float(r.Rent.Value),
		ARV:  analysis.Float(r.ARV.Value),
	}
}

// Estimator turns comparable data into rent and ARV estimates.
type Estimator struct {
	cfg config.CompsConfig
	now func() time.Time
}

// NewEstimator creates an estimator.
func NewEstimator(cfg config.CompsConfig) *Estimator {
	return &Estimator{cfg: cfg, now: time.Now}
}

// Estimate runs both estimators for l.
func (e *Estimator) Estimate(l listing.Listing, s Set) Result {
	return Result{
		Rent: e.Rent(l, s.Rental),
		ARV:  e.ARV(l, s.Sales),
	}
}

// Resolve returns the estimates to analyze l with. Comp estimates are only
// made when e is non-nil and l has a city to match comps on; explicitly
// supplied values always win over comp estimates. The comp result is nil
// when no estimation ran.
func (e *Estimator) Resolve(l listing.Listing, s Set, explicit analysis.Estimates) (analysis.Estimates, *Result) {
	if e == nil || l.City == "" {
		return explicit, nil
	}

	r := e.Estimate(l, s)
	est := r.Estimates()
	if explicit.Rent != nil {
		est.Rent = explicit.Rent
	}
	if explicit.ARV != nil {
		est.ARV = explicit.ARV
	}
	return est, &r
}

// referenceYear is the year property ages are measured from.
func (e *Estimator) referenceYear() int {
	if e.cfg.AsOfYear > 0 {
		return e.cfg.AsOfYear
	}
	return e.now().Year()
}

// confidence grades n usable comps against the configured thresholds.
func (e *Estimator) confidence(n int) Confidence {
	switch {
	case n == 0:
		return ConfidenceLow
	case n >= e.cfg.MinCompsForHighConfidence:
		return ConfidenceHigh
	case n >= e.cfg.MinCompsForMediumConfidence:
		return ConfidenceMedium
	}
	return ConfidenceLow
}

// sameCity reports whether two city names match. An empty name matches anything.
func sameCity(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// bedsInRange reports whether beds is within tol of the subject's bedroom
// count, never going below one bedroom. An unknown subject count matches all.
func bedsInRange(subject, beds, tol int) bool {
	if subject <= 0 {
		return true
	}
	return beds >= max(1, subject-tol) && beds <= subject+tol
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := slices.Clone(xs)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
