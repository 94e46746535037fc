package comps

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/evcraddock/listingiq/internal/analysis"
	"github.com/evcraddock/listingiq/internal/config"
	"github.com/evcraddock/listingiq/internal/listing"
)

func testEstimator() *Estimator {
	cfg := config.Defaults().Analysis.Comps
	cfg.AsOfYear = 2026
	return NewEstimator(cfg)
}

func subject(mutate ...func(*listing.Listing)) listing.Listing {
	l := listing.Listing{
		Address:      "100 Investor Blvd",
		City:         "Austin",
		State:        "TX",
		Price:        200_000,
		Beds:         3,
		Baths:        2,
		Sqft:         1400,
		PropertyType: listing.PropertyTypeSingleFamily,
	}
	for _, m := range mutate {
		m(&l)
	}
	return l
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestFormulaRent(t *testing.T) {
	e := testEstimator()

	tests := []struct {
		name string
		l    listing.Listing
		want float64
	}{
		{"medium market", subject(), 1683.5},
		{"low market", subject(func(l *listing.Listing) { l.City = "Memphis" }), 1199.45},
		{"high market is case insensitive", subject(func(l *listing.Listing) { l.City = " San Francisco" }), 1400*1.10*1.6*0.65 + 2700*0.35},
		{"beds only", subject(func(l *listing.Listing) { l.Sqft = 0 }), 1950},
		{"sqft only", subject(func(l *listing.Listing) { l.Beds = 0 }), 1540},
		{"price fallback", subject(func(l *listing.Listing) { l.Sqft, l.Beds, l.City = 0, 0, "" }), 1600},
		{"condo rate", subject(func(l *listing.Listing) { l.Beds, l.PropertyType = 0, listing.PropertyTypeCondo }), 1680},
		{"over 30 years", subject(func(l *listing.Listing) { l.YearBuilt = 1990 }), 1683.5 * 0.95},
		{"over 50 years", subject(func(l *listing.Listing) { l.YearBuilt = 1950 }), 1683.5 * 0.90},
		{"new build", subject(func(l *listing.Listing) { l.YearBuilt = 2020 }), 1683.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.FormulaRent(tt.l); !approx(got, tt.want) {
				t.Errorf("FormulaRent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRentConfidence(t *testing.T) {
	e := testEstimator()
	same := func(rent float64) RentalComp {
		return RentalComp{Address: "comp", MonthlyRent: rent, Beds: 3, Baths: 2, Sqft: 1400}
	}

	tests := []struct {
		name     string
		comps    []RentalComp
		want     float64
		wantConf Confidence
		wantUsed int
	}{
		{"no comps", nil, 1683.5, ConfidenceLow, 0},
		{"one comp blends", []RentalComp{same(1500)}, 1500*0.7 + 1683.5*0.3, ConfidenceMedium, 1},
		{"three comps", []RentalComp{same(1500), same(1600), same(1700)}, 1600, ConfidenceMedium, 3},
		{"five comps", []RentalComp{same(1500), same(1600), same(1700), same(1800), same(1900)}, 1700, ConfidenceHigh, 5},
		{"even count averages middle", []RentalComp{same(1500), same(1600), same(1700), same(1800)}, 1650, ConfidenceMedium, 4},
		{
			"outliers and mismatches dropped",
			[]RentalComp{
				same(1500), same(1600), same(1700),
				same(0), same(12_000),
				{MonthlyRent: 1400, Beds: 5, Sqft: 1400},
				{MonthlyRent: 1400, Beds: 3, Sqft: 1400, City: "Dallas"},
			},
			1600, ConfidenceMedium, 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Rent(subject(), tt.comps)
			if !approx(got.Value, tt.want) {
				t.Errorf("value = %v, want %v", got.Value, tt.want)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %q, want %q", got.Confidence, tt.wantConf)
			}
			if got.CompsUsed != tt.wantUsed {
				t.Errorf("comps used = %d, want %d", got.CompsUsed, tt.wantUsed)
			}
		})
	}
}

func TestMedianRentAdjustments(t *testing.T) {
	comp := []RentalComp{{MonthlyRent: 1500, Beds: 3, Sqft: 1400}}

	bigger := medianRent(subject(func(l *listing.Listing) { l.Sqft = 2100 }), comp)
	// ratio 1.5, dampened to +25%
	if !approx(bigger, 1875) {
		t.Errorf("larger subject rent = %v, want 1875", bigger)
	}

	moreBeds := medianRent(subject(func(l *listing.Listing) { l.Beds = 4 }), comp)
	if !approx(moreBeds, 1575) {
		t.Errorf("extra bedroom rent = %v, want 1575", moreBeds)
	}
}

func TestRentalMaxComps(t *testing.T) {
	e := testEstimator()
	e.cfg.RentalMaxComps = 2

	comps := []RentalComp{
		{MonthlyRent: 1000, Beds: 3},
		{MonthlyRent: 1200, Beds: 3},
		{MonthlyRent: 5000, Beds: 3},
	}
	got := e.Rent(subject(func(l *listing.Listing) { l.Sqft = 0 }), comps)
	if got.CompsUsed != 2 {
		t.Errorf("comps used = %d, want 2", got.CompsUsed)
	}
}

func TestFormulaARV(t *testing.T) {
	e := testEstimator()

	tests := []struct {
		year int
		want float64
	}{
		{0, 260_000},
		{1970, 280_000},
		{1990, 260_000},
		{2010, 240_000},
		{2020, 220_000},
	}
	for _, tt := range tests {
		l := subject(func(l *listing.Listing) { l.YearBuilt = tt.year })
		if got := e.FormulaARV(l); !approx(got, tt.want) {
			t.Errorf("FormulaARV(year %d) = %v, want %v", tt.year, got, tt.want)
		}
	}
}

func TestARV(t *testing.T) {
	e := testEstimator()
	comp := func(price, ppsf float64, sqft, beds int, baths float64) SalesComp {
		return SalesComp{Address: "comp", SoldPrice: price, PricePerSqft: ppsf, Sqft: sqft, Beds: beds, Baths: baths}
	}
	three := []SalesComp{
		comp(280_000, 200, 1400, 3, 2),
		comp(294_000, 210, 1400, 3, 2),
		comp(266_000, 190, 1400, 3, 2),
	}

	tests := []struct {
		name     string
		l        listing.Listing
		comps    []SalesComp
		want     float64
		wantConf Confidence
	}{
		{"no comps", subject(func(l *listing.Listing) { l.YearBuilt = 1990 }), nil, 260_000, ConfidenceLow},
		{"median price per sqft", subject(), three, 280_000, ConfidenceMedium},
		{
			"one comp blends with formula",
			subject(func(l *listing.Listing) { l.YearBuilt = 1990 }),
			three[:1], 280_000*0.6 + 260_000*0.4, ConfidenceLow,
		},
		{"extra bedroom", subject(func(l *listing.Listing) { l.Beds = 4 }), three, 280_000 * 1.06, ConfidenceMedium},
		{"extra bathroom", subject(func(l *listing.Listing) { l.Baths = 3 }), three, 280_000 * 1.03, ConfidenceMedium},
		{
			"no subject size uses sold prices",
			subject(func(l *listing.Listing) { l.Sqft = 0 }),
			[]SalesComp{comp(280_000, 0, 0, 3, 2), comp(300_000, 0, 0, 3, 2), comp(290_000, 0, 0, 3, 2)},
			290_000, ConfidenceMedium,
		},
		{
			"price per sqft derived from sold price",
			subject(),
			[]SalesComp{comp(280_000, 0, 1400, 3, 2), comp(294_000, 0, 1400, 3, 2), comp(266_000, 0, 1400, 3, 2)},
			280_000, ConfidenceMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ARV(tt.l, tt.comps)
			if !approx(got.Value, tt.want) {
				t.Errorf("value = %v, want %v", got.Value, tt.want)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %q, want %q", got.Confidence, tt.wantConf)
			}
		})
	}
}

func TestFilterSales(t *testing.T) {
	e := testEstimator()
	e.cfg.SalesMaxComps = 2

	comps := []SalesComp{
		{Address: "far", SoldPrice: 300_000, Sqft: 2000, Beds: 3},
		{Address: "1500", SoldPrice: 300_000, Sqft: 1500, Beds: 3},
		{Address: "exact", SoldPrice: 280_000, Sqft: 1400, Beds: 3},
		{Address: "1420", SoldPrice: 284_000, Sqft: 1420, Beds: 4},
		{Address: "studio", SoldPrice: 280_000, Sqft: 1400, Beds: 1},
		{Address: "unsold", SoldPrice: 0, Sqft: 1400, Beds: 3},
	}

	got := e.filterSales(subject(), comps)
	if len(got) != 2 {
		t.Fatalf("got %d comps, want 2", len(got))
	}
	if got[0].Address != "exact" || got[1].Address != "1420" {
		t.Errorf("order = %s, %s; want exact, 1420", got[0].Address, got[1].Address)
	}
	if got[0].PricePerSqft != 200 {
		t.Errorf("derived price per sqft = %v, want 200", got[0].PricePerSqft)
	}
}

func TestResultEstimates(t *testing.T) {
	r := Result{
		Rent: Estimate{Value: 1500, Confidence: ConfidenceLow},
		ARV:  Estimate{Value: 250_000, Confidence: ConfidenceHigh},
	}
	est := r.Estimates()
	if est.Rent == nil || *est.Rent != 1500 {
		t.Errorf("rent = %v, want 1500", est.Rent)
	}
	if est.ARV == nil || *est.ARV != 250_000 {
		t.Errorf("arv = %v, want 250000", est.ARV)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comps.yaml")
	content := `rental_comps:
  - address: 1 Rent Rd
    monthly_rent: 1450
    beds: 3
    baths: 1
    sqft: 1300
sales_comps:
  - address: 2 Sold St
    sold_price: 275000
    sold_date: "2026-05-01"
    beds: 3
    baths: 2
    sqft: 1450
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Rental) != 1 || s.Rental[0].MonthlyRent != 1450 {
		t.Errorf("rental = %+v", s.Rental)
	}
	if len(s.Sales) != 1 || s.Sales[0].SoldPrice != 275_000 || s.Sales[0].SoldDate != "2026-05-01" {
		t.Errorf("sales = %+v", s.Sales)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	e := testEstimator()
	l := subject()

	t.Run("disabled", func(t *testing.T) {
		var off *Estimator
		est, res := off.Resolve(l, Set{}, analysis.Estimates{})
		if res != nil || est.Rent != nil || est.ARV != nil {
			t.Errorf("expected no estimates, got %+v %+v", est, res)
		}
	})

	t.Run("no city", func(t *testing.T) {
		noCity := subject(func(l *listing.Listing) { l.City = "" })
		if _, res := e.Resolve(noCity, Set{}, analysis.Estimates{}); res != nil {
			t.Errorf("expected no comp result, got %+v", res)
		}
	})

	t.Run("formula estimates", func(t *testing.T) {
		est, res := e.Resolve(l, Set{}, analysis.Estimates{})
		if res == nil {
			t.Fatal("expected comp result")
		}
		if est.Rent == nil || !approx(*est.Rent, 1683.5) {
			t.Errorf("rent = %v, want 1683.5", est.Rent)
		}
		if est.ARV == nil || !approx(*est.ARV, 260_000) {
			t.Errorf("arv = %v, want 260000", est.ARV)
		}
	})

	t.Run("explicit wins", func(t *testing.T) {
		est, _ := e.Resolve(l, Set{}, analysis.Estimates{Rent: analysis.Float(2000)})
		if est.Rent == nil || *est.Rent != 2000 {
			t.Errorf("rent = %v, want 2000", est.Rent)
		}
		if est.ARV == nil || !approx(*est.ARV, 260_000) {
			t.Errorf("arv = %v, want 260000", est.ARV)
		}
	})
}
