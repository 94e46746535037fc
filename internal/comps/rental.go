package comps

import (
	"strings"

	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

// maxRentalRent drops luxury and mislabeled listings from the comp pool.
const maxRentalRent = 10_000

// marketTier buckets cities by rental cost.
type marketTier int

const (
	tierMedium marketTier = iota
	tierHigh
	tierLow
)

var highCostMarkets = map[string]bool{
	"san francisco": true, "new york": true, "los angeles": true, "seattle": true, "boston": true,
	"san diego": true, "san jose": true, "washington": true, "miami": true,
}

var lowCostMarkets = map[string]bool{
	"memphis": true, "cleveland": true, "indianapolis": true, "birmingham": true, "detroit": true,
	"st louis": true, "kansas city": true, "columbus": true, "jacksonville": true, "san antonio": true,
}

func tierFor(city string) marketTier {
	c := strings.ToLower(strings.TrimSpace(city))
	switch {
	case highCostMarkets[c]:
		return tierHigh
	case lowCostMarkets[c]:
		return tierLow
	}
	return tierMedium
}

// Per-tier rent multiplier on $/sqft, and monthly rent per bedroom.
var (
	tierRentMultiplier = map[marketTier]float64{tierHigh: 1.6, tierMedium: 1.0, tierLow: 0.7}
	tierRentPerBed     = map[marketTier]float64{tierHigh: 900, tierMedium: 650, tierLow: 475}
)

const (
	rentPerBedAdjustment = 75
	rentSqftDampening    = 0.5
	rentCompWeight       = 0.7
	rentSqftWeight       = 0.65
	rentPriceFallbackPct = 0.008
)

// Rent estimates monthly market rent for l.
//
// With enough comps the estimate is the median size- and bedroom-adjusted
// comp rent. With a few comps that median is blended with the formula rent.
// With none it is the formula rent alone.
func (e *Estimator) Rent(l listing.Listing, comps []RentalComp) Estimate {
	usable := e.filterRentals(l, comps)
	n := len(usable)

	var rent float64
	conf := e.confidence(n)
	switch {
	case n == 0:
		rent = e.FormulaRent(l)
	case n >= e.cfg.MinCompsForMediumConfidence:
		rent = medianRent(l, usable)
	default:
		rent = medianRent(l, usable)*rentCompWeight + e.FormulaRent(l)*(1-rentCompWeight)
		conf = ConfidenceMedium
	}

	return Estimate{Value: money.Round(rent, 2), Confidence: conf, CompsUsed: n}
}

func (e *Estimator) filterRentals(l listing.Listing, comps []RentalComp) []RentalComp {
	var out []RentalComp
	for _, c := range comps {
		if c.MonthlyRent <= 0 || c.MonthlyRent > maxRentalRent {
			continue
		}
		if !bedsInRange(l.Beds, c.Beds, e.cfg.RentalBedsTolerance) || !sameCity(l.City, c.City) {
			continue
		}
		out = append(out, c)
		if e.cfg.RentalMaxComps > 0 && len(out) == e.cfg.RentalMaxComps {
			break
		}
	}
	return out
}

// medianRent adjusts each comp's rent toward the subject and returns the median.
func medianRent(l listing.Listing, comps []RentalComp) float64 {
	rents := make([]float64, 0, len(comps))
	for _, c := range comps {
		rent := c.MonthlyRent
		if c.Sqft > 0 && l.Sqft > 0 {
			ratio := float64(l.Sqft) / float64(c.Sqft)
			rent *= 1 + (ratio-1)*rentSqftDampening
		}
		rent += float64(l.Beds-c.Beds) * rentPerBedAdjustment
		rents = append(rents, rent)
	}
	return median(rents)
}

// FormulaRent estimates rent from the property alone: a blend of a
// $/sqft rate for the property type and a per-bedroom rate, both scaled to
// the city's market tier, discounted for older buildings. When neither size
// nor bedrooms are known it is 0.8% of the asking price.
func (e *Estimator) FormulaRent(l listing.Listing) float64 {
	tier := tierFor(l.City)

	var sqftRent float64
	if l.Sqft > 0 {
		sqftRent = float64(l.Sqft) * e.rentPerSqft(l.PropertyType) * tierRentMultiplier[tier]
	}
	var bedRent float64
	if l.Beds > 0 {
		bedRent = float64(l.Beds) * tierRentPerBed[tier]
	}

	var rent float64
	switch {
	case sqftRent > 0 && bedRent > 0:
		rent = sqftRent*rentSqftWeight + bedRent*(1-rentSqftWeight)
	case sqftRent > 0:
		rent = sqftRent
	case bedRent > 0:
		rent = bedRent
	default:
		rent = l.Price * rentPriceFallbackPct
	}

	if l.YearBuilt > 0 {
		switch age := e.referenceYear() - l.YearBuilt; {
		case age > 50:
			rent *= 0.90
		case age > 30:
			rent *= 0.95
		}
	}

	return max(rent, 0)
}

func (e *Estimator) rentPerSqft(t listing.PropertyType) float64 {
	switch t {
	case listing.PropertyTypeMultiFamily:
		return e.cfg.RentPerSqftMultiFamily
	case listing.PropertyTypeCondo:
		return e.cfg.RentPerSqftCondo
	case listing.PropertyTypeTownhouse:
		return e.cfg.RentPerSqftTownhouse
	case listing.PropertyTypeSingleFamily:
		return e.cfg.RentPerSqftSingleFamily
	}
	return 1.10
}
