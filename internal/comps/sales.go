package comps

import (
	"math"
	"sort"

	"github.com/evcraddock/listingiq/internal/listing"
	"github.com/evcraddock/listingiq/internal/money"
)

const (
	arvPerBedAdjustment  = 0.06
	arvPerBathAdjustment = 0.03
	arvCompWeight        = 0.6
)

// ARV estimates the after-repair value of l.
//
// With enough comps the estimate is the median comp $/sqft applied to the
// subject, adjusted for bedroom and bathroom differences. With a few comps
// that value is blended with the formula ARV and graded low.
func (e *Estimator) ARV(l listing.Listing, comps []SalesComp) Estimate {
	usable := e.filterSales(l, comps)
	n := len(usable)

	var arv float64
	switch {
	case n == 0:
		arv = e.FormulaARV(l)
	case n >= e.cfg.MinCompsForMediumConfidence:
		arv = compARV(l, usable)
	default:
		arv = compARV(l, usable)*arvCompWeight + e.FormulaARV(l)*(1-arvCompWeight)
	}

	return Estimate{Value: money.Round(arv, 2), Confidence: e.confidence(n), CompsUsed: n}
}

// filterSales keeps comps close in size and bedrooms to l, closest size first.
func (e *Estimator) filterSales(l listing.Listing, comps []SalesComp) []SalesComp {
	var out []SalesComp
	for _, c := range comps {
		if c.SoldPrice <= 0 {
			continue
		}
		if l.Sqft > 0 && c.Sqft > 0 {
			diff := math.Abs(float64(c.Sqft-l.Sqft)) / float64(l.Sqft)
			if diff > e.cfg.SalesSqftTolerance {
				continue
			}
		}
		if !bedsInRange(l.Beds, c.Beds, e.cfg.SalesBedsTolerance) || !sameCity(l.City, c.City) {
			continue
		}
		if c.PricePerSqft <= 0 && c.Sqft > 0 {
			c.PricePerSqft = money.Round(c.SoldPrice/float64(c.Sqft), 2)
		}
		out = append(out, c)
	}

	if l.Sqft > 0 {
		distance := func(c SalesComp) float64 {
			if c.Sqft <= 0 {
				return math.Inf(1)
			}
			return math.Abs(float64(c.Sqft - l.Sqft))
		}
		sort.SliceStable(out, func(i, j int) bool { return distance(out[i]) < distance(out[j]) })
	}

	if e.cfg.SalesMaxComps > 0 && len(out) > e.cfg.SalesMaxComps {
		out = out[:e.cfg.SalesMaxComps]
	}
	return out
}

// compARV prices the subject off comps by median $/sqft when size is known,
// otherwise by median sold price.
func compARV(l listing.Listing, comps []SalesComp) float64 {
	var ppsf, beds, baths []float64
	for _, c := range comps {
		if c.PricePerSqft > 0 {
			ppsf = append(ppsf, c.PricePerSqft)
			beds = append(beds, float64(c.Beds))
			baths = append(baths, c.Baths)
		}
	}

	if len(ppsf) > 0 && l.Sqft > 0 {
		arv := median(ppsf) * float64(l.Sqft)
		arv *= 1 + (float64(l.Beds)-median(beds))*arvPerBedAdjustment
		arv *= 1 + (l.Baths-median(baths))*arvPerBathAdjustment
		return arv
	}

	prices := make([]float64, 0, len(comps))
	for _, c := range comps {
		prices = append(prices, c.SoldPrice)
	}
	return median(prices)
}

// FormulaARV estimates ARV as a multiple of the asking price. Older
// buildings get a larger multiple since a rehab adds more to them.
func (e *Estimator) FormulaARV(l listing.Listing) float64 {
	multiplier := 1.30
	if l.YearBuilt > 0 {
		switch age := e.referenceYear() - l.YearBuilt; {
		case age > 40:
			multiplier = 1.40
		case age > 20:
			multiplier = 1.30
		case age > 10:
			multiplier = 1.20
		default:
			multiplier = 1.10
		}
	}
	return l.Price * multiplier
}
