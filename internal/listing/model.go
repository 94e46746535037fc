// Package listing provides the property listing model and data access.
package listing

import (
	"fmt"
	"strings"
	"time"
)

// PropertyType is the kind of residential property being sold.
type PropertyType string

const (
	PropertyTypeSingleFamily PropertyType = "single_family"
	PropertyTypeMultiFamily  PropertyType = "multi_family"
	PropertyTypeCondo        PropertyType = "condo"
	PropertyTypeTownhouse    PropertyType = "townhouse"
)

// ValidPropertyType returns true if s is a known property type.
func ValidPropertyType(s string) bool {
	switch PropertyType(s) {
	case PropertyTypeSingleFamily, PropertyTypeMultiFamily, PropertyTypeCondo, PropertyTypeTownhouse:
		return true
	}
	return false
}

// Status is where a listing is in the sale process.
type Status string

const (
	StatusActive     Status = "active"
	StatusPending    Status = "pending"
	StatusSold       Status = "sold"
	StatusContingent Status = "contingent"
)

// ValidStatus returns true if s is a known listing status.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusActive, StatusPending, StatusSold, StatusContingent:
		return true
	}
	return false
}

// Listing is a property for sale as reported by a listing source.
// Zero values for Beds, Baths, Sqft and YearBuilt mean "unknown".
type Listing struct {
	Source       string       `json:"source" yaml:"source"`
	SourceID     string       `json:"source_id" yaml:"source_id"`
	URL          string       `json:"url,omitempty" yaml:"url,omitempty"`
	Address      string       `json:"address" yaml:"address"`
	City         string       `json:"city" yaml:"city"`
	State        string       `json:"state" yaml:"state"`
	ZipCode      string       `json:"zip_code" yaml:"zip_code"`
	Price        float64      `json:"price" yaml:"price"`
	Beds         int          `json:"beds" yaml:"beds"`
	Baths        float64      `json:"baths" yaml:"baths"`
	Sqft         int          `json:"sqft" yaml:"sqft"`
	LotSqft      int          `json:"lot_sqft" yaml:"lot_sqft"`
	YearBuilt    int          `json:"year_built" yaml:"year_built"`
	PropertyType PropertyType `json:"property_type" yaml:"property_type"`
	Status       Status       `json:"status" yaml:"status"`
	DaysOnMarket int          `json:"days_on_market" yaml:"days_on_market"`
	HOAMonthly   float64      `json:"hoa_monthly" yaml:"hoa_monthly"`
	TaxAnnual    float64      `json:"tax_annual" yaml:"tax_annual"`
	Description  string       `json:"description,omitempty" yaml:"description,omitempty"`
	ScrapedAt    time.Time    `json:"scraped_at,omitempty" yaml:"scraped_at,omitempty"`
}

// FullAddress returns "address, city, state zip".
func (l Listing) FullAddress() string {
	return fmt.Sprintf("%s, %s, %s %s", l.Address, l.City, l.State, l.ZipCode)
}

// PricePerSqft returns the asking price per square foot, or 0 when sqft is unknown.
func (l Listing) PricePerSqft() float64 {
	if l.Sqft > 0 {
		return l.Price / float64(l.Sqft)
	}
	return 0
}

// WithPrice returns a copy of the listing with its price replaced.
func (l Listing) WithPrice(price float64) Listing {
	l.Price = price
	return l
}

// WithIdentity returns a copy of the listing with a source and source ID,
// deriving them for hand-entered listings: source "manual" and the
// lower-cased full address.
func (l Listing) WithIdentity() Listing {
	if l.Source == "" {
		l.Source = "manual"
	}
	if l.SourceID == "" {
		l.SourceID = strings.ToLower(l.FullAddress())
	}
	return l
}

// ApplyDefaults fills in the property type and status when a source left them empty.
func (l *Listing) ApplyDefaults() {
	if l.PropertyType == "" {
		l.PropertyType = PropertyTypeSingleFamily
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
}

// Validate checks the fields a listing source must supply.
func (l Listing) Validate() error {
	if l.Price <= 0 {
		return fmt.Errorf("price must be positive, got %v", l.Price)
	}
	if l.Beds < 0 || l.Baths < 0 || l.Sqft < 0 || l.LotSqft < 0 {
		return fmt.Errorf("beds, baths, sqft and lot_sqft must be non-negative")
	}
	if l.TaxAnnual < 0 || l.HOAMonthly < 0 {
		return fmt.Errorf("tax_annual and hoa_monthly must be non-negative")
	}
	if l.PropertyType != "" && !ValidPropertyType(string(l.PropertyType)) {
		return fmt.Errorf("invalid property type: %s", l.PropertyType)
	}
	if l.Status != "" && !ValidStatus(string(l.Status)) {
		return fmt.Errorf("invalid status: %s", l.Status)
	}
	return nil
}
