package listing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Normalize maps a raw source payload into a Listing. Sources disagree on
// key names and nesting, so each field is tried under several aliases, first
// inside a nested "description" object and then at the top level. A wrapping
// "data" object is unwrapped first. Payloads that are not strict JSON are
// repaired before decoding.
func Normalize(source string, raw []byte) (Listing, error) {
	data, err := decodeObject(raw)
	if err != nil {
		return Listing{}, fmt.Errorf("decoding listing payload: %w", err)
	}
	return normalizeObject(source, data)
}

func normalizeObject(source string, data map[string]json.RawMessage) (Listing, error) {
	if nested, ok := data["data"]; ok {
		var m map[string]json.RawMessage
		if err := json.Unmarshal(nested, &m); err == nil {
			data = m
		}
	}

	desc := jsonObject(data, "description")

	l := Listing{Source: source}
	l.SourceID = jsonString(data, "source_id", "property_id", "zpid", "mpr_id", "id")
	l.URL = jsonString(data, "url", "detailUrl", "href", "permalink")
	l.Price = jsonFloat64(data, "list_price", "unformattedPrice", "price")
	if l.Price == 0 && desc != nil {
		l.Price = jsonFloat64(desc, "list_price", "price")
	}
	l.Status = normalizeStatus(jsonString(data, "prop_status", "statusType", "status"))
	l.DaysOnMarket = int(jsonFloat64(data, "days_on_market", "list_date_diff", "dom"))
	l.HOAMonthly = jsonFloat64(data, "hoa_monthly", "hoa_fee", "hoa")
	l.TaxAnnual = jsonFloat64(data, "tax_annual", "annual_tax", "tax")
	if l.TaxAnnual == 0 {
		if rec := jsonObject(data, "tax_record"); rec != nil {
			l.TaxAnnual = jsonFloat64(rec, "public_record_amount")
		}
	}

	if loc := jsonObject(data, "location"); loc != nil {
		if addr := jsonObject(loc, "address"); addr != nil {
			loc = addr
		}
		l.Address = jsonString(loc, "address", "line", "street")
		l.City = jsonString(loc, "city")
		l.State = jsonString(loc, "state_code", "state")
		l.ZipCode = jsonString(loc, "postal_code", "zip_code", "zip")
	}
	if l.Address == "" {
		l.Address = jsonString(data, "address", "addressStreet", "street_line", "line")
	}
	if l.City == "" {
		l.City = jsonString(data, "city", "addressCity")
	}
	if l.State == "" {
		l.State = jsonString(data, "state", "state_code", "addressState")
	}
	if l.ZipCode == "" {
		l.ZipCode = jsonString(data, "zip_code", "postal_code", "addressZipcode", "zip")
	}

	for _, m := range []map[string]json.RawMessage{desc, data} {
		if m == nil {
			continue
		}
		if l.Beds == 0 {
			l.Beds = int(jsonFloat64(m, "beds", "bedrooms"))
		}
		if l.Baths == 0 {
			l.Baths = jsonFloat64(m, "baths", "bathrooms", "baths_consolidated")
		}
		if l.Sqft == 0 {
			l.Sqft = int(jsonFloat64(m, "sqft", "building_size", "living_area", "area"))
		}
		if l.LotSqft == 0 {
			l.LotSqft = int(jsonFloat64(m, "lot_sqft", "lot_size"))
		}
		if l.YearBuilt == 0 {
			l.YearBuilt = int(jsonFloat64(m, "year_built"))
		}
		if l.PropertyType == "" {
			l.PropertyType = normalizePropertyType(jsonString(m, "type", "prop_type", "property_type", "homeType"))
		}
	}
	if desc != nil {
		l.Description = jsonString(desc, "text")
	} else {
		l.Description = jsonString(data, "description")
	}

	l.ApplyDefaults()
	if err := l.Validate(); err != nil {
		return Listing{}, fmt.Errorf("normalizing %s listing %q: %w", source, l.SourceID, err)
	}
	return l, nil
}

// normalizePropertyType maps source-specific type labels to a PropertyType.
// Unknown labels fall back to single family.
func normalizePropertyType(s string) PropertyType {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return ""
	case "single_family", "single family", "single family residential", "house", "sfr":
		return PropertyTypeSingleFamily
	case "multi_family", "multi family", "multi-family", "duplex", "triplex", "fourplex":
		return PropertyTypeMultiFamily
	case "condo", "condos", "condominium", "apartment":
		return PropertyTypeCondo
	case "townhouse", "townhome", "townhomes", "row_house":
		return PropertyTypeTownhouse
	}
	return PropertyTypeSingleFamily
}

// normalizeStatus maps source-specific status labels to a Status. Unknown
// labels are treated as active.
func normalizeStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return ""
	case "pending", "under_contract":
		return StatusPending
	case "contingent":
		return StatusContingent
	case "sold", "recently_sold", "closed":
		return StatusSold
	}
	return StatusActive
}

// jsonFloat64 tries multiple keys and returns the first numeric value, or 0.
// Strings such as "$250,000" are accepted.
func jsonFloat64(data map[string]json.RawMessage, keys ...string) float64 {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err == nil {
			return v
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if f, ok := parseNumber(s); ok {
				return f
			}
		}
	}
	return 0
}

// parseNumber strips currency symbols, separators and units before parsing.
func parseNumber(s string) (float64, bool) {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// jsonString tries multiple keys and returns the first non-empty string value.
func jsonString(data map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := data[key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err == nil && v != "" {
			return v
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n != "" {
			return n.String()
		}
	}
	return ""
}

// jsonObject returns the object under key, or nil.
func jsonObject(data map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := data[key]
	if !ok {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
