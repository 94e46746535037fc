// Package money provides currency rounding and display helpers.
package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands the way US listings display prices.
var printer = message.NewPrinter(language.English)

// Round rounds v to the given number of decimal places, half away from zero.
// Infinities and NaN are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Cents rounds a currency amount to 2 decimal places.
func Cents(v float64) float64 {
	return Round(v, 2)
}

// Format renders a dollar amount as whole dollars with thousands separators,
// e.g. 1234567.8 -> "1,234,568". Negative amounts keep their sign.
func Format(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}
	return printer.Sprintf("%d", int64(Round(v, 0)))
}

// Percent renders a ×100 percentage with one decimal place.
func Percent(v float64) string {
	if math.IsInf(v, 1) {
		return "∞%"
	}
	return fmt.Sprintf("%.1f%%", v)
}
