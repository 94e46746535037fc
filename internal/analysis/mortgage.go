package analysis

import "math"

// MonthlyPayment returns the fixed-rate amortized monthly payment on
// principal at annualRate (0.07 means 7%) over years. It returns 0 when
// principal or annualRate is not positive.
func MonthlyPayment(principal, annualRate float64, years int) float64 {
	if principal <= 0 || annualRate <= 0 || years <= 0 {
		return 0
	}
	r := annualRate / 12
	n := float64(years * 12)
	f := math.Pow(1+r, n)
	return principal * r * f / (f - 1)
}
