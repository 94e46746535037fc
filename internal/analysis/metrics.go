package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Metrics is a strategy's results flattened to name -> value. Currency values
// are rounded to cents and percentages are ×100 (8.5 means 8.5%). Unbounded
// ratios are +Inf.
type Metrics map[string]float64

// Get returns the named metric, or 0 when it is missing.
func (m Metrics) Get(name string) float64 {
	return m[name]
}

// Names returns the metric names in sorted order.
func (m Metrics) Names() []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// JSON spellings of +Inf and -Inf, which encoding/json rejects as numbers.
const (
	posInfinity = "Infinity"
	negInfinity = "-Infinity"
)

// MarshalJSON encodes infinite values as the strings "Infinity" and "-Infinity".
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch {
		case math.IsInf(v, 1):
			out[k] = posInfinity
		case math.IsInf(v, -1):
			out[k] = negInfinity
		case math.IsNaN(v):
			return nil, fmt.Errorf("metric %s is NaN", k)
		default:
			out[k] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts numbers and the strings written by MarshalJSON.
func (m *Metrics) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Metrics, len(raw))
	for k, v := range raw {
		switch x := v.(type) {
		case float64:
			out[k] = x
		case string:
			switch x {
			case posInfinity:
				out[k] = math.Inf(1)
			case negInfinity:
				out[k] = math.Inf(-1)
			default:
				return fmt.Errorf("metric %s: unexpected value %q", k, x)
			}
		default:
			return fmt.Errorf("metric %s: unexpected type %T", k, v)
		}
	}
	*m = out
	return nil
}

// Metric names shared by several strategies.
const (
	MetricPurchasePrice       = "purchase_price"
	MetricEstimatedARV        = "estimated_arv"
	MetricRehabCost           = "rehab_cost"
	MetricHoldingCosts        = "holding_costs"
	MetricMonthlyRentEstimate = "monthly_rent_estimate"
	MetricMonthlyExpenses     = "monthly_expenses"
	MetricMonthlyCashFlow     = "monthly_cash_flow"
	MetricAnnualCashFlow      = "annual_cash_flow"
	MetricCashOnCashReturn    = "cash_on_cash_return"
)

// BRRR-only metric names.
const (
	MetricTotalInvestment = "total_investment"
	MetricRefinanceAmount = "refinance_amount"
	MetricCashLeftInDeal  = "cash_left_in_deal"
	MetricEquityCaptured  = "equity_captured"
)

// Cash-flow-only metric names.
const (
	MetricDownPayment     = "down_payment"
	MetricLoanAmount      = "loan_amount"
	MetricMonthlyMortgage = "monthly_mortgage"
	MetricEffectiveRent   = "effective_rent"
	MetricCapRate         = "cap_rate"
	MetricNOI             = "noi"
	MetricDSCR            = "dscr"
	MetricGRM             = "grm"
)

// Flip-only metric names.
const (
	MetricSellingCosts    = "selling_costs"
	MetricTotalCost       = "total_cost"
	MetricEstimatedProfit = "estimated_profit"
	MetricROI             = "roi"
	MetricProfitPerMonth  = "profit_per_month"
)

// BRRRMetrics are the results of a buy-rehab-rent-refinance analysis.
type BRRRMetrics struct {
	PurchasePrice       float64
	EstimatedARV        float64
	RehabCost           float64
	TotalInvestment     float64
	HoldingCosts        float64
	RefinanceAmount     float64
	CashLeftInDeal      float64
	MonthlyRentEstimate float64
	MonthlyExpenses     float64
	MonthlyCashFlow     float64
	AnnualCashFlow      float64
	CashOnCashReturn    float64
	EquityCaptured      float64
}

// Metrics flattens m.
func (m BRRRMetrics) Metrics() Metrics {
	return Metrics{
		MetricPurchasePrice:       m.PurchasePrice,
		MetricEstimatedARV:        m.EstimatedARV,
		MetricRehabCost:           m.RehabCost,
		MetricTotalInvestment:     m.TotalInvestment,
		MetricHoldingCosts:        m.HoldingCosts,
		MetricRefinanceAmount:     m.RefinanceAmount,
		MetricCashLeftInDeal:      m.CashLeftInDeal,
		MetricMonthlyRentEstimate: m.MonthlyRentEstimate,
		MetricMonthlyExpenses:     m.MonthlyExpenses,
		MetricMonthlyCashFlow:     m.MonthlyCashFlow,
		MetricAnnualCashFlow:      m.AnnualCashFlow,
		MetricCashOnCashReturn:    m.CashOnCashReturn,
		MetricEquityCaptured:      m.EquityCaptured,
	}
}

// BRRRMetricsFrom rebuilds BRRRMetrics from flattened metrics. Missing names are 0.
func BRRRMetricsFrom(m Metrics) BRRRMetrics {
	return BRRRMetrics{
		PurchasePrice:       m[MetricPurchasePrice],
		EstimatedARV:        m[MetricEstimatedARV],
		RehabCost:           m[MetricRehabCost],
		TotalInvestment:     m[MetricTotalInvestment],
		HoldingCosts:        m[MetricHoldingCosts],
		RefinanceAmount:     m[MetricRefinanceAmount],
		CashLeftInDeal:      m[MetricCashLeftInDeal],
		MonthlyRentEstimate: m[MetricMonthlyRentEstimate],
		MonthlyExpenses:     m[MetricMonthlyExpenses],
		MonthlyCashFlow:     m[MetricMonthlyCashFlow],
		AnnualCashFlow:      m[MetricAnnualCashFlow],
		CashOnCashReturn:    m[MetricCashOnCashReturn],
		EquityCaptured:      m[MetricEquityCaptured],
	}
}

// CashFlowMetrics are the results of a buy-and-hold rental analysis.
type CashFlowMetrics struct {
	PurchasePrice       float64
	DownPayment         float64
	LoanAmount          float64
	MonthlyMortgage     float64
	MonthlyRentEstimate float64
	EffectiveRent       float64
	MonthlyExpenses     float64
	MonthlyCashFlow     float64
	AnnualCashFlow      float64
	CapRate             float64
	CashOnCashReturn    float64
	NOI                 float64
	DSCR                float64
	GRM                 float64
}

// Metrics flattens m.
func (m CashFlowMetrics) Metrics() Metrics {
	return Metrics{
		MetricPurchasePrice:       m.PurchasePrice,
		MetricDownPayment:         m.DownPayment,
		MetricLoanAmount:          m.LoanAmount,
		MetricMonthlyMortgage:     m.MonthlyMortgage,
		MetricMonthlyRentEstimate: m.MonthlyRentEstimate,
		MetricEffectiveRent:       m.EffectiveRent,
		MetricMonthlyExpenses:     m.MonthlyExpenses,
		MetricMonthlyCashFlow:     m.MonthlyCashFlow,
		MetricAnnualCashFlow:      m.AnnualCashFlow,
		MetricCapRate:             m.CapRate,
		MetricCashOnCashReturn:    m.CashOnCashReturn,
		MetricNOI:                 m.NOI,
		MetricDSCR:                m.DSCR,
		MetricGRM:                 m.GRM,
	}
}

// CashFlowMetricsFrom rebuilds CashFlowMetrics from flattened metrics.
func CashFlowMetricsFrom(m Metrics) CashFlowMetrics {
	return CashFlowMetrics{
		PurchasePrice:       m[MetricPurchasePrice],
		DownPayment:         m[MetricDownPayment],
		LoanAmount:          m[MetricLoanAmount],
		MonthlyMortgage:     m[MetricMonthlyMortgage],
		MonthlyRentEstimate: m[MetricMonthlyRentEstimate],
		EffectiveRent:       m[MetricEffectiveRent],
		MonthlyExpenses:     m[MetricMonthlyExpenses],
		MonthlyCashFlow:     m[MetricMonthlyCashFlow],
		AnnualCashFlow:      m[MetricAnnualCashFlow],
		CapRate:             m[MetricCapRate],
		CashOnCashReturn:    m[MetricCashOnCashReturn],
		NOI:                 m[MetricNOI],
		DSCR:                m[MetricDSCR],
		GRM:                 m[MetricGRM],
	}
}

// FlipMetrics are the results of a fix-and-flip analysis.
type FlipMetrics struct {
	PurchasePrice   float64
	EstimatedARV    float64
	RehabCost       float64
	HoldingCosts    float64
	SellingCosts    float64
	TotalCost       float64
	EstimatedProfit float64
	ROI             float64
	ProfitPerMonth  float64
}

// Metrics flattens m.
func (m FlipMetrics) Metrics() Metrics {
	return Metrics{
		MetricPurchasePrice:   m.PurchasePrice,
		MetricEstimatedARV:    m.EstimatedARV,
		MetricRehabCost:       m.RehabCost,
		MetricHoldingCosts:    m.HoldingCosts,
		MetricSellingCosts:    m.SellingCosts,
		MetricTotalCost:       m.TotalCost,
		MetricEstimatedProfit: m.EstimatedProfit,
		MetricROI:             m.ROI,
		MetricProfitPerMonth:  m.ProfitPerMonth,
	}
}

// FlipMetricsFrom rebuilds FlipMetrics from flattened metrics.
func FlipMetricsFrom(m Metrics) FlipMetrics {
	return FlipMetrics{
		PurchasePrice:   m[MetricPurchasePrice],
		EstimatedARV:    m[MetricEstimatedARV],
		RehabCost:       m[MetricRehabCost],
		HoldingCosts:    m[MetricHoldingCosts],
		SellingCosts:    m[MetricSellingCosts],
		TotalCost:       m[MetricTotalCost],
		EstimatedProfit: m[MetricEstimatedProfit],
		ROI:             m[MetricROI],
		ProfitPerMonth:  m[MetricProfitPerMonth],
	}
}
