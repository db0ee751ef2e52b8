package model

// CanonicalMetrics holds the derived financial metrics for one analysis.
// A nil field means the cascades found no applicable rule — it is never
// silently coerced to zero.
type CanonicalMetrics struct {
	Revenue      *float64 `json:"revenue"`
	EBIT         *float64 `json:"ebit"`
	EBITDA       *float64 `json:"ebitda"`
	NetIncome    *float64 `json:"net_income"`
	Depreciation *float64 `json:"depreciation"`
	Amortization *float64 `json:"amortization"`
	Employees    *int     `json:"employees"`
}

// CalculatedMetrics holds ratios derived from CanonicalMetrics. Each margin
// is 100 * metric / revenue, nil when either operand is unresolved.
type CalculatedMetrics struct {
	EBITDAMargin    *float64 `json:"ebitda_margin"`
	NetProfitMargin *float64 `json:"net_profit_margin"`
	OperatingMargin *float64 `json:"operating_margin"`
}

// Float returns a pointer to v. Convenience for building metrics in tests
// and at the JSON boundary.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
