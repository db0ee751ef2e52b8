package model

// ValidationReport maps check names to pass/fail. Failed checks are data,
// not errors: they feed the accuracy score and never abort an analysis.
type ValidationReport map[string]bool

// Structural hard-stop check names.
const (
	CheckCurrencyPopulated   = "currency_populated"
	CheckCurrencyValid       = "currency_valid"
	CheckPeriodDatePopulated = "period_date_populated"
	CheckPeriodDateValid     = "period_date_valid"
	CheckSeriesIDPopulated   = "series_id_populated"
	CheckUnitPopulated       = "unit_populated"
)

// Numeric cross-check names.
const (
	CheckEBITWithinRevenue     = "ebit_within_revenue"
	CheckNetIncomeWithinEBIT   = "net_income_within_ebit"
	CheckEBITDANotBelowEBIT    = "ebitda_not_below_ebit"
	CheckEBITDAReconciles      = "ebitda_reconciles"
	CheckSignCoherent          = "sign_coherent"
	CheckDepreciationPlausible = "depreciation_plausible"
	CheckAmortizationPlausible = "amortization_plausible"
)

// Aggregate check names consumed by the scorer.
const (
	CheckHasRevenue           = "has_revenue"
	CheckHasRequiredMetrics   = "has_required_metrics"
	CheckValuesConsistent     = "values_consistent"
	CheckEBITDAConsistent     = "ebitda_consistent"
	CheckConfidenceSufficient = "confidence_sufficient"
)

// Merge copies all entries of other into r and returns r.
func (r ValidationReport) Merge(other ValidationReport) ValidationReport {
	for k, v := range other {
		r[k] = v
	}
	return r
}

// Passed counts the checks that hold.
func (r ValidationReport) Passed() int {
	n := 0
	for _, ok := range r {
		if ok {
			n++
		}
	}
	return n
}

// CurrencySummary is the currency block of an AnalysisResult. Code and Unit
// are nil when the resolver came up empty.
type CurrencySummary struct {
	Code       *string `json:"code"`
	Unit       *string `json:"unit"`
	Year       *int    `json:"year,omitempty"`
	Confidence float64 `json:"confidence"`
}

// AnalysisResult is the only externally observable artifact of an analysis.
// It is immutable once returned.
type AnalysisResult struct {
	Metrics           CanonicalMetrics  `json:"metrics"`
	CalculatedMetrics CalculatedMetrics `json:"calculated_metrics"`
	CurrencyInfo      CurrencySummary   `json:"currency_info"`
	Validations       ValidationReport  `json:"validations"`
	Accuracy          float64           `json:"accuracy"`
	Warnings          []string          `json:"warnings"`
}
