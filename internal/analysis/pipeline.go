package analysis

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/finmetrics/internal/model"
)

// Options controls a single analysis. Policy must be set; DefaultPolicy
// gives the conventional choice for a fact set.
type Options struct {
	Policy ScoringPolicy
}

// Declared-context currency fallback confidence: the source said so, but
// nothing in the text confirmed it.
const confidenceDeclared = 0.5

// Analyze runs the full pipeline over one fact set: resolve currency,
// extract base metrics, derive EBITDA and margins, validate, score, and
// assemble the result. It is a pure function of its inputs; raw is never
// mutated and nothing is retained between calls.
//
// The only terminal failure is a structurally unusable fact set (no facts,
// or none of them numeric). Everything else produces a complete or partial
// result with warnings.
func Analyze(raw *model.RawFactSet, opts Options) (*model.AnalysisResult, error) {
	if raw == nil {
		return nil, eris.New("analysis: nil fact set")
	}
	if !hasAnyNumericFact(raw.Facts) {
		return nil, eris.New("analysis: fact set has no numeric facts")
	}

	policy := opts.Policy
	if policy == "" {
		return nil, eris.New("analysis: scoring policy must be selected explicitly")
	}

	var warnings []string

	companyType := raw.CompanyType
	if companyType == "" {
		companyType = model.CompanyTypeUnknown
		warnings = append(warnings, "company type missing, treated as unknown")
	}

	year := 0
	if raw.Context.Year != nil {
		year = *raw.Context.Year
	} else if raw.Context.PeriodDate != nil {
		year = *raw.Context.PeriodDate
	}

	// Currency: lexical resolution first; the declared context currency is
	// the documented fallback when the scan finds nothing.
	currency, confidence := ResolveCurrency(raw.FreeText, raw.JurisdictionHints, year)
	if currency == nil && raw.Context.Currency != "" {
		currency = &model.CurrencyInfo{
			Code: raw.Context.Currency,
			Unit: parseUnit(raw.Context.Unit),
			Year: year,
		}
		confidence = confidenceDeclared
	}
	if currency == nil {
		warnings = append(warnings, "currency unresolved")
	}

	// Base metric extraction.
	f := newFacts(raw.Facts)
	metrics := model.CanonicalMetrics{
		Revenue:   ExtractRevenue(f, companyType),
		EBIT:      CalculateEBIT(f),
		NetIncome: ExtractNetIncome(f),
		Employees: ExtractEmployees(f),
	}
	if v, ok := f.get(FactDepreciation); ok {
		metrics.Depreciation = &v
	}
	if v, ok := f.get(FactAmortization); ok {
		metrics.Amortization = &v
	}

	// Derived metrics. EBITDA is computed from EBIT whenever EBIT resolved;
	// a reported EBITDA is only adopted directly when EBIT did not resolve,
	// and always feeds the reconciliation check.
	var reportedEBITDA *float64
	if v, ok := f.get(FactEBITDA); ok {
		reportedEBITDA = &v
	}
	switch {
	case metrics.EBIT != nil:
		v := CalculateEBITDA(*metrics.EBIT, f)
		metrics.EBITDA = &v
	case reportedEBITDA != nil:
		metrics.EBITDA = reportedEBITDA
	}

	calculated := CalculateMargins(metrics)

	// Unresolved-field warnings, in a fixed order.
	for _, u := range []struct {
		name  string
		unset bool
	}{
		{"revenue", metrics.Revenue == nil},
		{"ebit", metrics.EBIT == nil},
		{"net_income", metrics.NetIncome == nil},
		{"ebitda", metrics.EBITDA == nil},
	} {
		if u.unset {
			warnings = append(warnings, u.name+" unresolved")
		}
	}
	warnings = append(warnings, f.warnings...)

	// Validation: structural hard-stops, numeric cross-checks, confidence
	// sufficiency. Failures are recorded, never raised.
	validations := ValidateStructure(raw.Context, currency).
		Merge(ValidateMetrics(metrics, reportedEBITDA)).
		Merge(ValidateConfidence(raw.ExternalConfidence))

	var accuracy float64
	switch policy {
	case PolicyConfidenceWeighted:
		external := 0.0
		if raw.ExternalConfidence != nil {
			external = *raw.ExternalConfidence
		}
		accuracy = ScoreConfidenceWeighted(validations, external)
	case PolicyCompleteness:
		accuracy = ScoreCompleteness(metrics, calculated, currency)
	default:
		return nil, eris.Errorf("analysis: unknown scoring policy %q", policy)
	}

	if warnings == nil {
		warnings = []string{}
	}

	return &model.AnalysisResult{
		Metrics:           metrics,
		CalculatedMetrics: calculated,
		CurrencyInfo:      currencySummary(currency, confidence),
		Validations:       validations,
		Accuracy:          accuracy,
		Warnings:          warnings,
	}, nil
}

// hasAnyNumericFact reports whether at least one fact normalizes to a
// number. A fact set with none is a structure error, not a partial result.
func hasAnyNumericFact(facts map[string]any) bool {
	for _, v := range facts {
		if _, ok := NormalizeNumber(v); ok {
			return true
		}
	}
	return false
}

func parseUnit(s string) model.Unit {
	u := model.Unit(s)
	if model.KnownUnits[u] {
		return u
	}
	return ""
}

func currencySummary(info *model.CurrencyInfo, confidence float64) model.CurrencySummary {
	if info == nil {
		return model.CurrencySummary{Confidence: 0}
	}
	s := model.CurrencySummary{Confidence: confidence}
	if info.Code != "" {
		code := info.Code
		s.Code = &code
	}
	if info.Unit != "" {
		unit := string(info.Unit)
		s.Unit = &unit
	}
	if info.Year != 0 {
		y := info.Year
		s.Year = &y
	}
	return s
}
