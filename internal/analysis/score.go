package analysis

import (
	"math"

	"github.com/sells-group/finmetrics/internal/model"
)

// ScoringPolicy selects how the composite accuracy score is computed. The
// engine never infers a policy; callers choose one explicitly (DefaultPolicy
// encodes the boundary's usual choice).
type ScoringPolicy string

const (
	// PolicyConfidenceWeighted blends validation booleans with the
	// externally reported confidence. Use when such a confidence exists.
	PolicyConfidenceWeighted ScoringPolicy = "confidence_weighted"

	// PolicyCompleteness scores by fraction of fields present per group.
	// Use when no external confidence is available.
	PolicyCompleteness ScoringPolicy = "completeness"
)

// DefaultPolicy returns the conventional policy for a fact set: confidence-
// weighted when the upstream extractor reported a confidence, completeness
// otherwise.
func DefaultPolicy(raw *model.RawFactSet) ScoringPolicy {
	if raw.ExternalConfidence != nil {
		return PolicyConfidenceWeighted
	}
	return PolicyCompleteness
}

// Confidence-weighted policy weights. The boolean terms contribute their
// full weight when the check passes; the confidence term contributes
// (confidence/100) * weight.
const (
	weightHasRevenue         = 0.20
	weightHasRequiredMetrics = 0.30
	weightValuesConsistent   = 0.25
	weightEBITDAConsistent   = 0.15
	weightConfidence         = 0.10
)

// ScoreConfidenceWeighted maps a validation report and an external
// confidence (0-100, zero when absent) to an accuracy score in [0,100].
func ScoreConfidenceWeighted(report model.ValidationReport, confidence float64) float64 {
	var score float64
	score += boolTerm(report[model.CheckHasRevenue], weightHasRevenue)
	score += boolTerm(report[model.CheckHasRequiredMetrics], weightHasRequiredMetrics)
	score += boolTerm(report[model.CheckValuesConsistent], weightValuesConsistent)
	score += boolTerm(report[model.CheckEBITDAConsistent], weightEBITDAConsistent)
	score += (confidence / 100.0) * weightConfidence

	return math.Max(0, math.Min(1, score)) * 100
}

// Completeness policy weights: each group contributes its weight scaled by
// the fraction of its fields that resolved.
const (
	weightCoreMetrics        = 0.40
	weightOperationalMetrics = 0.30
	weightCalculatedRatios   = 0.20
	weightMetadata           = 0.10
)

// ScoreCompleteness maps presence of metrics, ratios, and currency metadata
// to an accuracy score in [0,100]. No validation outcome and no external
// confidence participates.
func ScoreCompleteness(m model.CanonicalMetrics, calc model.CalculatedMetrics, currency *model.CurrencyInfo) float64 {
	core := fractionPresent(
		m.Revenue != nil,
		m.NetIncome != nil,
	)
	operational := fractionPresent(
		m.EBIT != nil,
		m.EBITDA != nil,
		m.Depreciation != nil,
		m.Amortization != nil,
		m.Employees != nil,
	)
	ratios := fractionPresent(
		calc.EBITDAMargin != nil,
		calc.NetProfitMargin != nil,
		calc.OperatingMargin != nil,
	)
	metadata := fractionPresent(
		currency != nil && currency.Code != "",
		currency != nil && currency.Unit != "",
		currency != nil && currency.Year != 0,
	)

	score := core*weightCoreMetrics +
		operational*weightOperationalMetrics +
		ratios*weightCalculatedRatios +
		metadata*weightMetadata

	return math.Max(0, math.Min(1, score)) * 100
}

func boolTerm(pass bool, weight float64) float64 {
	if pass {
		return weight
	}
	return 0
}

func fractionPresent(present ...bool) float64 {
	if len(present) == 0 {
		return 0
	}
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(present))
}
