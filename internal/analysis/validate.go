package analysis

import (
	"math"

	"github.com/sells-group/finmetrics/internal/model"
)

// ReconciliationTolerance is the relative deviation allowed between a
// reported EBITDA and ebit + depreciation + amortization before the
// reconciliation check fails (0.1%).
const ReconciliationTolerance = 0.001

// Period date hard-stop bounds, inclusive.
const (
	MinPeriodYear = 1990
	MaxPeriodYear = 2024
)

// MinSufficientConfidence is the external confidence below which the
// confidence_sufficient check fails.
const MinSufficientConfidence = 70.0

// ValidateStructure runs the structural hard-stops over the fact context
// and the resolved currency. Each check is an independent boolean; all must
// hold for a clean record.
func ValidateStructure(ctx model.FactContext, currency *model.CurrencyInfo) model.ValidationReport {
	code := ctx.Currency
	unit := ctx.Unit
	if currency != nil {
		code = currency.Code
		unit = string(currency.Unit)
	}

	periodPopulated := ctx.PeriodDate != nil
	periodValid := periodPopulated &&
		*ctx.PeriodDate >= MinPeriodYear && *ctx.PeriodDate <= MaxPeriodYear

	return model.ValidationReport{
		model.CheckCurrencyPopulated:   code != "",
		model.CheckCurrencyValid:       model.KnownCurrencies[code],
		model.CheckPeriodDatePopulated: periodPopulated,
		model.CheckPeriodDateValid:     periodValid,
		model.CheckSeriesIDPopulated:   ctx.SeriesID != "",
		model.CheckUnitPopulated:       unit != "",
	}
}

// ValidateMetrics runs the numeric cross-checks over the canonical metrics.
// reportedEBITDA is the EBITDA figure the source itself stated, when one
// exists; it feeds the reconciliation check. Every check is vacuously true
// when an operand is absent — the validator cannot verify what was not
// supplied, and absence is never a failure.
func ValidateMetrics(m model.CanonicalMetrics, reportedEBITDA *float64) model.ValidationReport {
	report := model.ValidationReport{
		model.CheckEBITWithinRevenue:     checkLE(m.EBIT, m.Revenue),
		model.CheckNetIncomeWithinEBIT:   checkLE(m.NetIncome, m.EBIT),
		model.CheckEBITDANotBelowEBIT:    checkLE(m.EBIT, m.EBITDA),
		model.CheckEBITDAReconciles:      checkReconciliation(m, reportedEBITDA),
		model.CheckSignCoherent:          checkSignCoherence(m.Revenue, m.NetIncome),
		model.CheckDepreciationPlausible: checkLE(m.Depreciation, m.Revenue),
		model.CheckAmortizationPlausible: checkLE(m.Amortization, m.Revenue),
	}

	// Aggregates consumed by the scorer.
	report[model.CheckHasRevenue] = m.Revenue != nil && *m.Revenue > 0
	report[model.CheckHasRequiredMetrics] = m.Revenue != nil && m.EBIT != nil && m.NetIncome != nil
	report[model.CheckValuesConsistent] = report[model.CheckEBITWithinRevenue] &&
		report[model.CheckNetIncomeWithinEBIT] &&
		report[model.CheckEBITDANotBelowEBIT] &&
		report[model.CheckEBITDAReconciles] &&
		report[model.CheckSignCoherent] &&
		report[model.CheckDepreciationPlausible] &&
		report[model.CheckAmortizationPlausible]
	report[model.CheckEBITDAConsistent] = report[model.CheckEBITDAReconciles]

	return report
}

// ValidateConfidence records whether the externally reported confidence
// clears the sufficiency threshold. Absent confidence fails the check: a
// source that reports nothing has not demonstrated sufficiency.
func ValidateConfidence(confidence *float64) model.ValidationReport {
	return model.ValidationReport{
		model.CheckConfidenceSufficient: confidence != nil && *confidence >= MinSufficientConfidence,
	}
}

// checkLE is a <= b, vacuously true when either side is absent.
func checkLE(a, b *float64) bool {
	if a == nil || b == nil {
		return true
	}
	return *a <= *b
}

// checkReconciliation verifies |(ebit + depreciation + amortization) −
// reported| <= tolerance * |reported|. It only fires when all four operands
// are present.
func checkReconciliation(m model.CanonicalMetrics, reported *float64) bool {
	if m.EBIT == nil || m.Depreciation == nil || m.Amortization == nil || reported == nil {
		return true
	}
	calculated := *m.EBIT + *m.Depreciation + *m.Amortization
	return math.Abs(calculated-*reported) <= ReconciliationTolerance*math.Abs(*reported)
}

// checkSignCoherence: with positive revenue, net income cannot exceed
// revenue; with negative revenue, net income cannot be positive.
func checkSignCoherence(revenue, netIncome *float64) bool {
	if revenue == nil || netIncome == nil {
		return true
	}
	if *revenue > 0 && *netIncome > *revenue {
		return false
	}
	if *revenue < 0 && *netIncome > 0 {
		return false
	}
	return true
}
