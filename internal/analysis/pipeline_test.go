package analysis

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finmetrics/internal/model"
)

func sampleFactSet() *model.RawFactSet {
	return &model.RawFactSet{
		Facts: map[string]any{
			FactRevenue:          1000000.0,
			FactOperatingProfit:  150000.0,
			FactDepreciation:     50000.0,
			FactAmortization:     20000.0,
			FactPAT:              80000.0,
			FactMinorityInterest: -5000.0,
			FactEmployees:        500,
		},
		CompanyType:        model.CompanyTypeGeneral,
		FreeText:           "Consolidated statements, figures in USD thousands.",
		ExternalConfidence: model.Float(90),
		Context: model.FactContext{
			PeriodDate: model.Int(2023),
			SeriesID:   "ABC123",
			Currency:   "USD",
			Unit:       "thousands",
		},
	}
}

func TestAnalyze_FullPipeline(t *testing.T) {
	result, err := Analyze(sampleFactSet(), Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)

	require.NotNil(t, result.Metrics.Revenue)
	assert.Equal(t, 1000000.0, *result.Metrics.Revenue)
	require.NotNil(t, result.Metrics.EBIT)
	assert.Equal(t, 150000.0, *result.Metrics.EBIT)
	require.NotNil(t, result.Metrics.EBITDA)
	assert.Equal(t, 220000.0, *result.Metrics.EBITDA)
	require.NotNil(t, result.Metrics.NetIncome)
	assert.Equal(t, 75000.0, *result.Metrics.NetIncome)
	require.NotNil(t, result.Metrics.Employees)
	assert.Equal(t, 500, *result.Metrics.Employees)

	require.NotNil(t, result.CalculatedMetrics.EBITDAMargin)
	assert.InDelta(t, 22.0, *result.CalculatedMetrics.EBITDAMargin, 0.0001)
	require.NotNil(t, result.CalculatedMetrics.NetProfitMargin)
	assert.InDelta(t, 7.5, *result.CalculatedMetrics.NetProfitMargin, 0.0001)

	require.NotNil(t, result.CurrencyInfo.Code)
	assert.Equal(t, "USD", *result.CurrencyInfo.Code)
	require.NotNil(t, result.CurrencyInfo.Unit)
	assert.Equal(t, "thousands", *result.CurrencyInfo.Unit)
	assert.Equal(t, confidenceExplicitUnit, result.CurrencyInfo.Confidence)

	for _, check := range []string{
		model.CheckCurrencyPopulated,
		model.CheckCurrencyValid,
		model.CheckPeriodDatePopulated,
		model.CheckPeriodDateValid,
		model.CheckSeriesIDPopulated,
		model.CheckUnitPopulated,
		model.CheckHasRevenue,
		model.CheckHasRequiredMetrics,
		model.CheckValuesConsistent,
		model.CheckEBITDAConsistent,
		model.CheckConfidenceSufficient,
	} {
		assert.True(t, result.Validations[check], check)
	}

	assert.Equal(t, 99.0, result.Accuracy)
	assert.Empty(t, result.Warnings)
	assert.NotNil(t, result.Warnings)
}

func TestAnalyze_Deterministic(t *testing.T) {
	first, err := Analyze(sampleFactSet(), Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	second, err := Analyze(sampleFactSet(), Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAnalyze_DoesNotMutateInput(t *testing.T) {
	raw := sampleFactSet()
	before, err := json.Marshal(raw)
	require.NoError(t, err)

	_, err = Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)

	after, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestAnalyze_NilFactSet(t *testing.T) {
	_, err := Analyze(nil, Options{Policy: PolicyConfidenceWeighted})
	assert.Error(t, err)
}

func TestAnalyze_NoNumericFacts(t *testing.T) {
	raw := &model.RawFactSet{
		Facts:       map[string]any{"note": "see annual report", "auditor": "n/a"},
		CompanyType: model.CompanyTypeGeneral,
	}
	_, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no numeric facts")
}

func TestAnalyze_PolicyRequired(t *testing.T) {
	_, err := Analyze(sampleFactSet(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy")
}

func TestAnalyze_UnknownPolicy(t *testing.T) {
	_, err := Analyze(sampleFactSet(), Options{Policy: ScoringPolicy("maximal")})
	assert.Error(t, err)
}

func TestAnalyze_MissingCompanyTypeWarns(t *testing.T) {
	raw := sampleFactSet()
	raw.CompanyType = ""

	result, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, "company type missing, treated as unknown")
	// Unknown company type resolves no revenue.
	assert.Nil(t, result.Metrics.Revenue)
	assert.Contains(t, result.Warnings, "revenue unresolved")
}

func TestAnalyze_DeclaredCurrencyFallback(t *testing.T) {
	raw := sampleFactSet()
	raw.FreeText = "no monetary markers here"
	raw.JurisdictionHints = nil

	result, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	require.NotNil(t, result.CurrencyInfo.Code)
	assert.Equal(t, "USD", *result.CurrencyInfo.Code)
	assert.Equal(t, confidenceDeclared, result.CurrencyInfo.Confidence)
}

func TestAnalyze_CurrencyUnresolvedWarns(t *testing.T) {
	raw := sampleFactSet()
	raw.FreeText = ""
	raw.Context.Currency = ""
	raw.Context.Unit = ""

	result, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	assert.Nil(t, result.CurrencyInfo.Code)
	assert.Zero(t, result.CurrencyInfo.Confidence)
	assert.Contains(t, result.Warnings, "currency unresolved")
	assert.False(t, result.Validations[model.CheckCurrencyPopulated])
}

func TestAnalyze_ReportedEBITDAWhenEBITUnresolved(t *testing.T) {
	raw := sampleFactSet()
	raw.Facts = map[string]any{
		FactRevenue: 1000000.0,
		FactEBITDA:  210000.0,
	}

	result, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	assert.Nil(t, result.Metrics.EBIT)
	require.NotNil(t, result.Metrics.EBITDA)
	assert.Equal(t, 210000.0, *result.Metrics.EBITDA)
}

func TestAnalyze_ReportedEBITDAFeedsReconciliation(t *testing.T) {
	raw := sampleFactSet()
	raw.Facts[FactEBITDA] = 400000.0 // far from 150000 + 50000 + 20000

	result, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	require.NotNil(t, result.Metrics.EBITDA)
	assert.Equal(t, 220000.0, *result.Metrics.EBITDA)
	assert.False(t, result.Validations[model.CheckEBITDAReconciles])
	assert.False(t, result.Validations[model.CheckEBITDAConsistent])
}

func TestAnalyze_CompletenessPolicy(t *testing.T) {
	result, err := Analyze(sampleFactSet(), Options{Policy: PolicyCompleteness})
	require.NoError(t, err)
	assert.Greater(t, result.Accuracy, 0.0)
	assert.LessOrEqual(t, result.Accuracy, 100.0)
}

func TestAnalyze_StringFactsNormalize(t *testing.T) {
	raw := sampleFactSet()
	raw.Facts = map[string]any{
		FactRevenue:         "1,000,000",
		FactOperatingProfit: "(150,000)",
	}

	result, err := Analyze(raw, Options{Policy: PolicyConfidenceWeighted})
	require.NoError(t, err)
	require.NotNil(t, result.Metrics.Revenue)
	assert.Equal(t, 1000000.0, *result.Metrics.Revenue)
	require.NotNil(t, result.Metrics.EBIT)
	assert.Equal(t, -150000.0, *result.Metrics.EBIT)
}
