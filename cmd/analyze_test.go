//go:build !integration

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/finmetrics/internal/config"
	"github.com/sells-group/finmetrics/internal/model"
	"github.com/sells-group/finmetrics/internal/store"
)

func sampleRawFactSet() *model.RawFactSet {
	conf := 90.0
	year := 2023
	return &model.RawFactSet{
		Facts: map[string]any{
			"revenue":          1000000,
			"operating_profit": 150000,
			"depreciation":     50000,
			"profit_after_tax": 80000,
		},
		CompanyType:        model.CompanyTypeGeneral,
		FreeText:           "All figures in USD thousands.",
		Context:            model.FactContext{PeriodDate: &year},
		ExternalConfidence: &conf,
	}
}

func TestAnalyzeAndRecord(t *testing.T) {
	cfg = &config.Config{Analysis: config.AnalysisConfig{Policy: "confidence_weighted"}}
	st := newBatchTestStore(t)

	result, err := analyzeAndRecord(context.Background(), st, "acme.json", sampleRawFactSet(), "")
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotNil(t, result.Metrics.Revenue)
	assert.InDelta(t, 1000000, *result.Metrics.Revenue, 0.001)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Source: "acme.json"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Result)
	assert.InDelta(t, result.Accuracy, runs[0].Result.Accuracy, 0.001)
}

func TestAnalyzeAndRecord_PolicyOverride(t *testing.T) {
	cfg = &config.Config{Analysis: config.AnalysisConfig{Policy: "confidence_weighted"}}
	st := newBatchTestStore(t)

	result, err := analyzeAndRecord(context.Background(), st, "acme.json", sampleRawFactSet(), "completeness")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Accuracy, 0.0)
	assert.LessOrEqual(t, result.Accuracy, 100.0)
}

func TestAnalyzeAndRecord_DefaultsFromFactSet(t *testing.T) {
	// No configured policy: the fact set's external confidence selects
	// confidence weighting.
	cfg = &config.Config{}
	st := newBatchTestStore(t)

	_, err := analyzeAndRecord(context.Background(), st, "acme.json", sampleRawFactSet(), "")
	require.NoError(t, err)
}

func TestAnalyzeAndRecord_UnknownPolicy(t *testing.T) {
	cfg = &config.Config{}
	st := newBatchTestStore(t)

	_, err := analyzeAndRecord(context.Background(), st, "acme.json", sampleRawFactSet(), "bogus")
	require.Error(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestAnalyzeAndRecord_RecordsFailure(t *testing.T) {
	cfg = &config.Config{Analysis: config.AnalysisConfig{Policy: "confidence_weighted"}}
	st := newBatchTestStore(t)

	raw := &model.RawFactSet{Facts: map[string]any{"notes": "nothing numeric"}}
	_, err := analyzeAndRecord(context.Background(), st, "empty.json", raw, "")
	require.Error(t, err)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{Source: "empty.json"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.NotEmpty(t, runs[0].Error)
}
