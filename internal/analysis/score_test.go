package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/finmetrics/internal/model"
)

func fullPassReport() model.ValidationReport {
	return model.ValidationReport{
		model.CheckHasRevenue:         true,
		model.CheckHasRequiredMetrics: true,
		model.CheckValuesConsistent:   true,
		model.CheckEBITDAConsistent:   true,
	}
}

func TestScoreConfidenceWeighted_AllChecksWithConfidence(t *testing.T) {
	// 0.20 + 0.30 + 0.25 + 0.15 = 0.90, plus 0.10 * 0.90 = 0.09.
	score := ScoreConfidenceWeighted(fullPassReport(), 90)
	assert.InDelta(t, 99.0, score, 0.0001)
}

func TestScoreConfidenceWeighted_PerfectScore(t *testing.T) {
	assert.InDelta(t, 100.0, ScoreConfidenceWeighted(fullPassReport(), 100), 0.0001)
}

func TestScoreConfidenceWeighted_NothingPasses(t *testing.T) {
	assert.Equal(t, 0.0, ScoreConfidenceWeighted(model.ValidationReport{}, 0))
}

func TestScoreConfidenceWeighted_FailedCheckContributesNothing(t *testing.T) {
	report := fullPassReport()
	report[model.CheckHasRequiredMetrics] = false
	// 0.20 + 0.25 + 0.15 + 0.10*0.5 = 0.65.
	assert.InDelta(t, 65.0, ScoreConfidenceWeighted(report, 50), 0.0001)
}

func TestScoreCompleteness_AllPresent(t *testing.T) {
	m := model.CanonicalMetrics{
		Revenue:      model.Float(1000),
		EBIT:         model.Float(150),
		EBITDA:       model.Float(220),
		NetIncome:    model.Float(75),
		Depreciation: model.Float(50),
		Amortization: model.Float(20),
		Employees:    model.Int(500),
	}
	calc := CalculateMargins(m)
	currency := &model.CurrencyInfo{Code: "EUR", Unit: model.UnitActuals, Year: 2023}
	assert.InDelta(t, 100.0, ScoreCompleteness(m, calc, currency), 0.0001)
}

func TestScoreCompleteness_Fractions(t *testing.T) {
	// Half the core metrics, no operational, no ratios, no metadata:
	// 0.40 * 0.5 = 0.20 → 20.
	m := model.CanonicalMetrics{Revenue: model.Float(1000)}
	score := ScoreCompleteness(m, model.CalculatedMetrics{}, nil)
	assert.InDelta(t, 20.0, score, 0.0001)
}

func TestScoreCompleteness_MetadataOnly(t *testing.T) {
	currency := &model.CurrencyInfo{Code: "EUR", Unit: model.UnitActuals, Year: 2023}
	score := ScoreCompleteness(model.CanonicalMetrics{}, model.CalculatedMetrics{}, currency)
	assert.InDelta(t, 10.0, score, 0.0001)
}

func TestScoreCompleteness_Empty(t *testing.T) {
	assert.Equal(t, 0.0, ScoreCompleteness(model.CanonicalMetrics{}, model.CalculatedMetrics{}, nil))
}

func TestDefaultPolicy(t *testing.T) {
	withConf := &model.RawFactSet{ExternalConfidence: model.Float(80)}
	assert.Equal(t, PolicyConfidenceWeighted, DefaultPolicy(withConf))
	assert.Equal(t, PolicyCompleteness, DefaultPolicy(&model.RawFactSet{}))
}
