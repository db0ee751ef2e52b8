package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/finmetrics/internal/model"
)

func TestCalculateEBITDA_AddsBackDA(t *testing.T) {
	f := newFacts(map[string]any{
		"depreciation": 50000.0,
		"amortization": 20000.0,
	})
	assert.Equal(t, 220000.0, CalculateEBITDA(150000, f))
}

func TestCalculateEBITDA_NoDAEqualsEBITExactly(t *testing.T) {
	f := newFacts(map[string]any{"revenue": 1.0})
	assert.Equal(t, 150000.0, CalculateEBITDA(150000, f))
}

func TestCalculateEBITDA_SeparableImpairmentExcluded(t *testing.T) {
	f := newFacts(map[string]any{
		"depreciation":          100.0,
		"amortization":          50.0,
		"impairment":            30.0,
		"has_impairment_detail": true,
	})
	// D&A = 100 + 50 - 30 = 120.
	assert.Equal(t, 1120.0, CalculateEBITDA(1000, f))
}

func TestCalculateEBITDA_EmbeddedImpairmentStaysInDA(t *testing.T) {
	// Without the detail flag the impairment cannot be isolated.
	f := newFacts(map[string]any{
		"depreciation": 100.0,
		"amortization": 50.0,
		"impairment":   30.0,
	})
	assert.Equal(t, 1150.0, CalculateEBITDA(1000, f))
}

func TestCalculateMargins(t *testing.T) {
	m := model.CanonicalMetrics{
		Revenue:   model.Float(1000),
		EBIT:      model.Float(150),
		EBITDA:    model.Float(220),
		NetIncome: model.Float(75),
	}
	calc := CalculateMargins(m)
	assert.InDelta(t, 22.0, *calc.EBITDAMargin, 0.0001)
	assert.InDelta(t, 7.5, *calc.NetProfitMargin, 0.0001)
	assert.InDelta(t, 15.0, *calc.OperatingMargin, 0.0001)
}

func TestCalculateMargins_UnresolvedOperands(t *testing.T) {
	calc := CalculateMargins(model.CanonicalMetrics{EBIT: model.Float(150)})
	assert.Nil(t, calc.EBITDAMargin)
	assert.Nil(t, calc.NetProfitMargin)
	assert.Nil(t, calc.OperatingMargin)

	// Zero revenue yields no margins rather than dividing by zero.
	calc = CalculateMargins(model.CanonicalMetrics{
		Revenue: model.Float(0),
		EBIT:    model.Float(150),
	})
	assert.Nil(t, calc.OperatingMargin)
}
