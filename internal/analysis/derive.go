package analysis

import "github.com/sells-group/finmetrics/internal/model"

// CalculateEBITDA adds the D&A back onto EBIT. Impairment is excluded from
// the add-back only when the source flags it as separable
// (has_impairment_detail); embedded impairment cannot be isolated and stays
// inside D&A. With no depreciation or amortization facts at all the add-back
// is zero and EBITDA equals EBIT exactly.
func CalculateEBITDA(ebit float64, f *facts) float64 {
	var da float64
	if f.has(FactDepreciation) || f.has(FactAmortization) {
		da = f.getOrZero(FactDepreciation) + f.getOrZero(FactAmortization)
		if f.has(FactImpairment) && f.flag(FactHasImpairmentDetail) {
			da -= f.getOrZero(FactImpairment)
		}
	}
	return ebit + da
}

// margin returns 100 * metric / revenue, or nil when either operand is
// unresolved or revenue is zero.
func margin(metric, revenue *float64) *float64 {
	if metric == nil || revenue == nil || *revenue == 0 {
		return nil
	}
	m := 100 * *metric / *revenue
	return &m
}

// CalculateMargins derives the ratio metrics from canonical metrics.
func CalculateMargins(m model.CanonicalMetrics) model.CalculatedMetrics {
	return model.CalculatedMetrics{
		EBITDAMargin:    margin(m.EBITDA, m.Revenue),
		NetProfitMargin: margin(m.NetIncome, m.Revenue),
		OperatingMargin: margin(m.EBIT, m.Revenue),
	}
}
