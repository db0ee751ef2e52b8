package analysis

import (
	"fmt"

	"github.com/sells-group/finmetrics/internal/model"
)

// Raw fact field names recognized by the extraction cascades.
const (
	FactRevenue                = "revenue"
	FactSales                  = "sales"
	FactTurnover               = "turnover"
	FactNetInterestIncome      = "net_interest_income"
	FactFeeCommissionIncome    = "fee_commission_income"
	FactTradingIncome          = "trading_income"
	FactNetEarnedPremium       = "net_earned_premium"
	FactReinsuranceRecoveries  = "reinsurance_recoveries"
	FactReinsuranceCommission  = "reinsurance_commission"
	FactProfitBeforeMinority   = "profit_before_minority"
	FactPAT                    = "pat"
	FactMinorityInterest       = "minority_interest"
	FactProfitEquityStatement  = "profit_equity_statement"
	FactNetIncome              = "net_income"
	FactOperatingProfit        = "operating_profit"
	FactPBT                    = "pbt"
	FactInterestExpense        = "interest_expense"
	FactInterestIncome         = "interest_income"
	FactTax                    = "tax"
	FactDepreciation           = "depreciation"
	FactAmortization           = "amortization"
	FactImpairment             = "impairment"
	FactHasImpairmentDetail    = "has_impairment_detail"
	FactEmployees              = "employees"
	FactEBITDA                 = "ebitda"
)

// facts wraps a raw fact map with normalization and malformed-value tracking.
// It is built per call; nothing is retained between analyses.
type facts struct {
	raw      map[string]any
	warnings []string
}

func newFacts(raw map[string]any) *facts {
	return &facts{raw: raw}
}

// get returns the normalized value for key and whether it was present and
// parseable. A present but unparsable value records a warning and reads as
// absent ("malformed is treated identically to unresolved").
func (f *facts) get(key string) (float64, bool) {
	v, ok := f.raw[key]
	if !ok {
		return 0, false
	}
	n, ok := NormalizeNumber(v)
	if !ok {
		f.warnings = append(f.warnings, fmt.Sprintf("malformed value for %q: %v", key, v))
		return 0, false
	}
	return n, true
}

// getOrZero returns the value for key, with absent terms contributing zero.
func (f *facts) getOrZero(key string) float64 {
	n, _ := f.get(key)
	return n
}

// has reports key presence with a parseable value.
func (f *facts) has(key string) bool {
	_, ok := f.get(key)
	return ok
}

// flag returns the boolean fact for key, false when absent or non-boolean.
func (f *facts) flag(key string) bool {
	b, _ := f.raw[key].(bool)
	return b
}

// ExtractRevenue resolves revenue according to the company-type rules:
//
//   - general: first of revenue, sales, turnover — first match wins, never
//     a sum, even when several candidates are present
//   - bank_nbfc: net interest income + fee/commission income + trading
//     income, absent terms as zero
//   - insurance: net earned premium + reinsurance recoveries + reinsurance
//     commission, absent terms as zero
//   - unknown: unresolved with a warning, never a silent zero
//
// The candidate order is contractual; reordering changes semantics.
func ExtractRevenue(f *facts, companyType model.CompanyType) *float64 {
	switch companyType {
	case model.CompanyTypeGeneral:
		for _, key := range []string{FactRevenue, FactSales, FactTurnover} {
			if v, ok := f.get(key); ok {
				return &v
			}
		}
		return nil
	case model.CompanyTypeBankNBFC:
		v := f.getOrZero(FactNetInterestIncome) +
			f.getOrZero(FactFeeCommissionIncome) +
			f.getOrZero(FactTradingIncome)
		return &v
	case model.CompanyTypeInsurance:
		v := f.getOrZero(FactNetEarnedPremium) +
			f.getOrZero(FactReinsuranceRecoveries) +
			f.getOrZero(FactReinsuranceCommission)
		return &v
	default:
		f.warnings = append(f.warnings, "unknown company type: revenue unresolved")
		return nil
	}
}

// cascadeRule is one candidate derivation: applies gates the rule, derive
// produces the value. Rules are evaluated top-down, first applicable wins.
type cascadeRule struct {
	name    string
	applies func(f *facts) bool
	derive  func(f *facts) float64
}

func runCascade(f *facts, rules []cascadeRule) *float64 {
	for _, r := range rules {
		if r.applies(f) {
			v := r.derive(f)
			return &v
		}
	}
	return nil
}

// netIncomeCascade: order is contractual.
var netIncomeCascade = []cascadeRule{
	{
		name:    "profit_before_minority",
		applies: func(f *facts) bool { return f.has(FactProfitBeforeMinority) },
		derive:  func(f *facts) float64 { return f.getOrZero(FactProfitBeforeMinority) },
	},
	{
		name:    "pat_plus_minority",
		applies: func(f *facts) bool { return f.has(FactPAT) && f.has(FactMinorityInterest) },
		derive:  func(f *facts) float64 { return f.getOrZero(FactPAT) + f.getOrZero(FactMinorityInterest) },
	},
	{
		name:    "profit_equity_statement",
		applies: func(f *facts) bool { return f.has(FactProfitEquityStatement) },
		derive:  func(f *facts) float64 { return f.getOrZero(FactProfitEquityStatement) },
	},
	{
		name:    "net_income_direct",
		applies: func(f *facts) bool { return f.has(FactNetIncome) },
		derive:  func(f *facts) float64 { return f.getOrZero(FactNetIncome) },
	},
}

// ExtractNetIncome resolves net income through the documented cascade, or
// nil when no rule applies.
func ExtractNetIncome(f *facts) *float64 {
	return runCascade(f, netIncomeCascade)
}

// ebitCascade: order is contractual.
var ebitCascade = []cascadeRule{
	{
		name:    "operating_profit",
		applies: func(f *facts) bool { return f.has(FactOperatingProfit) },
		derive:  func(f *facts) float64 { return f.getOrZero(FactOperatingProfit) },
	},
	{
		name: "pbt_plus_interest",
		applies: func(f *facts) bool {
			return f.has(FactPBT) && (f.has(FactInterestExpense) || f.has(FactInterestIncome))
		},
		derive: func(f *facts) float64 {
			return f.getOrZero(FactPBT) + f.getOrZero(FactInterestExpense) - f.getOrZero(FactInterestIncome)
		},
	},
	{
		name:    "pat_plus_tax_interest",
		applies: func(f *facts) bool { return f.has(FactPAT) && f.has(FactTax) },
		derive: func(f *facts) float64 {
			return f.getOrZero(FactPAT) + f.getOrZero(FactTax) +
				f.getOrZero(FactInterestExpense) - f.getOrZero(FactInterestIncome)
		},
	},
}

// CalculateEBIT resolves EBIT through the documented cascade, or nil when
// no rule applies.
func CalculateEBIT(f *facts) *float64 {
	return runCascade(f, ebitCascade)
}

// ExtractEmployees returns the employee headcount fact when present.
func ExtractEmployees(f *facts) *int {
	v, ok := f.get(FactEmployees)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}
