package analysis

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/finmetrics/internal/model"
)

//go:embed currency_table.yaml
var rawCurrencyTable []byte

type currencyEntry struct {
	Code    string   `yaml:"code"`
	Aliases []string `yaml:"aliases"`
}

type unitEntry struct {
	Unit      model.Unit `yaml:"unit"`
	Keywords  []string   `yaml:"keywords"`
	Ambiguous []string   `yaml:"ambiguous"`
}

type currencyTable struct {
	Currencies []currencyEntry `yaml:"currencies"`
	Units      []unitEntry     `yaml:"units"`
}

var lexTable = mustLoadCurrencyTable()

func mustLoadCurrencyTable() currencyTable {
	var t currencyTable
	if err := yaml.Unmarshal(rawCurrencyTable, &t); err != nil {
		panic(fmt.Sprintf("analysis: embedded currency table: %v", err))
	}
	return t
}

// Resolver confidence levels. The jurisdiction override is authoritative;
// a lexical match with an explicit unit token is stronger than one where
// the unit fell back to the default.
const (
	confidenceJurisdiction = 1.0
	confidenceExplicitUnit = 0.9
	confidenceDefaultUnit  = 0.7
)

// Jurisdiction evidence markers, matched case-insensitively over the free
// text and the jurisdiction hints.
const (
	jurisdictionLatvia   = "latvia"
	jurisdictionColombia = "colombia"
)

// euroAdoptionYearLatvia: from this statement year on, Latvian filings
// report in EUR regardless of any legacy currency markers in the text.
const euroAdoptionYearLatvia = 2014

// ResolveCurrency resolves the currency code and unit scale for a filing.
// Rules are evaluated top-down, first match wins:
//
//  1. Latvia jurisdiction with year >= 2014 resolves to {EUR, actuals}
//     unconditionally, bypassing the lexical scan.
//  2. The ordered currency alias table is scanned; the first entry with an
//     alias present in the text wins. Shared symbols (yen/yuan) resolve to
//     whichever code is listed first — a documented, lossy tie-break.
//  3. The ordered unit keyword table is scanned; no match defaults to
//     actuals.
//  4. A Colombian filing whose unit token is the ambiguous "millions"
//     abbreviation is forced to thousands (reporting-convention override).
//
// Returns nil and zero confidence when no currency alias matches — there is
// no default currency.
func ResolveCurrency(text string, hints []string, year int) (*model.CurrencyInfo, float64) {
	if hasJurisdiction(text, hints, jurisdictionLatvia) && year >= euroAdoptionYearLatvia {
		return &model.CurrencyInfo{Code: "EUR", Unit: model.UnitActuals, Year: year}, confidenceJurisdiction
	}

	lower := strings.ToLower(text)

	code := scanCurrency(lower)
	if code == "" {
		return nil, 0
	}

	unit, token := scanUnit(lower)
	confidence := confidenceExplicitUnit
	if token == "" {
		unit = model.UnitActuals
		confidence = confidenceDefaultUnit
	}

	if unit == model.UnitMillions && isAmbiguousUnitToken(token) &&
		hasJurisdiction(text, hints, jurisdictionColombia) {
		unit = model.UnitThousands
	}

	return &model.CurrencyInfo{Code: code, Unit: unit, Year: year}, confidence
}

// ValidateCurrency reports whether the resolved info is complete: a known
// code plus unit and year populated.
func ValidateCurrency(info *model.CurrencyInfo) bool {
	return info != nil && info.Valid()
}

// scanCurrency returns the code of the first table entry with an alias
// present in the lowercased text, or "".
func scanCurrency(lower string) string {
	for _, entry := range lexTable.Currencies {
		for _, alias := range entry.Aliases {
			if strings.Contains(lower, alias) {
				return entry.Code
			}
		}
	}
	return ""
}

// scanUnit returns the first matching unit and the keyword that matched.
func scanUnit(lower string) (model.Unit, string) {
	for _, entry := range lexTable.Units {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				return entry.Unit, kw
			}
		}
	}
	return "", ""
}

func isAmbiguousUnitToken(token string) bool {
	for _, entry := range lexTable.Units {
		for _, a := range entry.Ambiguous {
			if a == token {
				return true
			}
		}
	}
	return false
}

func hasJurisdiction(text string, hints []string, marker string) bool {
	if strings.Contains(strings.ToLower(text), marker) {
		return true
	}
	for _, h := range hints {
		if strings.Contains(strings.ToLower(h), marker) {
			return true
		}
	}
	return false
}
