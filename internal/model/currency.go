package model

// Unit is the scale the source reported its figures in.
type Unit string

const (
	UnitActuals   Unit = "actuals"
	UnitThousands Unit = "thousands"
	UnitMillions  Unit = "millions"
	UnitBillions  Unit = "billions"
)

// KnownUnits is the closed set of accepted unit scales.
var KnownUnits = map[Unit]bool{
	UnitActuals:   true,
	UnitThousands: true,
	UnitMillions:  true,
	UnitBillions:  true,
}

// KnownCurrencies is the closed set of currency codes the engine accepts.
// Codes outside this set fail the currency_valid hard stop.
var KnownCurrencies = map[string]bool{
	"EUR": true, "USD": true, "GBP": true, "JPY": true, "CNY": true,
	"CHF": true, "SEK": true, "NOK": true, "DKK": true, "INR": true,
	"COP": true, "BRL": true, "AUD": true, "CAD": true, "LVL": true,
}

// CurrencyInfo is the resolved currency context for one analysis.
type CurrencyInfo struct {
	Code string `json:"code"`
	Unit Unit   `json:"unit"`
	Year int    `json:"year"`
}

// Valid reports whether the info is complete: a known code, a unit, and a year.
func (c CurrencyInfo) Valid() bool {
	return c.Code != "" && KnownCurrencies[c.Code] && c.Unit != "" && c.Year != 0
}
