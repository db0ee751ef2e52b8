package model

import "strings"

// CompanyType determines which revenue extraction rules apply.
type CompanyType string

const (
	CompanyTypeGeneral   CompanyType = "general"
	CompanyTypeBankNBFC  CompanyType = "bank_nbfc"
	CompanyTypeInsurance CompanyType = "insurance"
	CompanyTypeUnknown   CompanyType = "unknown"
)

// ParseCompanyType maps a raw string to a CompanyType. Anything
// unrecognized is CompanyTypeUnknown, never an error.
func ParseCompanyType(s string) CompanyType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general":
		return CompanyTypeGeneral
	case "bank_nbfc", "bank", "nbfc":
		return CompanyTypeBankNBFC
	case "insurance", "insurer":
		return CompanyTypeInsurance
	default:
		return CompanyTypeUnknown
	}
}

// FactContext carries the reporting metadata that arrived with a fact set.
// Pointer fields distinguish "not supplied" from zero values.
type FactContext struct {
	PeriodDate *int   `json:"period_date,omitempty"` // reporting period year
	SeriesID   string `json:"series_id,omitempty"`
	Currency   string `json:"currency,omitempty"` // declared by the source, may be wrong
	Unit       string `json:"unit,omitempty"`
	Year       *int   `json:"year,omitempty"` // statement year, used by jurisdiction rules
}

// RawFactSet is the complete input to one analysis: raw field values as
// delivered by the upstream extractor, plus context. It is built once and
// never mutated by the engine.
type RawFactSet struct {
	Facts       map[string]any `json:"facts"`
	CompanyType CompanyType    `json:"company_type"`

	// FreeText is an optional snippet scanned for currency and unit
	// keywords. It is a bounded lexical match, not NLP.
	FreeText string `json:"free_text,omitempty"`

	// JurisdictionHints tag the reporting jurisdiction when known
	// (e.g. "latvia", "colombia").
	JurisdictionHints []string `json:"jurisdiction_hints,omitempty"`

	Context FactContext `json:"context"`

	// ExternalConfidence is the 0-100 confidence reported by the upstream
	// extractor, when one exists. Its presence selects the scoring policy
	// at the caller.
	ExternalConfidence *float64 `json:"external_confidence,omitempty"`
}
