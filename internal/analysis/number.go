// Package analysis implements the financial-metrics extraction and
// validation engine: pure functions that turn a raw fact set into canonical
// metrics, consistency checks, and a composite accuracy score.
package analysis

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NormalizeNumber converts a raw fact value to a float64. It accepts native
// numerics and strings in common financial notations: currency signs,
// parenthesised negatives, space/comma grouping, percent, and K/M/B suffixes.
// The second return is false when the value cannot be normalized.
func NormalizeNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return normalizeString(v)
	default:
		return 0, false
	}
}

var currencySigns = strings.NewReplacer("€", "", "$", "", "£", "", "¥", "", "₹", "")

func normalizeString(s string) (float64, bool) {
	s = strings.TrimSpace(currencySigns.Replace(s))
	if s == "" {
		return 0, false
	}

	// Parenthesised negatives: (1,500) means -1500.
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + s[1:len(s)-1]
	}

	s = strings.ReplaceAll(s, " ", "")

	// Percentages become fractions.
	if strings.Contains(s, "%") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, "%", ""), 64)
		if err != nil {
			return 0, false
		}
		return f / 100, true
	}

	// Separator handling: with both "," and "." the comma is grouping;
	// with only commas the comma is a decimal separator (European style).
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else if strings.Count(s, ",") == 1 {
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	// Scale suffixes.
	multiplier := 1.0
	upper := strings.ToUpper(s)
	for suffix, m := range map[string]float64{"K": 1e3, "M": 1e6, "B": 1e9} {
		if strings.HasSuffix(upper, suffix) {
			multiplier = m
			s = s[:len(s)-1]
			break
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f * multiplier, true
}
