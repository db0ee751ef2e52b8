// Package report renders analysis results for the CLI.
package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/finmetrics/internal/model"
)

var printer = message.NewPrinter(language.English)

// Render formats a result as a readable text report with grouped thousands.
func Render(source string, result *model.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis: %s\n", source)
	fmt.Fprintf(&b, "Accuracy: %.1f\n\n", result.Accuracy)

	b.WriteString("Metrics\n")
	writeMoney(&b, "revenue", result.Metrics.Revenue)
	writeMoney(&b, "ebit", result.Metrics.EBIT)
	writeMoney(&b, "ebitda", result.Metrics.EBITDA)
	writeMoney(&b, "net_income", result.Metrics.NetIncome)
	writeMoney(&b, "depreciation", result.Metrics.Depreciation)
	writeMoney(&b, "amortization", result.Metrics.Amortization)
	if result.Metrics.Employees != nil {
		fmt.Fprintf(&b, "  %-16s %s\n", "employees", printer.Sprintf("%d", *result.Metrics.Employees))
	} else {
		fmt.Fprintf(&b, "  %-16s -\n", "employees")
	}

	b.WriteString("\nMargins (%)\n")
	writePercent(&b, "ebitda_margin", result.CalculatedMetrics.EBITDAMargin)
	writePercent(&b, "net_profit_margin", result.CalculatedMetrics.NetProfitMargin)
	writePercent(&b, "operating_margin", result.CalculatedMetrics.OperatingMargin)

	b.WriteString("\nCurrency\n")
	fmt.Fprintf(&b, "  %-16s %s\n", "code", strOrDash(result.CurrencyInfo.Code))
	fmt.Fprintf(&b, "  %-16s %s\n", "unit", strOrDash(result.CurrencyInfo.Unit))
	if result.CurrencyInfo.Year != nil {
		fmt.Fprintf(&b, "  %-16s %d\n", "year", *result.CurrencyInfo.Year)
	}
	fmt.Fprintf(&b, "  %-16s %.2f\n", "confidence", result.CurrencyInfo.Confidence)

	fmt.Fprintf(&b, "\nValidations (%d/%d passed)\n", result.Validations.Passed(), len(result.Validations))
	for _, name := range sortedChecks(result.Validations) {
		mark := "PASS"
		if !result.Validations[name] {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s\n", mark, name)
	}

	if len(result.Warnings) > 0 {
		b.WriteString("\nWarnings\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "  - %s\n", w)
		}
	}

	return b.String()
}

// Summary is a one-line digest used by batch output.
func Summary(source string, result *model.AnalysisResult) string {
	return fmt.Sprintf("%s: accuracy %.1f, %d/%d checks, %d warnings",
		source, result.Accuracy, result.Validations.Passed(), len(result.Validations), len(result.Warnings))
}

func writeMoney(b *strings.Builder, name string, v *float64) {
	if v == nil {
		fmt.Fprintf(b, "  %-16s -\n", name)
		return
	}
	fmt.Fprintf(b, "  %-16s %s\n", name, printer.Sprintf("%.2f", *v))
}

func writePercent(b *strings.Builder, name string, v *float64) {
	if v == nil {
		fmt.Fprintf(b, "  %-16s -\n", name)
		return
	}
	fmt.Fprintf(b, "  %-16s %.2f\n", name, *v)
}

func strOrDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func sortedChecks(report model.ValidationReport) []string {
	names := make([]string, 0, len(report))
	for name := range report {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
