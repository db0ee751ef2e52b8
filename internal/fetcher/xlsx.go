// Package fetcher loads fact sets from local files: JSON documents and XLSX
// workbooks with one company per row.
package fetcher

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/finmetrics/internal/model"
)

// XLSXOptions configures the XLSX fact-set loader.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// Column names with reserved meaning. Every other header cell is treated as
// a fact name and its cell values flow into the fact map verbatim.
const (
	colCompanyType = "company_type"
	colCurrency    = "currency"
	colUnit        = "unit"
	colPeriodDate  = "period_date"
	colSeriesID    = "series_id"
	colConfidence  = "confidence"
	colText        = "text"
)

// LoadXLSX reads an XLSX sheet and returns one fact set per data row. The
// first row names the columns; empty cells are skipped rather than recorded
// as empty facts.
func LoadXLSX(path string, opts XLSXOptions) ([]*model.RawFactSet, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open xlsx")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	if len(sheet.Rows) == 0 {
		return nil, eris.New("fetcher: xlsx sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0])
	if len(header) == 0 {
		return nil, eris.New("fetcher: xlsx header row is empty")
	}

	var sets []*model.RawFactSet
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if isBlank(cells) {
			continue
		}
		set, err := rowToFactSet(header, cells)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}

	return sets, nil
}

func rowToFactSet(header, cells []string) (*model.RawFactSet, error) {
	set := &model.RawFactSet{Facts: make(map[string]any)}

	for i, name := range header {
		if i >= len(cells) {
			break
		}
		value := strings.TrimSpace(cells[i])
		if value == "" {
			continue
		}

		switch strings.ToLower(strings.TrimSpace(name)) {
		case colCompanyType:
			set.CompanyType = model.ParseCompanyType(value)
		case colCurrency:
			set.Context.Currency = value
		case colUnit:
			set.Context.Unit = strings.ToLower(value)
		case colSeriesID:
			set.Context.SeriesID = value
		case colText:
			set.FreeText = value
		case colPeriodDate:
			year, err := strconv.Atoi(value)
			if err != nil {
				return nil, eris.Wrapf(err, "fetcher: bad period_date %q", value)
			}
			set.Context.PeriodDate = &year
		case colConfidence:
			conf, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, eris.Wrapf(err, "fetcher: bad confidence %q", value)
			}
			set.ExternalConfidence = &conf
		case "":
			// unnamed column, ignore
		default:
			set.Facts[strings.ToLower(strings.TrimSpace(name))] = value
		}
	}

	return set, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("fetcher: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("fetcher: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
