// Package ingest parses survey exports (CSV, XLSX, FTP drops) into customer
// data points. Values are validated against the dataset scales, every
// rejected row is recorded as an issue, and duplicate customer ids are
// resolved last-write-wins.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
	"github.com/JaimeV365/segmentor-sub003/internal/model"
)

// Options control how a survey export is parsed.
type Options struct {
	// Delimiter is the CSV field separator. Zero means comma.
	Delimiter rune
	// Charset names the source encoding for legacy exports, e.g.
	// "windows-1252". Empty means UTF-8.
	Charset string
	// Sheet selects an XLSX sheet by name. Empty means the first sheet.
	Sheet string
	// Progress, when set, is called once per data row as it is read.
	Progress func()
}

// Result pairs the parsed points with a summary accounting for every row
// of the source file.
type Result struct {
	Points  []model.DataPoint
	Summary model.ImportSummary
}

// ReadFile parses a local survey export, picking the parser from the file
// extension: .xlsx opens a workbook, anything else is treated as CSV.
func ReadFile(ctx context.Context, path string, sat, loy grid.Scale, opts Options) (*Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(ctx, path, sat, loy, opts)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(ctx, f, sat, loy, opts)
}

// Recognized columns after header normalization.
const (
	colID           = "id"
	colName         = "name"
	colEmail        = "email"
	colSatisfaction = "satisfaction"
	colLoyalty      = "loyalty"
	colGroup        = "group"
	colExcluded     = "excluded"
)

// columnMap resolves recognized columns to their field position.
type columnMap map[string]int

// mapColumns matches header cells against the recognized column names.
// Satisfaction and loyalty are mandatory; everything else is optional.
func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{}
	for i, cell := range header {
		key := normalizeHeader(cell)
		if key == "" {
			continue
		}
		if _, ok := cols[key]; ok {
			continue // first occurrence wins
		}
		cols[key] = i
	}
	for _, required := range []string{colSatisfaction, colLoyalty} {
		if _, ok := cols[required]; !ok {
			return nil, eris.Errorf("ingest: no %s column in header", required)
		}
	}
	return cols, nil
}

// normalizeHeader folds case, whitespace and separators so that vendor
// variants like "Customer ID" or "sat_score" map onto one column name.
func normalizeHeader(cell string) string {
	key := strings.ToLower(strings.TrimSpace(cell))
	key = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(key)
	switch key {
	case "id", "customerid":
		return colID
	case "name", "customername":
		return colName
	case "email", "emailaddress":
		return colEmail
	case "satisfaction", "sat", "satscore":
		return colSatisfaction
	case "loyalty", "loy", "loyscore":
		return colLoyalty
	case "group", "segment":
		return colGroup
	case "excluded", "exclude":
		return colExcluded
	}
	return ""
}

func parseExcluded(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// accumulator turns raw rows into points, collecting issues and dedup
// bookkeeping along the way. Imported counts distinct customers, so
// Imported + Overwritten + Skipped always equals RowsRead.
type accumulator struct {
	satScale grid.Scale
	loyScale grid.Scale
	cols     columnMap

	points  []model.DataPoint
	index   map[string]int
	summary model.ImportSummary
}

func newAccumulator(sat, loy grid.Scale, cols columnMap) *accumulator {
	return &accumulator{satScale: sat, loyScale: loy, cols: cols, index: map[string]int{}}
}

// add maps one data row onto a point. row is the 1-based position in the
// source file, header included, so issues line up with what a user sees
// in a spreadsheet.
func (a *accumulator) add(row int, record []string) {
	a.summary.RowsRead++

	satRaw := a.field(record, colSatisfaction)
	loyRaw := a.field(record, colLoyalty)
	if satRaw == "" && loyRaw == "" && a.field(record, colID) == "" {
		a.skip(row, "empty row")
		return
	}
	if satRaw == "" {
		a.skip(row, "missing satisfaction")
		return
	}
	if loyRaw == "" {
		a.skip(row, "missing loyalty")
		return
	}

	sat, err := strconv.ParseFloat(satRaw, 64)
	if err != nil {
		a.skip(row, fmt.Sprintf("invalid satisfaction %q", satRaw))
		return
	}
	loy, err := strconv.ParseFloat(loyRaw, 64)
	if err != nil {
		a.skip(row, fmt.Sprintf("invalid loyalty %q", loyRaw))
		return
	}
	if !a.satScale.Contains(sat) {
		a.skip(row, fmt.Sprintf("satisfaction %s outside scale %s", satRaw, a.satScale))
		return
	}
	if !a.loyScale.Contains(loy) {
		a.skip(row, fmt.Sprintf("loyalty %s outside scale %s", loyRaw, a.loyScale))
		return
	}

	p := model.DataPoint{
		ID:           a.field(record, colID),
		Name:         a.field(record, colName),
		Email:        a.field(record, colEmail),
		Group:        a.field(record, colGroup),
		Satisfaction: sat,
		Loyalty:      loy,
		Excluded:     parseExcluded(a.field(record, colExcluded)),
	}
	if p.ID == "" {
		p.ID = fmt.Sprintf("row-%d", row)
	}

	if pos, ok := a.index[p.ID]; ok {
		a.points[pos] = p
		a.summary.Overwritten++
		return
	}
	a.index[p.ID] = len(a.points)
	a.points = append(a.points, p)
	a.summary.Imported++
}

func (a *accumulator) skip(row int, reason string) {
	a.summary.Skipped++
	a.summary.Issues = append(a.summary.Issues, model.ImportIssue{Row: row, Reason: reason})
}

func (a *accumulator) field(record []string, col string) string {
	i, ok := a.cols[col]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (a *accumulator) result() *Result {
	return &Result{Points: a.points, Summary: a.summary}
}
