package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
)

// ReadXLSX parses an XLSX survey export. The first row of the selected
// sheet must be a header, same mapping as the CSV path.
func ReadXLSX(ctx context.Context, path string, sat, loy grid.Scale, opts Options) (*Result, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}
	sheet, err := pickSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("ingest: sheet %q is empty", sheet.Name)
	}

	cols, err := mapColumns(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	acc := newAccumulator(sat, loy, cols)
	for i, row := range sheet.Rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ingest: read xlsx")
		}
		if opts.Progress != nil {
			opts.Progress()
		}
		acc.add(i+2, rowToStrings(row))
	}
	return acc.result(), nil
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("ingest: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	out := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		out[i] = cell.String()
	}
	return out
}
