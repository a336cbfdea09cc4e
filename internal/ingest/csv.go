package ingest

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/JaimeV365/segmentor-sub003/internal/grid"
)

// ReadCSV parses a CSV survey export. The first row must be a header
// naming at least the satisfaction and loyalty columns.
func ReadCSV(ctx context.Context, r io.Reader, sat, loy grid.Scale, opts Options) (*Result, error) {
	decoded, err := decodeReader(r, opts.Charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: empty file")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read header")
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	acc := newAccumulator(sat, loy, cols)
	for row := 2; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "ingest: read csv")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: row %d", row)
		}
		if opts.Progress != nil {
			opts.Progress()
		}
		acc.add(row, record)
	}
	return acc.result(), nil
}

// decodeReader wraps r so that legacy single-byte exports decode to
// UTF-8. Charset names are resolved the way browsers do, so "latin1",
// "windows-1252" and friends all work.
func decodeReader(r io.Reader, charset string) (io.Reader, error) {
	if charset == "" {
		return r, nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: unknown charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
