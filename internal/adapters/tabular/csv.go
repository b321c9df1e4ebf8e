package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/topsis/internal/domain/model"
)

const utf8BOM = "\ufeff"

// readCSV parses delimited text. Blank lines are skipped; rows may have any
// number of fields and are reconciled against the header afterwards.
// Syntax errors are ErrMalformedSource; failures of the reader itself are
// ErrSourceNotFound.
func readCSV(ctx context.Context, r io.Reader, delimiter rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1

	var records [][]string
	for n := 0; ; n++ {
		if n%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("load cancelled: %w", err)
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, model.WrapKind("tabular.read_csv", model.ErrMalformedSource, err)
			}
			return nil, model.WrapKind("tabular.read_csv", model.ErrSourceNotFound, err)
		}
		if n == 0 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], utf8BOM)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteCSV serializes a result as comma-separated text with a header row:
// the original columns, then the score column, then the rank column.
func WriteCSV(w io.Writer, res *model.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(res.Records()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}
