package tabular

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/okian/topsis/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet of a workbook. Cells are read raw,
// without number formatting, and fully blank rows are skipped.
func readXLSX(ctx context.Context, r io.Reader) ([][]string, error) {
	const op = "tabular.read_xlsx"
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, model.WrapKind(op, model.ErrSourceNotFound, err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf))
	if err != nil {
		return nil, model.WrapKind(op, model.ErrMalformedSource, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, model.WrapKind(op, model.ErrMalformedSource, err)
	}

	records := make([][]string, 0, len(rows))
	for i, row := range rows {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("load cancelled: %w", err)
			}
		}
		if blank(row) {
			continue
		}
		records = append(records, row)
	}
	return records, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
