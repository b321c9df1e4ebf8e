package tabular

import (
	"context"
	"fmt"

	"github.com/okian/topsis/internal/domain/model"
)

// Default loader configuration constants.
const (
	defaultDelimiter = ','
	// contextCheckInterval is how often, in rows, loading checks for
	// cancellation.
	contextCheckInterval = 100
)

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithDelimiter sets the field delimiter for delimited text sources.
func WithDelimiter(d rune) Option {
	return func(l *Loader) {
		if d != 0 && d != '"' && d != '\r' && d != '\n' {
			l.delimiter = d
		}
	}
}

// Loader reads a Source into a Dataset. It never coerces cell types and
// never writes anything.
type Loader struct {
	delimiter rune
}

// NewLoader creates a loader with configuration options.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{delimiter: defaultDelimiter}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load detects the source's format, opens it and parses it. The format is
// checked before the source is opened, so an unsupported name fails with
// ErrUnsupportedFormat even when it does not exist.
func (l *Loader) Load(ctx context.Context, src Source) (*model.Dataset, error) {
	format, err := DetectFormat(src.Name())
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var records [][]string
	switch format {
	case FormatCSV:
		records, err = readCSV(ctx, rc, l.delimiter)
	case FormatXLSX:
		records, err = readXLSX(ctx, rc)
	}
	if err != nil {
		return nil, err
	}
	return buildDataset(records)
}

// buildDataset takes the first record as header and pads shorter rows to
// the header width. A row wider than the header is malformed.
func buildDataset(records [][]string) (*model.Dataset, error) {
	ds := &model.Dataset{}
	if len(records) == 0 {
		return ds, nil
	}
	ds.Header = records[0]
	width := len(ds.Header)
	ds.Rows = make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) > width {
			return nil, model.Errorf("tabular.load", model.ErrMalformedSource,
				"row %d has %d fields, header has %d", i+1, len(rec), width).At(-1, i)
		}
		row := make([]string, width)
		copy(row, rec)
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
