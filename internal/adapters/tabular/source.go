// Package tabular loads datasets from delimited text and spreadsheet sources
// and writes scored results back out as delimited text.
package tabular

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/okian/topsis/internal/domain/model"
)

// Format is a supported source format.
type Format string

// Supported formats, keyed by file extension.
const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat infers the format from the name's extension, ignoring case.
// Anything other than .csv or .xlsx fails with ErrUnsupportedFormat.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", model.Errorf("tabular.detect_format", model.ErrUnsupportedFormat,
		"%q: use a .csv or .xlsx file", filepath.Base(name))
}

// Source is a named, openable input. The name only drives format detection.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileSource struct {
	path string
}

// FileSource returns a Source reading the file at path.
func FileSource(path string) Source {
	return fileSource{path: path}
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, model.WrapKind("tabular.open", model.ErrSourceNotFound, err)
	}
	return f, nil
}

type bytesSource struct {
	name string
	data []byte
}

// BytesSource returns a Source over an in-memory payload, such as an
// uploaded file. name supplies the extension.
func BytesSource(name string, data []byte) Source {
	return bytesSource{name: name, data: data}
}

func (s bytesSource) Name() string { return s.name }

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}
