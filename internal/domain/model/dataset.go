// Package model contains domain models passed between layers.
package model

// Dataset is a table loaded from a source: a header row and raw cell text.
// The first column is an opaque identifier; the remaining columns are
// criteria. Cells are kept as text because type enforcement happens in
// validation, not at load time. Column order is the index space shared with
// weights and impacts.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// Columns returns the total number of columns including the identifier.
func (d *Dataset) Columns() int {
	return len(d.Header)
}

// CriteriaCount returns the number of criterion columns.
func (d *Dataset) CriteriaCount() int {
	if len(d.Header) == 0 {
		return 0
	}
	return len(d.Header) - 1
}

// CriteriaNames returns the header names of the criterion columns.
func (d *Dataset) CriteriaNames() []string {
	if len(d.Header) < 2 {
		return nil
	}
	out := make([]string, len(d.Header)-1)
	copy(out, d.Header[1:])
	return out
}

// Identifiers returns the identifier cell of every row, in row order.
func (d *Dataset) Identifiers() []string {
	ids := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		if len(row) > 0 {
			ids[i] = row[0]
		}
	}
	return ids
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}
