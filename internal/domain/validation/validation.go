// Package validation enforces the shape, type and cardinality rules a
// dataset, weight vector and impact vector must satisfy before scoring.
//
// Checks run in a fixed order and the first failure is reported:
//
//  1. at least three columns (identifier plus two criteria)
//  2. every criterion cell is a finite real number
//  3. as many weights as impacts
//  4. as many weights as criterion columns
//  5. every impact is "+" or "-"
package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/okian/topsis/internal/domain/model"
)

const op = "validation"

// MinColumns is the smallest accepted column count: one identifier and two
// criteria.
const MinColumns = 3

// Validate checks the inputs and, when they are accepted, returns the
// criterion values coerced into a rows x criteria matrix. No partial result
// is returned on failure.
func Validate(ds *model.Dataset, weights model.Weights, impacts []model.Impact) (*model.Matrix, error) {
	if ds == nil {
		return nil, model.Errorf(op, model.ErrTooFewColumns, "no dataset")
	}
	if ds.Columns() < MinColumns {
		return nil, model.Errorf(op, model.ErrTooFewColumns,
			"input must contain at least %d columns, got %d", MinColumns, ds.Columns())
	}

	m, err := coerce(ds)
	if err != nil {
		return nil, err
	}

	if len(weights) != len(impacts) {
		return nil, model.Errorf(op, model.ErrWeightImpactLengthMismatch,
			"%d weights and %d impacts", len(weights), len(impacts))
	}
	if n := ds.CriteriaCount(); len(weights) != n {
		return nil, model.Errorf(op, model.ErrCriteriaCountMismatch,
			"%d weights/impacts for %d criterion columns", len(weights), n)
	}
	for i, imp := range impacts {
		if !imp.Valid() {
			return nil, model.Errorf(op, model.ErrInvalidImpactSymbol,
				"impact %d is %q; must be %q or %q", i+1, string(imp), model.Maximize, model.Minimize).At(i, -1)
		}
	}
	return m, nil
}

// coerce converts criterion cells to float64, scanning column by column so
// the reported failure is the leftmost offending column.
func coerce(ds *model.Dataset) (*model.Matrix, error) {
	n := ds.CriteriaCount()
	m := model.NewMatrix(ds.Len(), n)
	for j := 0; j < n; j++ {
		for i, row := range ds.Rows {
			cell := ""
			if j+1 < len(row) {
				cell = row[j+1]
			}
			v, ok := parseNumber(cell)
			if !ok {
				return nil, model.Errorf(op, model.ErrNonNumericCriterion,
					"column %q (row %d) holds %q", ds.Header[j+1], i+1, cell).At(j+1, i)
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
