package model

import "strconv"

// Output column names appended to the original header.
const (
	ScoreColumn = "Topsis Score"
	RankColumn  = "Rank"
)

// Result is a dataset augmented with one composite score and one rank per
// row. Scores and Ranks are aligned with Dataset.Rows.
type Result struct {
	Dataset *Dataset
	Scores  []float64
	Ranks   []int
}

// ResultRow is a single row of a Result.
type ResultRow struct {
	ID     string
	Values []string
	Score  float64
	Rank   int
}

// Header returns the output header: the original columns followed by the
// score and rank columns.
func (r *Result) Header() []string {
	h := make([]string, 0, len(r.Dataset.Header)+2)
	h = append(h, r.Dataset.Header...)
	return append(h, ScoreColumn, RankColumn)
}

// Rows returns the result rows in input order.
func (r *Result) Rows() []ResultRow {
	out := make([]ResultRow, len(r.Dataset.Rows))
	for i, row := range r.Dataset.Rows {
		rr := ResultRow{Score: r.Scores[i], Rank: r.Ranks[i]}
		if len(row) > 0 {
			rr.ID = row[0]
			rr.Values = append([]string(nil), row[1:]...)
		}
		out[i] = rr
	}
	return out
}

// Records renders every row, original cells first, as text ready to be
// written out. Scores use the shortest representation that round-trips.
func (r *Result) Records() [][]string {
	out := make([][]string, len(r.Dataset.Rows))
	for i, row := range r.Dataset.Rows {
		rec := make([]string, 0, len(row)+2)
		rec = append(rec, row...)
		rec = append(rec, strconv.FormatFloat(r.Scores[i], 'g', -1, 64), strconv.Itoa(r.Ranks[i]))
		out[i] = rec
	}
	return out
}

// Best returns the row ranked first, or false for an empty result.
func (r *Result) Best() (ResultRow, bool) {
	for _, row := range r.Rows() {
		if row.Rank == 1 {
			return row, true
		}
	}
	return ResultRow{}, false
}
