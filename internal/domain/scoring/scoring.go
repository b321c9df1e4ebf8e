// Package scoring computes TOPSIS closeness scores and ranks.
//
// The pipeline runs on a validated rows x criteria matrix:
// normalize each column by its Euclidean norm, scale by the criterion
// weights, derive ideal-best and ideal-worst points from the impacts,
// measure each row's distance to both points and score the row by its
// relative closeness to the ideal-worst point. Every function is pure and
// safe for concurrent use; no step logs or performs I/O.
package scoring

import (
	"math"
	"sort"

	"github.com/okian/topsis/internal/domain/model"
)

const op = "scoring"

// Input bundles a validated criteria matrix with its weights and impacts.
type Input struct {
	Matrix  *model.Matrix
	Weights model.Weights
	Impacts []model.Impact
}

// Evaluation holds the final scores and ranks together with every
// intermediate value, so callers can explain a ranking.
type Evaluation struct {
	Norms      []float64
	Normalized *model.Matrix
	Weighted   *model.Matrix
	IdealBest  []float64
	IdealWorst []float64
	SPlus      []float64
	SMinus     []float64
	Scores     []float64
	Ranks      []int
}

// Scorer evaluates a validated input.
type Scorer interface {
	Evaluate(in Input) (*Evaluation, error)
}

// Engine is the TOPSIS Scorer. It holds no state.
type Engine struct{}

// NewEngine returns a TOPSIS engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs the full pipeline. Any ill-defined numeric case aborts the
// evaluation; no partially scored result is returned.
func (e *Engine) Evaluate(in Input) (*Evaluation, error) {
	if in.Matrix == nil {
		return nil, model.Errorf(op, model.ErrTooFewColumns, "no criteria matrix")
	}
	if len(in.Weights) != in.Matrix.Cols() || len(in.Impacts) != in.Matrix.Cols() {
		return nil, model.Errorf(op, model.ErrCriteriaCountMismatch,
			"matrix has %d criteria, got %d weights and %d impacts",
			in.Matrix.Cols(), len(in.Weights), len(in.Impacts))
	}

	normalized, norms, err := Normalize(in.Matrix)
	if err != nil {
		return nil, err
	}
	weighted, err := ApplyWeights(normalized, in.Weights)
	if err != nil {
		return nil, err
	}
	best, worst, err := IdealPoints(weighted, in.Impacts)
	if err != nil {
		return nil, err
	}
	sPlus, err := Separations(weighted, best)
	if err != nil {
		return nil, err
	}
	sMinus, err := Separations(weighted, worst)
	if err != nil {
		return nil, err
	}
	scores, err := Closeness(sPlus, sMinus)
	if err != nil {
		return nil, err
	}

	return &Evaluation{
		Norms:      norms,
		Normalized: normalized,
		Weighted:   weighted,
		IdealBest:  best,
		IdealWorst: worst,
		SPlus:      sPlus,
		SMinus:     sMinus,
		Scores:     scores,
		Ranks:      Rank(scores),
	}, nil
}

// Normalize divides every column by its Euclidean norm. A column whose norm
// is zero, including a column with no rows, fails with ErrDegenerateColumn.
// Error positions use dataset column indexes (criterion j is column j+1).
func Normalize(m *model.Matrix) (*model.Matrix, []float64, error) {
	rows, cols := m.Shape()
	out := model.NewMatrix(rows, cols)
	norms := make([]float64, cols)
	for j := 0; j < cols; j++ {
		norm := euclidean(m.Col(j))
		if norm == 0 || math.IsInf(norm, 0) || math.IsNaN(norm) {
			return nil, nil, model.Errorf(op, model.ErrDegenerateColumn,
				"criterion %d has norm %g", j+1, norm).At(j+1, -1)
		}
		norms[j] = norm
		for i := 0; i < rows; i++ {
			out.Set(i, j, m.At(i, j)/norm)
		}
	}
	return out, norms, nil
}

// ApplyWeights multiplies column j by w[j].
func ApplyWeights(m *model.Matrix, w model.Weights) (*model.Matrix, error) {
	rows, cols := m.Shape()
	if len(w) != cols {
		return nil, model.Errorf(op, model.ErrCriteriaCountMismatch, "%d weights for %d columns", len(w), cols)
	}
	out := model.NewMatrix(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, m.At(i, j)*w[j])
		}
	}
	return out, nil
}

// IdealPoints returns the ideal-best and ideal-worst vectors. For a
// maximized criterion the best value is the column maximum and the worst
// the minimum; a minimized criterion swaps the two.
func IdealPoints(m *model.Matrix, impacts []model.Impact) ([]float64, []float64, error) {
	rows, cols := m.Shape()
	if len(impacts) != cols {
		return nil, nil, model.Errorf(op, model.ErrCriteriaCountMismatch, "%d impacts for %d columns", len(impacts), cols)
	}
	if rows == 0 {
		return nil, nil, model.Errorf(op, model.ErrDegenerateColumn, "no rows")
	}
	best := make([]float64, cols)
	worst := make([]float64, cols)
	for j := 0; j < cols; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for i := 0; i < rows; i++ {
			v := m.At(i, j)
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		switch impacts[j] {
		case model.Maximize:
			best[j], worst[j] = hi, lo
		case model.Minimize:
			best[j], worst[j] = lo, hi
		default:
			return nil, nil, model.Errorf(op, model.ErrInvalidImpactSymbol, "impact %d is %q", j+1, string(impacts[j])).At(j, -1)
		}
	}
	return best, worst, nil
}

// Separations returns the Euclidean distance from every row of m to ref.
func Separations(m *model.Matrix, ref []float64) ([]float64, error) {
	rows, cols := m.Shape()
	if len(ref) != cols {
		return nil, model.Errorf(op, model.ErrCriteriaCountMismatch, "reference has %d values for %d columns", len(ref), cols)
	}
	out := make([]float64, rows)
	diff := make([]float64, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			diff[j] = m.At(i, j) - ref[j]
		}
		out[i] = euclidean(diff)
	}
	return out, nil
}

// Closeness computes s_minus / (s_plus + s_minus) per row. A row sitting on
// both ideal points has no defined score and fails with ErrDegenerateScore.
func Closeness(sPlus, sMinus []float64) ([]float64, error) {
	if len(sPlus) != len(sMinus) {
		return nil, model.Errorf(op, model.ErrCriteriaCountMismatch, "%d s_plus and %d s_minus values", len(sPlus), len(sMinus))
	}
	out := make([]float64, len(sPlus))
	for i := range sPlus {
		total := sPlus[i] + sMinus[i]
		if total == 0 {
			return nil, model.Errorf(op, model.ErrDegenerateScore,
				"row %d coincides with both ideal points", i+1).At(-1, i)
		}
		score := sMinus[i] / total
		if math.IsNaN(score) || math.IsInf(score, 0) {
			return nil, model.Errorf(op, model.ErrDegenerateScore, "row %d score is %g", i+1, score).At(-1, i)
		}
		out[i] = score
	}
	return out, nil
}

// Order returns row indexes sorted by descending score. The sort is stable,
// so rows with equal scores keep their input order.
func Order(scores []float64) []int {
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	return idx
}

// Rank assigns rank 1 to the highest score. Equal scores get consecutive
// ranks in input order: the earlier row ranks better.
func Rank(scores []float64) []int {
	ranks := make([]int, len(scores))
	for pos, i := range Order(scores) {
		ranks[i] = pos + 1
	}
	return ranks
}

// euclidean returns the 2-norm of v, scaling by the largest magnitude so
// that squaring large values cannot overflow.
func euclidean(v []float64) float64 {
	var scale float64
	for _, x := range v {
		scale = math.Max(scale, math.Abs(x))
	}
	if scale == 0 || math.IsInf(scale, 0) {
		return scale
	}
	var sum float64
	for _, x := range v {
		r := x / scale
		sum += r * r
	}
	return scale * math.Sqrt(sum)
}
