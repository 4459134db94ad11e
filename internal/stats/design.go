package stats

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// InterceptTerm names the constant column of every design.
const InterceptTerm = "(Intercept)"

var (
	// ErrEmptyDesign is returned when a model has no observations or no predictors.
	ErrEmptyDesign = errors.New("empty design matrix")
	// ErrDimension is returned when inputs disagree in length or there are fewer rows than terms.
	ErrDimension = errors.New("dimension mismatch")
	// ErrSingular is returned when the normal equations cannot be solved.
	ErrSingular = errors.New("singular design matrix")
)

// Design is a model matrix with named columns.
type Design struct {
	X     *mat.Dense
	Terms []string
	// Predictor is the name of the explanatory variable.
	Predictor string
	// Reference is the dropped level of a categorical predictor; empty for numeric ones.
	Reference string
	// Levels lists every level of a categorical predictor in coding order.
	Levels []string
}

// Rows returns the number of observations.
func (d *Design) Rows() int {
	if d == nil || d.X == nil {
		return 0
	}
	r, _ := d.X.Dims()
	return r
}

// NumericDesign builds an intercept plus one continuous predictor.
func NumericDesign(name string, x []float64) (*Design, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyDesign)
	}
	data := make([]float64, 0, 2*len(x))
	for _, v := range x {
		data = append(data, 1, v)
	}
	return &Design{
		X:         mat.NewDense(len(x), 2, data),
		Terms:     []string{InterceptTerm, name},
		Predictor: name,
	}, nil
}

// CategoricalDesign dummy-codes a categorical predictor. The first level in sorted order
// is the reference and gets no column; every other level L gets a column "name[L]".
func CategoricalDesign(name string, values []string) (*Design, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmptyDesign)
	}
	seen := map[string]bool{}
	var levels []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			levels = append(levels, v)
		}
	}
	sort.Strings(levels)
	col := make(map[string]int, len(levels))
	terms := []string{InterceptTerm}
	for i, l := range levels[1:] {
		col[l] = i + 1
		terms = append(terms, fmt.Sprintf("%s[%s]", name, l))
	}

	x := mat.NewDense(len(values), len(terms), nil)
	for i, v := range values {
		x.Set(i, 0, 1)
		if j, ok := col[v]; ok {
			x.Set(i, j, 1)
		}
	}
	return &Design{
		X:         x,
		Terms:     terms,
		Predictor: name,
		Reference: levels[0],
		Levels:    levels,
	}, nil
}
