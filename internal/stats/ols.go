package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Term is one row of a coefficient table.
type Term struct {
	Name     string
	Estimate float64
	StdErr   float64
	TStat    float64
	PValue   float64
}

// Fit is the result of an ordinary least squares regression.
type Fit struct {
	Response  string
	Predictor string
	Reference string
	Terms     []Term

	Observed  []float64
	Fitted    []float64
	Residuals []float64

	N  int
	DF int // residual degrees of freedom
	// Sigma is the residual standard error.
	Sigma       float64
	RSquared    float64
	AdjRSquared float64
	FStat       float64
	FPValue     float64
}

// Formula renders the model as "response ~ predictor".
func (f *Fit) Formula() string {
	return fmt.Sprintf("%s ~ %s", f.Response, f.Predictor)
}

// Coefficient returns the term with the given name.
func (f *Fit) Coefficient(name string) (Term, bool) {
	for _, t := range f.Terms {
		if t.Name == name {
			return t, true
		}
	}
	return Term{}, false
}

// Predict evaluates the fitted model on a row of the design (including the intercept column).
func (f *Fit) Predict(row []float64) (float64, error) {
	if len(row) != len(f.Terms) {
		return 0, fmt.Errorf("predict: %w: got %d values for %d terms", ErrDimension, len(row), len(f.Terms))
	}
	var y float64
	for i, t := range f.Terms {
		y += t.Estimate * row[i]
	}
	return y, nil
}

// OLS regresses y on the design. Coefficients come from a QR solve; standard errors use
// sigma^2 (X'X)^-1 and p-values the two-sided Student t distribution.
func OLS(response string, d *Design, y []float64) (*Fit, error) {
	if d == nil || d.X == nil || len(y) == 0 {
		return nil, fmt.Errorf("ols %s: %w", response, ErrEmptyDesign)
	}
	n, p := d.X.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("ols %s: %w: %d rows, %d responses", response, ErrDimension, n, len(y))
	}
	if n < p {
		return nil, fmt.Errorf("ols %s: %w: %d rows for %d terms", response, ErrDimension, n, p)
	}

	yv := mat.NewVecDense(n, append([]float64(nil), y...))
	var qr mat.QR
	qr.Factorize(d.X)
	var r mat.Dense
	qr.RTo(&r)
	if rankDeficient(&r, n, p) {
		return nil, fmt.Errorf("ols %s: %w: design is rank deficient", response, ErrSingular)
	}
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, yv); err != nil {
		return nil, fmt.Errorf("ols %s: %w: %v", response, ErrSingular, err)
	}

	var fittedV mat.VecDense
	fittedV.MulVec(d.X, &beta)
	fitted := make([]float64, n)
	resid := make([]float64, n)
	var ssr float64
	for i := 0; i < n; i++ {
		fitted[i] = fittedV.AtVec(i)
		resid[i] = y[i] - fitted[i]
		ssr += resid[i] * resid[i]
	}

	df := n - p
	sigma2 := math.NaN()
	if df > 0 {
		sigma2 = ssr / float64(df)
	}

	var xtx, inv mat.Dense
	xtx.Mul(d.X.T(), d.X)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("ols %s: %w: %v", response, ErrSingular, err)
	}

	fit := &Fit{
		Response:  response,
		Predictor: d.Predictor,
		Reference: d.Reference,
		Observed:  append([]float64(nil), y...),
		Fitted:    fitted,
		Residuals: resid,
		N:         n,
		DF:        df,
		Sigma:     math.Sqrt(sigma2),
		Terms:     make([]Term, p),
	}
	for j := 0; j < p; j++ {
		est := beta.AtVec(j)
		se := math.Sqrt(sigma2 * inv.At(j, j))
		t := tStat(est, se)
		fit.Terms[j] = Term{
			Name:     d.Terms[j],
			Estimate: est,
			StdErr:   se,
			TStat:    t,
			PValue:   twoSidedP(t, df),
		}
	}

	mean := stat.Mean(y, nil)
	var sst float64
	for _, v := range y {
		sst += (v - mean) * (v - mean)
	}
	fit.RSquared = math.NaN()
	fit.AdjRSquared = math.NaN()
	fit.FStat = math.NaN()
	fit.FPValue = math.NaN()
	if sst > 0 {
		fit.RSquared = 1 - ssr/sst
		if df > 0 {
			fit.AdjRSquared = 1 - (1-fit.RSquared)*float64(n-1)/float64(df)
		}
	}
	if k := p - 1; k > 0 && df > 0 && sst > 0 {
		ssm := sst - ssr
		if ssr == 0 {
			fit.FStat = math.Inf(1)
			fit.FPValue = 0
		} else {
			fit.FStat = (ssm / float64(k)) / (ssr / float64(df))
			fd := distuv.F{D1: float64(k), D2: float64(df)}
			fit.FPValue = 1 - fd.CDF(fit.FStat)
		}
	}
	return fit, nil
}

// rankDeficient applies the usual matrix-rank tolerance to the diagonal of R.
func rankDeficient(r *mat.Dense, n, p int) bool {
	var top float64
	for j := 0; j < p; j++ {
		top = math.Max(top, math.Abs(r.At(j, j)))
	}
	if top == 0 {
		return true
	}
	tol := top * float64(max(n, p)) * epsilon
	for j := 0; j < p; j++ {
		if math.Abs(r.At(j, j)) <= tol {
			return true
		}
	}
	return false
}

const epsilon = 2.220446049250313e-16

func tStat(est, se float64) float64 {
	switch {
	case math.IsNaN(se):
		return math.NaN()
	case se == 0 && est == 0:
		return math.NaN()
	case se == 0:
		return math.Copysign(math.Inf(1), est)
	}
	return est / se
}

func twoSidedP(t float64, df int) float64 {
	if df <= 0 || math.IsNaN(t) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	st := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return 2 * (1 - st.CDF(math.Abs(t)))
}
