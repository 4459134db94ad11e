// Package profile computes descriptive statistics over a loaded sales table.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/gamestats-cli/internal/dataset"
)

// Options controls profiling behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// MaxCategories caps the top values listed per categorical column.
	MaxCategories int
}

// DefaultOptions returns reasonable defaults for a sales table.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		MaxCategories:    8,
	}
}

// Report is a markdown-friendly profile of a loaded table.
type Report struct {
	Name        string
	Rows        int
	Cols        []ColumnSummary
	Samples     [][]string
	Warnings    []string
	ValueCounts []ValueCounts
	Groups      []GroupResult
	Corr        *CorrMatrix
}

// ColumnSummary captures inferred kind and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|categorical|text|empty
	NonNull int
	Missing int
	Unique  int
	// NonNumeric counts text entries in an otherwise numeric column (e.g. "tbd").
	NonNumeric int
	// Numeric stats
	Min  float64
	Max  float64
	Mean float64
	Std  float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues []CategoryCount
}

// MissingPct is the share of missing cells in percent.
func (c ColumnSummary) MissingPct() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100.0 / float64(total)
}

type CategoryCount struct {
	Value string
	Count int
}

// ValueCounts lists every distinct value of one column, most frequent first.
type ValueCounts struct {
	Column string
	Values []CategoryCount
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

type column struct {
	name string
	cell func(*dataset.GameRecord) string
}

func intCell(v func(*dataset.GameRecord) (int, bool)) func(*dataset.GameRecord) string {
	return func(r *dataset.GameRecord) string {
		if x, ok := v(r); ok {
			return strconv.Itoa(x)
		}
		return ""
	}
}

func floatCell(v func(*dataset.GameRecord) (float64, bool)) func(*dataset.GameRecord) string {
	return func(r *dataset.GameRecord) string {
		if x, ok := v(r); ok {
			return strconv.FormatFloat(x, 'g', -1, 64)
		}
		return ""
	}
}

// columns in source file order.
var columns = []column{
	{dataset.ColName, func(r *dataset.GameRecord) string { return r.Title }},
	{dataset.ColPlatform, func(r *dataset.GameRecord) string { return r.Platform }},
	{dataset.ColYear, intCell(func(r *dataset.GameRecord) (int, bool) { return r.Year.V, r.Year.Valid })},
	{dataset.ColGenre, func(r *dataset.GameRecord) string { return r.Genre }},
	{dataset.ColPublisher, func(r *dataset.GameRecord) string { return r.Publisher }},
	{dataset.ColNASales, floatCell(func(r *dataset.GameRecord) (float64, bool) { return r.NASales.V, r.NASales.Valid })},
	{dataset.ColEUSales, floatCell(func(r *dataset.GameRecord) (float64, bool) { return r.EUSales.V, r.EUSales.Valid })},
	{dataset.ColJPSales, floatCell(func(r *dataset.GameRecord) (float64, bool) { return r.JPSales.V, r.JPSales.Valid })},
	{dataset.ColOtherSales, floatCell(func(r *dataset.GameRecord) (float64, bool) { return r.OtherSales.V, r.OtherSales.Valid })},
	{dataset.ColGlobalSales, floatCell(func(r *dataset.GameRecord) (float64, bool) { return r.GlobalSales.V, r.GlobalSales.Valid })},
	{dataset.ColCriticScore, floatCell(func(r *dataset.GameRecord) (float64, bool) { return r.CriticScore.V, r.CriticScore.Valid })},
	{dataset.ColCriticCount, intCell(func(r *dataset.GameRecord) (int, bool) { return r.CriticCount.V, r.CriticCount.Valid })},
	{dataset.ColUserScore, func(r *dataset.GameRecord) string { return r.UserScore }},
	{dataset.ColUserCount, intCell(func(r *dataset.GameRecord) (int, bool) { return r.UserCount.V, r.UserCount.Valid })},
	{dataset.ColDeveloper, func(r *dataset.GameRecord) string { return r.Developer }},
	{dataset.ColRating, func(r *dataset.GameRecord) string { return r.Rating }},
}

// valueCountColumns get a full frequency table in the report.
var valueCountColumns = []string{dataset.ColPlatform, dataset.ColGenre, dataset.ColYear}

// Profile summarizes every column of t.
func Profile(t *dataset.Table, opt Options) (*Report, error) {
	if t == nil {
		return nil, fmt.Errorf("profile: nil table")
	}
	ncol := len(columns)
	index := map[string]int{}
	for i, c := range columns {
		index[strings.ToLower(c.name)] = i
	}
	var groupIdx []int
	for _, name := range opt.GroupBy {
		idx, ok := index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("profile: unknown group-by column %q", name)
		}
		groupIdx = append(groupIdx, idx)
	}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}

	type colAcc struct {
		nonNil int
		miss   int
		// numeric stats via Welford
		n      int
		mean   float64
		m2     float64
		min    float64
		max    float64
		txtCnt int
		cats   map[string]int
		vals   []float64
	}
	accs := make([]*colAcc, ncol)
	for i := range accs {
		accs[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	// numeric value per row and column; NaN marks missing
	rowNums := make([][]float64, ncol)
	for i := range rowNums {
		rowNums[i] = make([]float64, 0, len(t.Rows))
	}

	type gAcc struct {
		size int
		sum  map[int]float64
		cnt  map[int]int
		min  map[int]float64
		max  map[int]float64
	}
	groups := map[string]*gAcc{}

	rep := &Report{Name: t.Name, Rows: t.Len()}
	cells := make([]string, ncol)
	for ri := range t.Rows {
		r := &t.Rows[ri]
		for j, c := range columns {
			cells[j] = strings.TrimSpace(c.cell(r))
		}
		if len(rep.Samples) < sampleRows {
			rep.Samples = append(rep.Samples, append([]string(nil), cells...))
		}
		var gkey string
		var ga *gAcc
		if len(groupIdx) > 0 {
			parts := make([]string, 0, len(groupIdx))
			for _, idx := range groupIdx {
				parts = append(parts, fmt.Sprintf("%s=%s", columns[idx].name, safeVal(cells[idx])))
			}
			gkey = strings.Join(parts, " | ")
			ga = groups[gkey]
			if ga == nil {
				ga = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
				groups[gkey] = ga
			}
			ga.size++
		}
		for j, v := range cells {
			c := accs[j]
			if v == "" {
				c.miss++
				rowNums[j] = append(rowNums[j], math.NaN())
				continue
			}
			c.nonNil++
			if len(c.cats) <= 10000 && len(v) <= 64 {
				c.cats[v]++
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
				c.txtCnt++
				rowNums[j] = append(rowNums[j], math.NaN())
				continue
			}
			rowNums[j] = append(rowNums[j], x)
			c.n++
			if x < c.min {
				c.min = x
			}
			if x > c.max {
				c.max = x
			}
			delta := x - c.mean
			c.mean += delta / float64(c.n)
			c.m2 += delta * (x - c.mean)
			c.vals = append(c.vals, x)
			if ga != nil {
				ga.sum[j] += x
				ga.cnt[j]++
				if _, ok := ga.min[j]; !ok || x < ga.min[j] {
					ga.min[j] = x
				}
				if _, ok := ga.max[j]; !ok || x > ga.max[j] {
					ga.max[j] = x
				}
			}
		}
	}

	maxCats := opt.MaxCategories
	if maxCats <= 0 {
		maxCats = 8
	}
	rep.Cols = make([]ColumnSummary, 0, ncol)
	numCols := []int{}
	for idx, c := range accs {
		s := ColumnSummary{Name: columns[idx].name, NonNull: c.nonNil, Missing: c.miss, Unique: len(c.cats)}
		switch {
		case c.nonNil == 0:
			s.Kind = "empty"
		case c.n > 0 && c.n >= c.txtCnt:
			s.Kind = "numeric"
			s.NonNumeric = c.txtCnt
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
			numCols = append(numCols, idx)
			if opt.Outliers && len(c.vals) >= 8 {
				thr := opt.OutlierThreshold
				if thr <= 0 {
					thr = 3.5
				}
				s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(c.vals, thr)
				s.OutlierThreshold = thr
			}
		case len(c.cats) > 0:
			s.Kind = "categorical"
			s.TopValues = topValues(c.cats, maxCats)
		default:
			s.Kind = "text"
		}
		rep.Cols = append(rep.Cols, s)
	}

	for _, name := range valueCountColumns {
		acc := accs[index[strings.ToLower(name)]]
		rep.ValueCounts = append(rep.ValueCounts, ValueCounts{Column: name, Values: topValues(acc.cats, 0)})
	}

	if t.Malformed > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d malformed rows were padded, truncated or left empty", t.Malformed))
	}
	if t.Truncated {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only the first %d rows due to MaxRows", rep.Rows))
	}

	if len(groups) > 0 {
		out := make([]GroupResult, 0, len(groups))
		for k, ga := range groups {
			gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
			for _, idx := range numCols {
				if ga.cnt[idx] == 0 {
					continue
				}
				gr.Metrics[columns[idx].name] = NumSummary{Count: ga.cnt[idx], Min: ga.min[idx], Max: ga.max[idx], Mean: ga.sum[idx] / float64(ga.cnt[idx])}
			}
			out = append(out, gr)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Size == out[j].Size {
				return out[i].Key < out[j].Key
			}
			return out[i].Size > out[j].Size
		})
		if len(out) > 20 {
			out = out[:20]
		}
		rep.Groups = out
	}

	if opt.Correlations && len(numCols) >= 2 {
		n := len(numCols)
		names := make([]string, n)
		vals := make([][]float64, n)
		for i := range vals {
			names[i] = columns[numCols[i]].name
			vals[i] = make([]float64, n)
			vals[i][i] = 1
		}
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				r := pairwiseCorrelation(rowNums[numCols[a]], rowNums[numCols[b]])
				vals[a][b], vals[b][a] = r, r
			}
		}
		rep.Corr = &CorrMatrix{Columns: names, Values: vals}
	}
	return rep, nil
}

// pairwiseCorrelation is Pearson's r over rows where both values are present.
// It is 0 when fewer than two pairs exist or either side is constant.
func pairwiseCorrelation(xs, ys []float64) float64 {
	var x, y []float64
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		x = append(x, xs[i])
		y = append(y, ys[i])
	}
	if len(x) < 2 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// topValues sorts categories by count then value; limit 0 keeps all.
func topValues(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
