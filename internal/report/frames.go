// Package report renders pipeline results as markdown, console tables, workbooks,
// parquet files and charts.
package report

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

// Column names shared by frames, sheets and parquet rows.
const (
	colRank       = "Rank"
	colTitle      = "Title"
	colTotalSales = "TotalSales"
	colPlatforms  = "Platforms"
	colMeanCritic = "MeanCritic"
	colRows       = "Rows"
	colSalesRank  = "SalesRank"
	colRatingRank = "RatingRank"
	colScore      = "CombinedScore"
	colModel      = "Model"
	colTerm       = "Term"
	colEstimate   = "Estimate"
	colStdErr     = "StdErr"
	colTStat      = "TStat"
	colPValue     = "PValue"
	colIndex      = "Observation"
	colObserved   = "Observed"
	colFitted     = "Fitted"
	colResidual   = "Residual"
)

func limit(n, top int) int {
	if top > 0 && top < n {
		return top
	}
	return n
}

// SalesFrame tabulates the sales ranking; top <= 0 keeps every title.
func SalesFrame(sales []pipeline.SalesTotal, top int) dataframe.DataFrame {
	n := limit(len(sales), top)
	rank := make([]int, n)
	title := make([]string, n)
	total := make([]float64, n)
	platforms := make([]int, n)
	for i, s := range sales[:n] {
		rank[i], title[i], total[i], platforms[i] = s.Rank, s.Title, s.TotalSales, s.Platforms
	}
	return dataframe.New(
		series.New(rank, series.Int, colRank),
		series.New(title, series.String, colTitle),
		series.New(total, series.Float, colTotalSales),
		series.New(platforms, series.Int, colPlatforms),
	)
}

// RatingsFrame tabulates the critic ranking.
func RatingsFrame(ratings []pipeline.RatingMean, top int) dataframe.DataFrame {
	n := limit(len(ratings), top)
	rank := make([]int, n)
	title := make([]string, n)
	mean := make([]float64, n)
	rows := make([]int, n)
	for i, r := range ratings[:n] {
		rank[i], title[i], mean[i], rows[i] = r.Rank, r.Title, r.MeanCritic, r.Rows
	}
	return dataframe.New(
		series.New(rank, series.Int, colRank),
		series.New(title, series.String, colTitle),
		series.New(mean, series.Float, colMeanCritic),
		series.New(rows, series.Int, colRows),
	)
}

// CombinedFrame tabulates the combined ranking.
func CombinedFrame(combined []pipeline.Combined, top int) dataframe.DataFrame {
	n := limit(len(combined), top)
	rank := make([]int, n)
	title := make([]string, n)
	sales := make([]float64, n)
	critic := make([]float64, n)
	salesRank := make([]int, n)
	ratingRank := make([]int, n)
	score := make([]int, n)
	for i, c := range combined[:n] {
		rank[i], title[i] = c.Rank, c.Title
		sales[i], critic[i] = c.TotalSales, c.MeanCritic
		salesRank[i], ratingRank[i], score[i] = c.SalesRank, c.RatingRank, c.Score
	}
	return dataframe.New(
		series.New(rank, series.Int, colRank),
		series.New(title, series.String, colTitle),
		series.New(sales, series.Float, colTotalSales),
		series.New(critic, series.Float, colMeanCritic),
		series.New(salesRank, series.Int, colSalesRank),
		series.New(ratingRank, series.Int, colRatingRank),
		series.New(score, series.Int, colScore),
	)
}

// CoefficientsFrame stacks the coefficient tables of every fit.
func CoefficientsFrame(fits []*stats.Fit) dataframe.DataFrame {
	var model, term []string
	var est, se, tv, pv []float64
	for _, f := range fits {
		if f == nil {
			continue
		}
		for _, t := range f.Terms {
			model = append(model, f.Formula())
			term = append(term, t.Name)
			est = append(est, t.Estimate)
			se = append(se, t.StdErr)
			tv = append(tv, t.TStat)
			pv = append(pv, t.PValue)
		}
	}
	return dataframe.New(
		series.New(model, series.String, colModel),
		series.New(term, series.String, colTerm),
		series.New(est, series.Float, colEstimate),
		series.New(se, series.Float, colStdErr),
		series.New(tv, series.Float, colTStat),
		series.New(pv, series.Float, colPValue),
	)
}

// ResidualsFrame lists observed, fitted and residual values per observation of every fit.
func ResidualsFrame(fits []*stats.Fit) dataframe.DataFrame {
	var model []string
	var idx []int
	var obs, fit, res []float64
	for _, f := range fits {
		if f == nil {
			continue
		}
		for i := range f.Residuals {
			model = append(model, f.Formula())
			idx = append(idx, i+1)
			obs = append(obs, f.Observed[i])
			fit = append(fit, f.Fitted[i])
			res = append(res, f.Residuals[i])
		}
	}
	return dataframe.New(
		series.New(model, series.String, colModel),
		series.New(idx, series.Int, colIndex),
		series.New(obs, series.Float, colObserved),
		series.New(fit, series.Float, colFitted),
		series.New(res, series.Float, colResidual),
	)
}
