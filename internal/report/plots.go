package report

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

// ErrNothingToPlot is returned when a chart has no data points.
var ErrNothingToPlot = errors.New("nothing to plot")

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// PlatformBar charts the row count per surviving platform, largest first.
func PlatformBar(path string, games []pipeline.Game) error {
	counts := map[string]int{}
	for _, g := range games {
		counts[g.Platform]++
	}
	if len(counts) == 0 {
		return ErrNothingToPlot
	}
	names := make([]string, 0, len(counts))
	for k := range counts {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] == counts[names[j]] {
			return names[i] < names[j]
		}
		return counts[names[i]] > counts[names[j]]
	})
	vals := make(plotter.Values, len(names))
	for i, n := range names {
		vals[i] = float64(counts[n])
	}

	p := plot.New()
	p.Title.Text = "Rows per platform"
	p.Y.Label.Text = "rows"
	bars, err := plotter.NewBarChart(vals, vg.Points(14))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(names...)
	return save(p, path)
}

// CriticByGenreBox draws one box of critic scores per genre.
func CriticByGenreBox(path string, games []pipeline.Game) error {
	byGenre := map[string]plotter.Values{}
	for _, g := range games {
		if g.CriticScore.Valid {
			byGenre[g.Genre] = append(byGenre[g.Genre], g.CriticScore.V)
		}
	}
	if len(byGenre) == 0 {
		return ErrNothingToPlot
	}
	genres := make([]string, 0, len(byGenre))
	for k := range byGenre {
		genres = append(genres, k)
	}
	sort.Strings(genres)

	p := plot.New()
	p.Title.Text = "Critic score by genre"
	p.Y.Label.Text = "critic score"
	for i, genre := range genres {
		box, err := plotter.NewBoxPlot(vg.Points(20), float64(i), byGenre[genre])
		if err != nil {
			return fmt.Errorf("box %s: %w", genre, err)
		}
		p.Add(box)
	}
	p.NominalX(genres...)
	return save(p, path)
}

// SalesVsRating scatters mean critic score against total sales with the fitted line.
func SalesVsRating(path string, combined []pipeline.Combined, fit *stats.Fit) error {
	if len(combined) == 0 {
		return ErrNothingToPlot
	}
	pts := make(plotter.XYs, len(combined))
	for i, c := range combined {
		pts[i].X, pts[i].Y = c.TotalSales, c.MeanCritic
	}
	p := plot.New()
	p.Title.Text = "Mean critic score vs total sales"
	p.X.Label.Text = "total sales (M)"
	p.Y.Label.Text = "mean critic score"
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	p.Add(plotter.NewGrid(), sc)
	if fit != nil {
		line := plotter.NewFunction(func(x float64) float64 {
			y, err := fit.Predict([]float64{1, x})
			if err != nil {
				return math.NaN()
			}
			return y
		})
		p.Add(line)
		p.Legend.Add(fit.Formula(), line)
	}
	return save(p, path)
}

// Residuals plots residual against fitted value for one model.
func Residuals(path string, fit *stats.Fit) error {
	if fit == nil || len(fit.Residuals) == 0 {
		return ErrNothingToPlot
	}
	pts := make(plotter.XYs, len(fit.Residuals))
	for i := range fit.Residuals {
		pts[i].X, pts[i].Y = fit.Fitted[i], fit.Residuals[i]
	}
	p := plot.New()
	p.Title.Text = "Residuals: " + fit.Formula()
	p.X.Label.Text = "fitted"
	p.Y.Label.Text = "residual"
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	p.Add(plotter.NewGrid(), sc, zero)
	return save(p, path)
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}
