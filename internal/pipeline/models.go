package pipeline

import (
	"fmt"

	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

// Response and predictor names used in model formulas.
const (
	termRating   = "rating"
	termCritic   = "critic_score"
	termSales    = "total_sales"
	termPlatform = "platform"
	termGenre    = "genre"
)

// Models holds the three hypothesis regressions.
type Models struct {
	// RatingBySales is mean critic score ~ total sales over the combined ranking.
	RatingBySales *stats.Fit
	// CriticByPlatform is critic score ~ platform over the imputed rows.
	CriticByPlatform *stats.Fit
	// CriticByGenre is critic score ~ genre over the imputed rows.
	CriticByGenre *stats.Fit
}

// All returns the fits in report order.
func (m *Models) All() []*stats.Fit {
	if m == nil {
		return nil
	}
	return []*stats.Fit{m.RatingBySales, m.CriticByPlatform, m.CriticByGenre}
}

// FitModels fits the three regressions. Rows whose critic score is still null after
// imputation are left out of the categorical fits. Any fit failure is returned.
func FitModels(im *Imputed, combined []Combined) (*Models, error) {
	m := &Models{}

	sales := make([]float64, len(combined))
	rating := make([]float64, len(combined))
	for i, c := range combined {
		sales[i] = c.TotalSales
		rating[i] = c.MeanCritic
	}
	d, err := stats.NumericDesign(termSales, sales)
	if err != nil {
		return nil, fmt.Errorf("rating model: %w", err)
	}
	if m.RatingBySales, err = stats.OLS(termRating, d, rating); err != nil {
		return nil, fmt.Errorf("rating model: %w", err)
	}

	var platforms, genres []string
	var critic []float64
	if im != nil {
		for _, g := range im.Games {
			if !g.CriticScore.Valid {
				continue
			}
			platforms = append(platforms, g.Platform)
			genres = append(genres, g.Genre)
			critic = append(critic, g.CriticScore.V)
		}
	}
	if m.CriticByPlatform, err = fitCategorical(termPlatform, platforms, critic); err != nil {
		return nil, err
	}
	if m.CriticByGenre, err = fitCategorical(termGenre, genres, critic); err != nil {
		return nil, err
	}
	return m, nil
}

func fitCategorical(name string, levels []string, y []float64) (*stats.Fit, error) {
	d, err := stats.CategoricalDesign(name, levels)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", name, err)
	}
	fit, err := stats.OLS(termCritic, d, y)
	if err != nil {
		return nil, fmt.Errorf("%s model: %w", name, err)
	}
	return fit, nil
}
