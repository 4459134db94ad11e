// Package pipeline turns the loaded sales table into rankings and regression fits.
// Stages run in a fixed order and each returns a new value:
//
//	Normalize -> Impute -> AggregateSales/AggregateRatings -> Rank* -> Combine -> FitModels
package pipeline

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/gamestats-cli/internal/dataset"
)

// Result carries every intermediate artifact of one run.
type Result struct {
	Options    Options
	Source     *dataset.Table
	Normalized *Normalized
	Imputed    *Imputed
	Sales      []SalesTotal
	Ratings    []RatingMean
	Combined   []Combined
	Models     *Models
}

// Run executes all stages on t. A nil logger discards stage logs.
func Run(t *dataset.Table, opt Options, log logrus.FieldLogger) (*Result, error) {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	res := &Result{Options: opt, Source: t}

	norm, err := Normalize(t, opt)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	res.Normalized = norm
	log.WithFields(logrus.Fields{
		"stage":               "normalize",
		"input_rows":          norm.InputRows,
		"dropped_by_year":     norm.DroppedByYear,
		"dropped_by_platform": norm.DroppedByPlatform,
		"platforms":           len(norm.PlatformRows),
		"user_score_tbd":      norm.UserScoreSentinels,
		"rows":                len(norm.Games),
	}).Info("filtered rows")
	if len(norm.Games) == 0 {
		return nil, ErrNoRows
	}

	res.Imputed = Impute(norm)
	log.WithFields(logrus.Fields{
		"stage":         "impute",
		"groups":        len(res.Imputed.Averages),
		"filled_critic": res.Imputed.FilledCritic,
		"filled_user":   res.Imputed.FilledUser,
		"unfilled":      res.Imputed.Unfilled,
	}).Info("imputed scores")

	res.Sales = RankSales(AggregateSales(res.Imputed), opt.TieBreak)
	res.Ratings = RankRatings(AggregateRatings(res.Imputed, opt.MinCriticCount), opt.TieBreak)
	res.Combined = Combine(res.Sales, res.Ratings, opt.TieBreak)
	log.WithFields(logrus.Fields{
		"stage":    "rank",
		"sales":    len(res.Sales),
		"ratings":  len(res.Ratings),
		"combined": len(res.Combined),
	}).Info("ranked titles")

	models, err := FitModels(res.Imputed, res.Combined)
	if err != nil {
		return nil, fmt.Errorf("fit models: %w", err)
	}
	res.Models = models
	for _, f := range models.All() {
		log.WithFields(logrus.Fields{
			"stage":     "model",
			"formula":   f.Formula(),
			"n":         f.N,
			"r_squared": f.RSquared,
		}).Debug("fitted model")
	}
	return res, nil
}
