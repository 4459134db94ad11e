package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/utils"
)

// Artifact kinds.
const (
	KindMarkdown = "markdown"
	KindCSV      = "csv"
	KindXLSX     = "xlsx"
	KindParquet  = "parquet"
	KindChart    = "chart"
)

// Options selects which artifacts Write produces.
type Options struct {
	// Top limits the markdown tables; CSV, workbook and parquet output keep every row.
	Top     int
	XLSX    bool
	Parquet bool
	Plots   bool
}

// Artifact is a file written into the output directory.
type Artifact struct {
	Kind string
	Path string
}

type chart struct {
	name string
	draw func(path string) error
}

// Write renders every selected artifact of res into dir.
func Write(res *pipeline.Result, dir string, opt Options, log logrus.FieldLogger) ([]Artifact, error) {
	if res == nil {
		return nil, errors.New("write report: nil result")
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("ensure output dir: %w", err)
	}
	var out []Artifact
	add := func(kind, name string) {
		out = append(out, Artifact{Kind: kind, Path: filepath.Join(dir, name)})
	}

	mdPath := filepath.Join(dir, "report.md")
	if err := utils.SafeWriteFile(mdPath, []byte(Markdown(res, opt.Top))); err != nil {
		return out, fmt.Errorf("write markdown: %w", err)
	}
	add(KindMarkdown, "report.md")

	fits := res.Models.All()
	sheets := []Sheet{
		{Name: "Sales", Frame: SalesFrame(res.Sales, 0)},
		{Name: "Ratings", Frame: RatingsFrame(res.Ratings, 0)},
		{Name: "Combined", Frame: CombinedFrame(res.Combined, 0)},
		{Name: "Coefficients", Frame: CoefficientsFrame(fits)},
		{Name: "Residuals", Frame: ResidualsFrame(fits)},
	}
	for _, s := range sheets {
		name := strings.ToLower(s.Name) + ".csv"
		if err := writeCSV(filepath.Join(dir, name), s.Frame); err != nil {
			return out, err
		}
		add(KindCSV, name)
	}

	if opt.XLSX {
		if err := SaveWorkbook(filepath.Join(dir, "gamestats.xlsx"), sheets); err != nil {
			return out, err
		}
		add(KindXLSX, "gamestats.xlsx")
	}

	if opt.Parquet {
		if err := WriteParquet(filepath.Join(dir, "combined.parquet"), CombinedRows(res.Combined)); err != nil {
			return out, err
		}
		add(KindParquet, "combined.parquet")
		if err := WriteParquet(filepath.Join(dir, "residuals.parquet"), ResidualRows(fits)); err != nil {
			return out, err
		}
		add(KindParquet, "residuals.parquet")
	}

	if opt.Plots {
		var games []pipeline.Game
		if res.Imputed != nil {
			games = res.Imputed.Games
		}
		charts := []chart{
			{"platform_rows.png", func(p string) error { return PlatformBar(p, games) }},
			{"critic_by_genre.png", func(p string) error { return CriticByGenreBox(p, games) }},
		}
		if m := res.Models; m != nil {
			charts = append(charts,
				chart{"sales_vs_rating.png", func(p string) error { return SalesVsRating(p, res.Combined, m.RatingBySales) }},
				chart{"residuals_rating_sales.png", func(p string) error { return Residuals(p, m.RatingBySales) }},
				chart{"residuals_critic_platform.png", func(p string) error { return Residuals(p, m.CriticByPlatform) }},
				chart{"residuals_critic_genre.png", func(p string) error { return Residuals(p, m.CriticByGenre) }},
			)
		}
		for _, c := range charts {
			err := c.draw(filepath.Join(dir, c.name))
			if errors.Is(err, ErrNothingToPlot) {
				log.WithField("chart", c.name).Warn("skipped empty chart")
				continue
			}
			if err != nil {
				return out, err
			}
			add(KindChart, c.name)
		}
	}

	log.WithFields(logrus.Fields{"dir": dir, "artifacts": len(out)}).Info("wrote report")
	return out, nil
}

func writeCSV(path string, df dataframe.DataFrame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := df.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
