package report

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

// CombinedRow is the parquet layout of the combined ranking.
type CombinedRow struct {
	Rank       int64   `parquet:"rank"`
	Title      string  `parquet:"title"`
	TotalSales float64 `parquet:"total_sales"`
	MeanCritic float64 `parquet:"mean_critic"`
	SalesRank  int64   `parquet:"sales_rank"`
	RatingRank int64   `parquet:"rating_rank"`
	Score      int64   `parquet:"combined_score"`
}

// ResidualRow is the parquet layout of per-observation model diagnostics.
type ResidualRow struct {
	Model       string  `parquet:"model"`
	Observation int64   `parquet:"observation"`
	Observed    float64 `parquet:"observed"`
	Fitted      float64 `parquet:"fitted"`
	Residual    float64 `parquet:"residual"`
}

// CombinedRows converts the combined ranking to parquet rows.
func CombinedRows(combined []pipeline.Combined) []CombinedRow {
	out := make([]CombinedRow, len(combined))
	for i, c := range combined {
		out[i] = CombinedRow{
			Rank:       int64(c.Rank),
			Title:      c.Title,
			TotalSales: c.TotalSales,
			MeanCritic: c.MeanCritic,
			SalesRank:  int64(c.SalesRank),
			RatingRank: int64(c.RatingRank),
			Score:      int64(c.Score),
		}
	}
	return out
}

// ResidualRows flattens the diagnostics of every fit.
func ResidualRows(fits []*stats.Fit) []ResidualRow {
	var out []ResidualRow
	for _, f := range fits {
		if f == nil {
			continue
		}
		for i := range f.Residuals {
			out = append(out, ResidualRow{
				Model:       f.Formula(),
				Observation: int64(i + 1),
				Observed:    f.Observed[i],
				Fitted:      f.Fitted[i],
				Residual:    f.Residuals[i],
			})
		}
	}
	return out
}

// WriteParquet writes rows to path with snappy compression.
func WriteParquet[T any](path string, rows []T) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet: %w", err)
	}
	w := parquet.NewWriter(f, parquet.SchemaOf(new(T)), parquet.Compression(&parquet.Snappy))
	for _, r := range rows {
		if err := w.Write(r); err != nil {
			_ = w.Close()
			_ = f.Close()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return f.Close()
}
