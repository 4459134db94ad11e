package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

// Markdown renders the run summary: row flow, rankings and model tables.
func Markdown(res *pipeline.Result, top int) string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	if res.Source != nil {
		b.WriteString(fmt.Sprintf("File: %s\n", res.Source.Name))
		b.WriteString(fmt.Sprintf("Rows: %d", res.Source.Len()))
		if res.Source.Malformed > 0 {
			b.WriteString(fmt.Sprintf(" (%d malformed)", res.Source.Malformed))
		}
		b.WriteString("\n")
	}
	opt := res.Options
	b.WriteString(fmt.Sprintf("Options: min_year=%d, year_filter=%s, min_platform_rows=%d, user_score_scale=%g, min_critic_count=%d, tie_break=%s\n\n",
		opt.MinYear, opt.YearFilter, opt.MinPlatformRows, opt.UserScoreScale, opt.MinCriticCount, opt.TieBreak))

	if n := res.Normalized; n != nil {
		b.WriteString("[FILTER]\n")
		b.WriteString(fmt.Sprintf("- dropped by year: %d\n", n.DroppedByYear))
		b.WriteString(fmt.Sprintf("- dropped by platform: %d\n", n.DroppedByPlatform))
		b.WriteString(fmt.Sprintf("- user score sentinels: %d\n", n.UserScoreSentinels))
		b.WriteString(fmt.Sprintf("- analyzed rows: %d across %d platforms\n\n", len(n.Games), keptPlatforms(n)))
	}
	if im := res.Imputed; im != nil {
		b.WriteString("[IMPUTATION]\n")
		b.WriteString(fmt.Sprintf("- groups with complete rows: %d\n", len(im.Averages)))
		b.WriteString(fmt.Sprintf("- critic scores filled: %d\n", im.FilledCritic))
		b.WriteString(fmt.Sprintf("- user scores filled: %d\n", im.FilledUser))
		b.WriteString(fmt.Sprintf("- rows left with a null score: %d\n\n", im.Unfilled))
	}

	b.WriteString(fmt.Sprintf("[TOP SALES] (%d titles)\n", len(res.Sales)))
	b.WriteString("| Rank | Title | Total sales (M) | Platforms |\n|---|---|---|---|\n")
	for _, s := range res.Sales[:limit(len(res.Sales), top)] {
		b.WriteString(fmt.Sprintf("| %d | %s | %.2f | %d |\n", s.Rank, cell(s.Title), s.TotalSales, s.Platforms))
	}

	b.WriteString(fmt.Sprintf("\n[TOP RATINGS] (%d titles)\n", len(res.Ratings)))
	b.WriteString("| Rank | Title | Mean critic score | Rows |\n|---|---|---|---|\n")
	for _, r := range res.Ratings[:limit(len(res.Ratings), top)] {
		b.WriteString(fmt.Sprintf("| %d | %s | %.2f | %d |\n", r.Rank, cell(r.Title), r.MeanCritic, r.Rows))
	}

	b.WriteString(fmt.Sprintf("\n[COMBINED RANKING] (%d titles)\n", len(res.Combined)))
	b.WriteString("| Rank | Title | Sales rank | Rating rank | Score |\n|---|---|---|---|---|\n")
	for _, c := range res.Combined[:limit(len(res.Combined), top)] {
		b.WriteString(fmt.Sprintf("| %d | %s | %d | %d | %d |\n", c.Rank, cell(c.Title), c.SalesRank, c.RatingRank, c.Score))
	}

	for _, f := range res.Models.All() {
		if f == nil {
			continue
		}
		b.WriteString("\n")
		writeModel(&b, f)
	}
	return b.String()
}

func writeModel(b *strings.Builder, f *stats.Fit) {
	b.WriteString(fmt.Sprintf("[MODEL] %s\n", f.Formula()))
	if f.Reference != "" {
		b.WriteString(fmt.Sprintf("Reference level: %s\n", f.Reference))
	}
	b.WriteString("| Term | Estimate | Std. error | t | p |\n|---|---|---|---|---|\n")
	for _, t := range f.Terms {
		b.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %s | %s |\n", cell(t.Name), t.Estimate, t.StdErr, num(t.TStat, "%.3f"), pValue(t.PValue)))
	}
	b.WriteString(fmt.Sprintf("n=%d, df=%d, residual std. error=%.4f, R²=%.4f, adj. R²=%.4f, F=%s (p %s)\n",
		f.N, f.DF, f.Sigma, f.RSquared, f.AdjRSquared, num(f.FStat, "%.3f"), pValue(f.FPValue)))
}

func keptPlatforms(n *pipeline.Normalized) int {
	seen := map[string]bool{}
	for _, g := range n.Games {
		seen[g.Platform] = true
	}
	return len(seen)
}

func num(x float64, format string) string {
	if math.IsNaN(x) {
		return "NA"
	}
	if math.IsInf(x, 0) {
		return "Inf"
	}
	return fmt.Sprintf(format, x)
}

func pValue(p float64) string {
	switch {
	case math.IsNaN(p):
		return "NA"
	case p < 1e-4:
		return "<0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func cell(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
