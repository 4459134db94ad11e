package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/KaramelBytes/gamestats-cli/internal/pipeline"
	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

var heading = color.New(color.FgYellow, color.Bold)

// PrintSummary writes the rankings and model tables to w.
func PrintSummary(w io.Writer, res *pipeline.Result, top int) {
	heading.Fprintf(w, "\nTop %d by total sales\n", limit(len(res.Sales), top))
	t := newTable(w, []string{"Rank", "Title", "Total Sales (M)", "Platforms"})
	for _, s := range res.Sales[:limit(len(res.Sales), top)] {
		t.Append([]string{strconv.Itoa(s.Rank), s.Title, fmt.Sprintf("%.2f", s.TotalSales), strconv.Itoa(s.Platforms)})
	}
	t.Render()

	heading.Fprintf(w, "\nTop %d by mean critic score\n", limit(len(res.Ratings), top))
	t = newTable(w, []string{"Rank", "Title", "Mean Critic", "Rows"})
	for _, r := range res.Ratings[:limit(len(res.Ratings), top)] {
		t.Append([]string{strconv.Itoa(r.Rank), r.Title, fmt.Sprintf("%.2f", r.MeanCritic), strconv.Itoa(r.Rows)})
	}
	t.Render()

	heading.Fprintf(w, "\nTop %d combined\n", limit(len(res.Combined), top))
	t = newTable(w, []string{"Rank", "Title", "Sales Rank", "Rating Rank", "Score"})
	for _, c := range res.Combined[:limit(len(res.Combined), top)] {
		t.Append([]string{strconv.Itoa(c.Rank), c.Title, strconv.Itoa(c.SalesRank), strconv.Itoa(c.RatingRank), strconv.Itoa(c.Score)})
	}
	t.Render()

	for _, f := range res.Models.All() {
		if f != nil {
			PrintModel(w, f)
		}
	}
}

// PrintModel writes one coefficient table with its fit statistics.
func PrintModel(w io.Writer, f *stats.Fit) {
	heading.Fprintf(w, "\n%s\n", f.Formula())
	t := newTable(w, []string{"Term", "Estimate", "Std. Error", "t", "p"})
	for _, term := range f.Terms {
		t.Append([]string{term.Name, fmt.Sprintf("%.4f", term.Estimate), fmt.Sprintf("%.4f", term.StdErr), num(term.TStat, "%.3f"), pValue(term.PValue)})
	}
	t.Render()
	fmt.Fprintf(w, "n=%d  R²=%.4f  adj. R²=%.4f  F=%s  p=%s\n", f.N, f.RSquared, f.AdjRSquared, num(f.FStat, "%.3f"), pValue(f.FPValue))
	if f.Reference != "" {
		fmt.Fprintf(w, "reference level: %s\n", f.Reference)
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	return t
}
