package pipeline

import "sort"

// Combined joins the sales and rating ranks of one title.
type Combined struct {
	Title      string
	TotalSales float64
	MeanCritic float64
	SalesRank  int
	RatingRank int
	// Score is SalesRank + RatingRank; lower is better.
	Score int
	// Rank orders Score ascending, 1 being best on both axes.
	Rank int
}

// order returns the indices of n items sorted by less, with ties resolved per tb.
// Ties under TieBreakInput keep their input order.
func order(n int, less func(a, b int) bool, equal func(a, b int) bool, title func(int) string, tb TieBreak) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if tb == TieBreakTitle && equal(a, b) {
			return title(a) < title(b)
		}
		return less(a, b)
	})
	return idx
}

// RankSales returns a copy of in ordered by total sales descending with ranks 1..N.
func RankSales(in []SalesTotal, tb TieBreak) []SalesTotal {
	idx := order(len(in),
		func(a, b int) bool { return in[a].TotalSales > in[b].TotalSales },
		func(a, b int) bool { return in[a].TotalSales == in[b].TotalSales },
		func(i int) string { return in[i].Title },
		tb)
	out := make([]SalesTotal, len(in))
	for pos, i := range idx {
		out[pos] = in[i]
		out[pos].Rank = pos + 1
	}
	return out
}

// RankRatings returns a copy of in ordered by mean critic score descending with ranks 1..N.
func RankRatings(in []RatingMean, tb TieBreak) []RatingMean {
	idx := order(len(in),
		func(a, b int) bool { return in[a].MeanCritic > in[b].MeanCritic },
		func(a, b int) bool { return in[a].MeanCritic == in[b].MeanCritic },
		func(i int) string { return in[i].Title },
		tb)
	out := make([]RatingMean, len(in))
	for pos, i := range idx {
		out[pos] = in[i]
		out[pos].Rank = pos + 1
	}
	return out
}

// Combine inner-joins ranked sales and ratings on title, in the order of sales, sums the
// two ranks and re-ranks the sum ascending.
func Combine(sales []SalesTotal, ratings []RatingMean, tb TieBreak) []Combined {
	byTitle := make(map[string]RatingMean, len(ratings))
	for _, r := range ratings {
		byTitle[r.Title] = r
	}
	var joined []Combined
	for _, s := range sales {
		r, ok := byTitle[s.Title]
		if !ok {
			continue
		}
		joined = append(joined, Combined{
			Title:      s.Title,
			TotalSales: s.TotalSales,
			MeanCritic: r.MeanCritic,
			SalesRank:  s.Rank,
			RatingRank: r.Rank,
			Score:      s.Rank + r.Rank,
		})
	}
	idx := order(len(joined),
		func(a, b int) bool { return joined[a].Score < joined[b].Score },
		func(a, b int) bool { return joined[a].Score == joined[b].Score },
		func(i int) string { return joined[i].Title },
		tb)
	out := make([]Combined, len(joined))
	for pos, i := range idx {
		out[pos] = joined[i]
		out[pos].Rank = pos + 1
	}
	return out
}
