package pipeline

// SalesTotal is the global sales of one title summed across its platforms.
type SalesTotal struct {
	Title      string
	TotalSales float64
	Platforms  int
	Rank       int
}

// RatingMean is the mean critic score of one title over its well-reviewed platform rows.
type RatingMean struct {
	Title      string
	MeanCritic float64
	// Rows is the number of platform rows that contributed.
	Rows int
	Rank int
}

// AggregateSales sums global sales per title in first-seen order. A null sales value
// contributes zero but the row still counts as a platform.
func AggregateSales(im *Imputed) []SalesTotal {
	if im == nil {
		return nil
	}
	idx := map[string]int{}
	var out []SalesTotal
	for _, g := range im.Games {
		i, ok := idx[g.Title]
		if !ok {
			i = len(out)
			idx[g.Title] = i
			out = append(out, SalesTotal{Title: g.Title})
		}
		if g.GlobalSales.Valid {
			out[i].TotalSales += g.GlobalSales.V
		}
		out[i].Platforms++
	}
	return out
}

// AggregateRatings averages critic score per title over rows whose critic count is
// greater than minCount. Rows whose critic score is still null are skipped, and titles
// with no qualifying row are absent.
func AggregateRatings(im *Imputed, minCount int) []RatingMean {
	if im == nil {
		return nil
	}
	type acc struct {
		sum float64
		n   int
	}
	idx := map[string]int{}
	var titles []string
	var accs []acc
	for _, g := range im.Games {
		if !g.CriticCount.Valid || g.CriticCount.V <= minCount || !g.CriticScore.Valid {
			continue
		}
		i, ok := idx[g.Title]
		if !ok {
			i = len(titles)
			idx[g.Title] = i
			titles = append(titles, g.Title)
			accs = append(accs, acc{})
		}
		accs[i].sum += g.CriticScore.V
		accs[i].n++
	}
	out := make([]RatingMean, len(titles))
	for i, t := range titles {
		out[i] = RatingMean{Title: t, MeanCritic: accs[i].sum / float64(accs[i].n), Rows: accs[i].n}
	}
	return out
}
