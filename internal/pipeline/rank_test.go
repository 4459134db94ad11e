package pipeline

import (
	"database/sql"
	"testing"
)

func salesRow(title, platform string, sales float64, valid bool) Game {
	g := Game{Title: title, Platform: platform, Year: some(2005)}
	if valid {
		g.GlobalSales = some(sales)
	}
	return g
}

func TestAggregateSalesSumsAcrossPlatforms(t *testing.T) {
	im := &Imputed{Games: []Game{
		salesRow("Multi", "PS2", 1.5, true),
		salesRow("Single", "PS2", 0.75, true),
		salesRow("Multi", "XB", 2.25, true),
		salesRow("Multi", "GC", 0, false),
	}}
	got := AggregateSales(im)
	if len(got) != 2 {
		t.Fatalf("titles = %d, want 2: %+v", len(got), got)
	}
	if got[0].Title != "Multi" || got[0].TotalSales != 3.75 || got[0].Platforms != 3 {
		t.Fatalf("Multi = %+v, want total 3.75 over 3 platforms", got[0])
	}
	if got[1].Title != "Single" || got[1].TotalSales != 0.75 || got[1].Platforms != 1 {
		t.Fatalf("Single = %+v", got[1])
	}
	for _, s := range got {
		if s.Title == "Filtered" {
			t.Fatalf("title without rows must be absent")
		}
	}
	if AggregateSales(nil) != nil {
		t.Fatalf("nil input should give nil")
	}
}

func TestAggregateRatingsRequiresSeveralReviews(t *testing.T) {
	mk := func(title string, score float64, count int, scoreValid bool) Game {
		g := Game{Title: title, CriticCount: some(count)}
		if scoreValid {
			g.CriticScore = some(score)
		}
		return g
	}
	im := &Imputed{Games: []Game{
		mk("A", 80, 10, true),
		mk("B", 70, 1, true),
		mk("A", 90, 2, true),
		mk("C", 60, 5, false),
		mk("A", 10, 1, true),
		{Title: "D", CriticScore: some(50.0), CriticCount: sql.Null[int]{}},
	}}
	got := AggregateRatings(im, 1)
	if len(got) != 1 {
		t.Fatalf("ratings = %+v, want only A", got)
	}
	if got[0].Title != "A" || got[0].MeanCritic != 85 || got[0].Rows != 2 {
		t.Fatalf("A = %+v, want mean 85 over 2 rows", got[0])
	}
}

func TestRankSalesIsPermutationAndStableOnTies(t *testing.T) {
	in := []SalesTotal{
		{Title: "low", TotalSales: 1},
		{Title: "tie-second", TotalSales: 5},
		{Title: "top", TotalSales: 9},
		{Title: "tie-first", TotalSales: 5},
	}
	got := RankSales(in, TieBreakInput)
	want := []string{"top", "tie-second", "tie-first", "low"}
	seen := map[int]bool{}
	for i, s := range got {
		if s.Title != want[i] {
			t.Fatalf("order = %+v, want %v", got, want)
		}
		if s.Rank != i+1 || seen[s.Rank] {
			t.Fatalf("rank %d at position %d", s.Rank, i)
		}
		seen[s.Rank] = true
	}
	if in[0].Rank != 0 {
		t.Fatalf("RankSales mutated its input")
	}

	got = RankSales(in, TieBreakTitle)
	if got[1].Title != "tie-first" || got[2].Title != "tie-second" {
		t.Fatalf("title tie break order = %+v", got)
	}
}

func TestRankRatingsDescending(t *testing.T) {
	got := RankRatings([]RatingMean{
		{Title: "b", MeanCritic: 70},
		{Title: "a", MeanCritic: 90},
		{Title: "c", MeanCritic: 70},
	}, TieBreakInput)
	if got[0].Title != "a" || got[1].Title != "b" || got[2].Title != "c" {
		t.Fatalf("order = %+v", got)
	}
	for i, r := range got {
		if r.Rank != i+1 {
			t.Fatalf("rank at %d = %d", i, r.Rank)
		}
	}
}

func TestCombineSumsAndReranks(t *testing.T) {
	sales := []SalesTotal{
		{Title: "x", TotalSales: 30, Rank: 1},
		{Title: "y", TotalSales: 20, Rank: 2},
		{Title: "z", TotalSales: 10, Rank: 3},
		{Title: "sales-only", TotalSales: 5, Rank: 4},
	}
	ratings := []RatingMean{
		{Title: "y", MeanCritic: 90, Rank: 1},
		{Title: "z", MeanCritic: 80, Rank: 2},
		{Title: "x", MeanCritic: 70, Rank: 3},
		{Title: "rating-only", MeanCritic: 60, Rank: 4},
	}
	got := Combine(sales, ratings, TieBreakInput)
	if len(got) != 3 {
		t.Fatalf("inner join should keep 3 titles, got %+v", got)
	}
	want := map[string]struct{ score, rank int }{
		"x": {4, 2},
		"y": {3, 1},
		"z": {5, 3},
	}
	for _, c := range got {
		w, ok := want[c.Title]
		if !ok {
			t.Fatalf("unexpected title %q", c.Title)
		}
		if c.Score != w.score || c.Rank != w.rank {
			t.Fatalf("%s score=%d rank=%d, want %d %d", c.Title, c.Score, c.Rank, w.score, w.rank)
		}
	}
	if got[0].Title != "y" || got[0].TotalSales != 20 || got[0].MeanCritic != 90 {
		t.Fatalf("best combined = %+v", got[0])
	}
}

func TestCombineTiesFollowSalesOrder(t *testing.T) {
	sales := []SalesTotal{{Title: "p", Rank: 1}, {Title: "q", Rank: 2}}
	ratings := []RatingMean{{Title: "q", Rank: 1}, {Title: "p", Rank: 2}}
	got := Combine(sales, ratings, TieBreakInput)
	if got[0].Title != "p" || got[1].Title != "q" {
		t.Fatalf("tied combined scores should keep sales order, got %+v", got)
	}
}
