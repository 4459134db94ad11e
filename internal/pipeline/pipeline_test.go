package pipeline

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/gamestats-cli/internal/dataset"
	"github.com/KaramelBytes/gamestats-cli/internal/stats"
)

var sixRows = []string{
	"Name,Platform,Year_of_Release,Genre,Publisher,NA_Sales,EU_Sales,JP_Sales,Other_Sales,Global_Sales,Critic_Score,Critic_Count,User_Score,User_Count,Developer,Rating",
	"Alpha,PS2,2001,Action,Pub,3,1,0.5,0.5,5.0,80,10,8.0,100,Dev,T",
	"Beta,PS2,2001,Action,Pub,2,1,0,0,3.0,,5,7.0,50,Dev,T",
	"Gamma,PS2,2001,Action,Pub,1,0,0,0,1.0,60,4,tbd,,Dev,T",
	"Alpha,XB,2001,Action,Pub,1,1,0,0,2.0,90,20,9.0,200,Dev,T",
	"Delta,XB,2001,Sports,Pub,2,2,0,0,4.0,70,1,6.5,30,Dev,E",
	"Old,PS2,1999,Sports,Pub,5,5,0,0,10,95,50,9.5,500,Dev,E",
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRunEndToEnd(t *testing.T) {
	tbl, err := dataset.Read(strings.NewReader(strings.Join(sixRows, "\n")), "six.csv", dataset.LoadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	opt := DefaultOptions()
	opt.MinPlatformRows = 2

	res, err := Run(tbl, opt, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Filter: the 1999 row is gone, both platforms keep enough rows.
	if len(res.Normalized.Games) != 5 || res.Normalized.DroppedByYear != 1 {
		t.Fatalf("normalized rows = %d dropped = %d", len(res.Normalized.Games), res.Normalized.DroppedByYear)
	}
	for _, g := range res.Normalized.Games {
		if g.Title == "Old" {
			t.Fatalf("1999 row survived the year filter")
		}
	}

	// Impute: Beta's critic score and Gamma's tbd user score share Alpha/PS2's group.
	group := res.Imputed.Averages[GroupKey{Genre: "Action", Platform: "PS2", Year: 2001}]
	if group.Rows != 1 || group.CriticScore != 80 || group.UserScore != 80 {
		t.Fatalf("Action/PS2/2001 average = %+v", group)
	}
	games := map[string]Game{}
	for _, g := range res.Imputed.Games {
		games[g.Title+"/"+g.Platform] = g
	}
	if g := games["Beta/PS2"]; !g.CriticScore.Valid || g.CriticScore.V != 80 {
		t.Fatalf("Beta critic = %+v, want 80", g.CriticScore)
	}
	if g := games["Gamma/PS2"]; !g.UserScore.Valid || g.UserScore.V != 80 {
		t.Fatalf("Gamma user = %+v, want 80", g.UserScore)
	}
	if g := games["Alpha/XB"]; g.UserScore.V != 90 {
		t.Fatalf("Alpha/XB user score should be rescaled to 90, got %+v", g.UserScore)
	}
	if res.Imputed.FilledCritic != 1 || res.Imputed.FilledUser != 1 || res.Imputed.Unfilled != 0 {
		t.Fatalf("imputation counts = %+v", res.Imputed)
	}

	// Sales: Alpha 7, Delta 4, Beta 3, Gamma 1.
	wantSales := []struct {
		title string
		total float64
	}{{"Alpha", 7}, {"Delta", 4}, {"Beta", 3}, {"Gamma", 1}}
	if len(res.Sales) != len(wantSales) {
		t.Fatalf("sales = %+v", res.Sales)
	}
	for i, w := range wantSales {
		s := res.Sales[i]
		if s.Title != w.title || !near(s.TotalSales, w.total) || s.Rank != i+1 {
			t.Fatalf("sales[%d] = %+v, want %s %.1f", i, s, w.title, w.total)
		}
	}

	// Ratings: Delta has a single critic review and is absent.
	wantRatings := []struct {
		title string
		mean  float64
	}{{"Alpha", 85}, {"Beta", 80}, {"Gamma", 60}}
	if len(res.Ratings) != len(wantRatings) {
		t.Fatalf("ratings = %+v", res.Ratings)
	}
	for i, w := range wantRatings {
		r := res.Ratings[i]
		if r.Title != w.title || !near(r.MeanCritic, w.mean) || r.Rank != i+1 {
			t.Fatalf("ratings[%d] = %+v, want %s %.1f", i, r, w.title, w.mean)
		}
	}

	// Combined: Alpha 1+1, Beta 3+2, Gamma 4+3.
	wantCombined := []struct {
		title string
		score int
	}{{"Alpha", 2}, {"Beta", 5}, {"Gamma", 7}}
	if len(res.Combined) != len(wantCombined) {
		t.Fatalf("combined = %+v", res.Combined)
	}
	for i, w := range wantCombined {
		c := res.Combined[i]
		if c.Title != w.title || c.Score != w.score || c.Rank != i+1 {
			t.Fatalf("combined[%d] = %+v, want %s score %d", i, c, w.title, w.score)
		}
	}

	// rating ~ sales over (7,85), (3,80), (1,60): slope 3.75, intercept 61.25.
	rs := res.Models.RatingBySales
	slope, _ := rs.Coefficient("total_sales")
	intercept, _ := rs.Coefficient(stats.InterceptTerm)
	if !near(slope.Estimate, 3.75) || !near(intercept.Estimate, 61.25) {
		t.Fatalf("rating ~ sales = %+v", rs.Terms)
	}
	wantResid := []float64{-2.5, 7.5, -5}
	for i, r := range rs.Residuals {
		if !near(r, wantResid[i]) {
			t.Fatalf("residuals = %v, want %v", rs.Residuals, wantResid)
		}
	}

	// critic ~ platform: PS2 mean 220/3 is the reference, XB mean 80.
	pf := res.Models.CriticByPlatform
	if pf.Reference != "PS2" || pf.N != 5 {
		t.Fatalf("platform model reference=%q n=%d", pf.Reference, pf.N)
	}
	xb, _ := pf.Coefficient("platform[XB]")
	if !near(xb.Estimate, 80-220.0/3) {
		t.Fatalf("platform[XB] = %v", xb.Estimate)
	}

	// critic ~ genre: Action mean 77.5, Sports 70.
	gf := res.Models.CriticByGenre
	sports, _ := gf.Coefficient("genre[Sports]")
	gi, _ := gf.Coefficient(stats.InterceptTerm)
	if gf.Reference != "Action" || !near(gi.Estimate, 77.5) || !near(sports.Estimate, -7.5) {
		t.Fatalf("genre model = %+v ref %q", gf.Terms, gf.Reference)
	}
}

func TestRunNoRowsAfterFilter(t *testing.T) {
	tbl, err := dataset.Read(strings.NewReader(strings.Join(sixRows, "\n")), "six.csv", dataset.LoadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	_, err = Run(tbl, DefaultOptions(), nil)
	if !errors.Is(err, ErrNoRows) {
		t.Fatalf("default platform threshold should drop every row, got %v", err)
	}
}

func TestRunSurfacesModelErrors(t *testing.T) {
	// One title with several reviews: a single point cannot fit rating ~ sales.
	rows := []string{
		sixRows[0],
		"Solo,PS2,2005,Action,Pub,1,0,0,0,1.0,80,10,8.0,100,Dev,T",
		"Solo,XB,2005,Action,Pub,1,0,0,0,1.0,70,10,7.0,100,Dev,T",
	}
	tbl, err := dataset.Read(strings.NewReader(strings.Join(rows, "\n")), "solo.csv", dataset.LoadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	opt := DefaultOptions()
	opt.MinPlatformRows = 1
	_, err = Run(tbl, opt, nil)
	if !errors.Is(err, stats.ErrDimension) {
		t.Fatalf("expected dimension error from the rating model, got %v", err)
	}
}
