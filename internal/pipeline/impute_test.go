package pipeline

import (
	"database/sql"
	"math"
	"reflect"
	"testing"
)

type scores struct {
	critic, user float64
	cc, uc       int
	hasC, hasU   bool
	hasCC, hasUC bool
}

func game(title, genre, platform string, year int, s scores) Game {
	g := Game{Title: title, Genre: genre, Platform: platform, Year: some(year), GlobalSales: some(1.0)}
	if s.hasC {
		g.CriticScore = some(s.critic)
	}
	if s.hasU {
		g.UserScore = some(s.user)
	}
	if s.hasCC {
		g.CriticCount = some(s.cc)
	}
	if s.hasUC {
		g.UserCount = some(s.uc)
	}
	return g
}

func full(critic float64, cc int, user float64, uc int) scores {
	return scores{critic: critic, cc: cc, user: user, uc: uc, hasC: true, hasCC: true, hasU: true, hasUC: true}
}

// sparseGames mixes complete rows with rows missing exactly one of the four fields.
func sparseGames() []Game {
	noUser := full(70, 10, 0, 40)
	noUser.hasU = false
	noCount := full(64, 0, 66, 12)
	noCount.hasCC = false
	noCritic := full(0, 5, 71, 8)
	noCritic.hasC = false
	onlyCounts := scores{cc: 3, uc: 4, hasCC: true, hasUC: true}
	return []Game{
		game("a", "Action", "PS2", 2001, full(80, 20, 75, 100)),
		game("b", "Action", "PS2", 2001, full(60, 10, 55, 50)),
		game("c", "Action", "PS2", 2001, noUser),
		game("d", "Action", "PS2", 2001, noCount),
		game("e", "Sports", "PS2", 2001, full(90, 30, 85, 300)),
		game("f", "Sports", "PS2", 2001, noCritic),
		game("g", "Action", "XB", 2001, noCount),
		game("h", "Action", "XB", 2001, onlyCounts),
		game("i", "Action", "PS2", 2002, onlyCounts),
	}
}

func TestComputeGroupAveragesUsesOnlyCompleteRows(t *testing.T) {
	games := sparseGames()
	avg := ComputeGroupAverages(games)

	// Recompute the expectation directly from the rows.
	type key = GroupKey
	want := map[key][]Game{}
	for _, g := range games {
		if complete(g) {
			k := key{Genre: g.Genre, Platform: g.Platform, Year: g.Year.V}
			want[k] = append(want[k], g)
		}
	}
	if len(avg) != len(want) {
		t.Fatalf("groups = %d, want %d: %+v", len(avg), len(want), avg)
	}
	for k, rows := range want {
		m, ok := avg[k]
		if !ok {
			t.Fatalf("missing group %+v", k)
		}
		var cs, cc, us, uc float64
		for _, g := range rows {
			cs += g.CriticScore.V
			cc += float64(g.CriticCount.V)
			us += g.UserScore.V
			uc += float64(g.UserCount.V)
		}
		n := float64(len(rows))
		if m.Rows != len(rows) {
			t.Fatalf("group %+v rows = %d, want %d", k, m.Rows, len(rows))
		}
		for name, pair := range map[string][2]float64{
			"critic score": {m.CriticScore, cs / n},
			"critic count": {m.CriticCount, cc / n},
			"user score":   {m.UserScore, us / n},
			"user count":   {m.UserCount, uc / n},
		} {
			if math.Abs(pair[0]-pair[1]) > 1e-12 {
				t.Fatalf("group %+v %s = %v, want %v", k, name, pair[0], pair[1])
			}
		}
	}

	ap := avg[GroupKey{Genre: "Action", Platform: "PS2", Year: 2001}]
	if ap.CriticScore != 70 || ap.UserCount != 75 {
		t.Fatalf("Action/PS2/2001 = %+v", ap)
	}
	if _, ok := avg[GroupKey{Genre: "Action", Platform: "XB", Year: 2001}]; ok {
		t.Fatalf("group without complete rows must be absent")
	}
}

func TestImputeFillsOnlyNullsWithGroupMeans(t *testing.T) {
	games := sparseGames()
	im := Impute(&Normalized{Games: games})

	byTitle := map[string]Game{}
	for _, g := range im.Games {
		byTitle[g.Title] = g
	}
	if g := byTitle["c"]; !g.UserScore.Valid || g.UserScore.V != 65 {
		t.Fatalf("c user score = %+v, want 65", g.UserScore)
	}
	if g := byTitle["c"]; g.CriticScore.V != 70 {
		t.Fatalf("c critic score overwritten: %+v", g.CriticScore)
	}
	if g := byTitle["f"]; !g.CriticScore.Valid || g.CriticScore.V != 90 {
		t.Fatalf("f critic score = %+v, want 90", g.CriticScore)
	}
	// Counts are never imputed.
	if byTitle["d"].CriticCount.Valid {
		t.Fatalf("critic count should stay null")
	}
	// No qualifying group average: scores stay null.
	for _, title := range []string{"h", "i"} {
		g := byTitle[title]
		if g.CriticScore.Valid || g.UserScore.Valid {
			t.Fatalf("%s should stay null, got %+v", title, g)
		}
	}
	if im.FilledCritic != 1 || im.FilledUser != 1 {
		t.Fatalf("filled critic=%d user=%d, want 1 and 1", im.FilledCritic, im.FilledUser)
	}
	if im.Unfilled != 2 {
		t.Fatalf("unfilled = %d, want 2", im.Unfilled)
	}
	// Input untouched.
	if games[2].UserScore.Valid {
		t.Fatalf("Impute mutated its input")
	}
}

func TestImputeIsIdempotent(t *testing.T) {
	first := Impute(&Normalized{Games: sparseGames()})
	second := Impute(first.Normalized())
	if !reflect.DeepEqual(first.Games, second.Games) {
		t.Fatalf("second pass changed rows:\nfirst  %+v\nsecond %+v", first.Games, second.Games)
	}
	if second.FilledCritic != 0 || second.FilledUser != 0 {
		t.Fatalf("second pass filled critic=%d user=%d", second.FilledCritic, second.FilledUser)
	}
	if second.Unfilled != first.Unfilled {
		t.Fatalf("unfilled changed: %d -> %d", first.Unfilled, second.Unfilled)
	}
}

func TestImputeSkipsRowsWithoutYear(t *testing.T) {
	g := game("z", "Action", "PS2", 2001, full(50, 5, 50, 5))
	missing := game("y", "Action", "PS2", 2001, scores{})
	missing.Year = sql.Null[int]{}
	im := Impute(&Normalized{Games: []Game{g, missing}})
	if im.Games[1].CriticScore.Valid {
		t.Fatalf("row without a year must not be imputed")
	}
}
