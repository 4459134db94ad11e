package pipeline

import "database/sql"

// GroupKey identifies an imputation group.
type GroupKey struct {
	Genre    string
	Platform string
	Year     int
}

// GroupMeans holds the four field means over the fully populated rows of a group.
type GroupMeans struct {
	CriticScore float64
	CriticCount float64
	UserScore   float64
	UserCount   float64
	// Rows is the number of rows that contributed.
	Rows int
}

// GroupAverages is the imputation lookup table.
type GroupAverages map[GroupKey]GroupMeans

// Imputed is the normalized collection with critic and user score nulls filled where a
// group average exists.
type Imputed struct {
	Games    []Game
	Averages GroupAverages

	FilledCritic int
	FilledUser   int
	// Unfilled counts rows still missing a critic or user score.
	Unfilled int
}

// ComputeGroupAverages averages critic score, critic count, user score and user count per
// (genre, platform, year). A row contributes only when all four fields are present.
// Rows without a release year belong to no group.
func ComputeGroupAverages(games []Game) GroupAverages {
	type acc struct {
		cs, cc, us, uc float64
		n              int
	}
	sums := map[GroupKey]*acc{}
	for _, g := range games {
		key, ok := groupKey(g)
		if !ok || !complete(g) {
			continue
		}
		a := sums[key]
		if a == nil {
			a = &acc{}
			sums[key] = a
		}
		a.cs += g.CriticScore.V
		a.cc += float64(g.CriticCount.V)
		a.us += g.UserScore.V
		a.uc += float64(g.UserCount.V)
		a.n++
	}
	out := make(GroupAverages, len(sums))
	for k, a := range sums {
		n := float64(a.n)
		out[k] = GroupMeans{
			CriticScore: a.cs / n,
			CriticCount: a.cc / n,
			UserScore:   a.us / n,
			UserCount:   a.uc / n,
			Rows:        a.n,
		}
	}
	return out
}

// Impute fills null critic and user scores from the group averages. Existing values are
// never overwritten, and rows whose group has no average stay null.
func Impute(n *Normalized) *Imputed {
	out := &Imputed{}
	if n == nil {
		out.Averages = GroupAverages{}
		return out
	}
	out.Averages = ComputeGroupAverages(n.Games)
	out.Games = make([]Game, len(n.Games))
	for i, g := range n.Games {
		if key, ok := groupKey(g); ok {
			if m, found := out.Averages[key]; found {
				if !g.CriticScore.Valid {
					g.CriticScore = sql.Null[float64]{V: m.CriticScore, Valid: true}
					out.FilledCritic++
				}
				if !g.UserScore.Valid {
					g.UserScore = sql.Null[float64]{V: m.UserScore, Valid: true}
					out.FilledUser++
				}
			}
		}
		if !g.CriticScore.Valid || !g.UserScore.Valid {
			out.Unfilled++
		}
		out.Games[i] = g
	}
	return out
}

// Normalized exposes the imputed rows as input for another imputation pass.
func (im *Imputed) Normalized() *Normalized {
	games := make([]Game, len(im.Games))
	copy(games, im.Games)
	platforms := map[string]int{}
	for _, g := range games {
		platforms[g.Platform]++
	}
	return &Normalized{Games: games, PlatformRows: platforms, InputRows: len(games)}
}

func groupKey(g Game) (GroupKey, bool) {
	if !g.Year.Valid {
		return GroupKey{}, false
	}
	return GroupKey{Genre: g.Genre, Platform: g.Platform, Year: g.Year.V}, true
}

func complete(g Game) bool {
	return g.CriticScore.Valid && g.CriticCount.Valid && g.UserScore.Valid && g.UserCount.Valid
}
