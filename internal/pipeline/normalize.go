package pipeline

import (
	"database/sql"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/gamestats-cli/internal/dataset"
)

// Game is a normalized row: regional sales dropped and both scores on a 0-100 scale.
type Game struct {
	Title     string
	Platform  string
	Year      sql.Null[int]
	Genre     string
	Publisher string
	Developer string
	Rating    string

	GlobalSales sql.Null[float64]
	CriticScore sql.Null[float64]
	CriticCount sql.Null[int]
	UserScore   sql.Null[float64]
	UserCount   sql.Null[int]
}

// Normalized is the output of the year and platform filters.
type Normalized struct {
	Games []Game
	// PlatformRows counts retained rows per platform.
	PlatformRows map[string]int

	InputRows         int
	DroppedByYear     int
	DroppedByPlatform int
	// UserScoreSentinels counts non-numeric user scores mapped to null.
	UserScoreSentinels int
}

// Normalize applies the year filter, then the platform-volume filter on the survivors,
// then converts and rescales the user score.
func Normalize(t *dataset.Table, opt Options) (*Normalized, error) {
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	out := &Normalized{PlatformRows: map[string]int{}, InputRows: t.Len()}
	if t == nil {
		return out, nil
	}

	var byYear []dataset.GameRecord
	for _, r := range t.Rows {
		if keepYear(r, opt) {
			byYear = append(byYear, r)
		} else {
			out.DroppedByYear++
		}
	}

	counts := map[string]int{}
	for _, r := range byYear {
		counts[r.Platform]++
	}

	out.Games = make([]Game, 0, len(byYear))
	for _, r := range byYear {
		if counts[r.Platform] < opt.MinPlatformRows {
			out.DroppedByPlatform++
			continue
		}
		us, sentinel := parseUserScore(r.UserScore, opt.UserScoreScale)
		if sentinel {
			out.UserScoreSentinels++
		}
		out.Games = append(out.Games, Game{
			Title:       r.Title,
			Platform:    r.Platform,
			Year:        r.Year,
			Genre:       r.Genre,
			Publisher:   r.Publisher,
			Developer:   r.Developer,
			Rating:      r.Rating,
			GlobalSales: r.GlobalSales,
			CriticScore: r.CriticScore,
			CriticCount: r.CriticCount,
			UserScore:   us,
			UserCount:   r.UserCount,
		})
		out.PlatformRows[r.Platform]++
	}
	return out, nil
}

func keepYear(r dataset.GameRecord, opt Options) bool {
	recent := r.Year.Valid && r.Year.V >= opt.MinYear
	if opt.YearFilter == YearFilterLegacyOr {
		return recent || !strings.EqualFold(strings.TrimSpace(r.UserScore), UserScoreTBD)
	}
	return recent
}

// parseUserScore converts the raw user score text. Blank cells are plain nulls; any other
// text that is not a number is a sentinel and also becomes null.
func parseUserScore(raw string, scale float64) (sql.Null[float64], bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return sql.Null[float64]{}, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.Null[float64]{}, true
	}
	return sql.Null[float64]{V: v * scale, Valid: true}, false
}
