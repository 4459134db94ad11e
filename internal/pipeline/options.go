package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// YearFilter selects how the release-year filter treats user-score sentinels.
type YearFilter string

const (
	// YearFilterStrict keeps rows whose release year is at least MinYear.
	YearFilterStrict YearFilter = "strict"
	// YearFilterLegacyOr keeps rows whose year is at least MinYear OR whose user score is not "tbd".
	// Kept for reproducing older reports; it retains almost every row.
	YearFilterLegacyOr YearFilter = "legacy-or"
)

// TieBreak selects how equal metric values are ordered when ranking.
type TieBreak string

const (
	// TieBreakInput keeps input order among ties (stable sort).
	TieBreakInput TieBreak = "input"
	// TieBreakTitle orders ties alphabetically by title.
	TieBreakTitle TieBreak = "title"
)

// UserScoreTBD is the sentinel the source uses for a user score that is not yet rated.
const UserScoreTBD = "tbd"

// ErrNoRows is returned when filtering leaves nothing to analyze.
var ErrNoRows = errors.New("no rows left after filtering")

// Options controls every stage of the pipeline.
type Options struct {
	MinYear         int `json:"min_year"`
	MinPlatformRows int `json:"min_platform_rows"`
	// UserScoreScale multiplies the parsed user score so it shares the critic 0-100 scale.
	UserScoreScale float64    `json:"user_score_scale"`
	YearFilter     YearFilter `json:"year_filter"`
	// MinCriticCount: the ratings aggregate keeps rows with a critic count strictly greater.
	MinCriticCount int      `json:"min_critic_count"`
	TieBreak       TieBreak `json:"tie_break"`
}

// DefaultOptions returns the settings of the reference analysis.
func DefaultOptions() Options {
	return Options{
		MinYear:         2000,
		MinPlatformRows: 100,
		UserScoreScale:  10,
		YearFilter:      YearFilterStrict,
		MinCriticCount:  1,
		TieBreak:        TieBreakInput,
	}
}

// ParseYearFilter validates a year-filter mode name.
func ParseYearFilter(s string) (YearFilter, error) {
	switch YearFilter(strings.ToLower(strings.TrimSpace(s))) {
	case YearFilterStrict, "":
		return YearFilterStrict, nil
	case YearFilterLegacyOr, "or":
		return YearFilterLegacyOr, nil
	}
	return "", fmt.Errorf("invalid year filter: %s (use strict or legacy-or)", s)
}

// ParseTieBreak validates a tie-break rule name.
func ParseTieBreak(s string) (TieBreak, error) {
	switch TieBreak(strings.ToLower(strings.TrimSpace(s))) {
	case TieBreakInput, "", "stable":
		return TieBreakInput, nil
	case TieBreakTitle, "alpha":
		return TieBreakTitle, nil
	}
	return "", fmt.Errorf("invalid tie break: %s (use input or title)", s)
}

// Validate reports option values no stage can work with.
func (o Options) Validate() error {
	if o.MinPlatformRows < 0 {
		return fmt.Errorf("min platform rows must be >= 0, got %d", o.MinPlatformRows)
	}
	if o.UserScoreScale <= 0 {
		return fmt.Errorf("user score scale must be > 0, got %g", o.UserScoreScale)
	}
	if o.MinCriticCount < 0 {
		return fmt.Errorf("min critic count must be >= 0, got %d", o.MinCriticCount)
	}
	if _, err := ParseYearFilter(string(o.YearFilter)); err != nil {
		return err
	}
	if _, err := ParseTieBreak(string(o.TieBreak)); err != nil {
		return err
	}
	return nil
}
