package dataset

import (
	"database/sql"
	"errors"
)

// Column names as published by the sales/review source file. They are matched literally.
const (
	ColName        = "Name"
	ColPlatform    = "Platform"
	ColYear        = "Year_of_Release"
	ColGenre       = "Genre"
	ColPublisher   = "Publisher"
	ColNASales     = "NA_Sales"
	ColEUSales     = "EU_Sales"
	ColJPSales     = "JP_Sales"
	ColOtherSales  = "Other_Sales"
	ColGlobalSales = "Global_Sales"
	ColCriticScore = "Critic_Score"
	ColCriticCount = "Critic_Count"
	ColUserScore   = "User_Score"
	ColUserCount   = "User_Count"
	ColDeveloper   = "Developer"
	// ColRating is the ESRB rating; optional in the header.
	ColRating = "Rating"
)

// RequiredColumns lists the header names a source file must carry.
var RequiredColumns = []string{
	ColName, ColPlatform, ColYear, ColGenre, ColPublisher,
	ColNASales, ColEUSales, ColJPSales, ColOtherSales, ColGlobalSales,
	ColCriticScore, ColCriticCount, ColUserScore, ColUserCount, ColDeveloper,
}

// ErrSchema reports a header that does not match the expected columns.
var ErrSchema = errors.New("schema mismatch")

// GameRecord is one (title, platform) row of the source file.
type GameRecord struct {
	Title     string
	Platform  string
	Year      sql.Null[int]
	Genre     string
	Publisher string
	Developer string
	Rating    string

	NASales     sql.Null[float64]
	EUSales     sql.Null[float64]
	JPSales     sql.Null[float64]
	OtherSales  sql.Null[float64]
	GlobalSales sql.Null[float64]

	CriticScore sql.Null[float64]
	CriticCount sql.Null[int]
	// UserScore is kept as text; the source mixes numbers with sentinels like "tbd".
	UserScore string
	UserCount sql.Null[int]
}

// Table is the loaded, typed source file.
type Table struct {
	Name string
	Rows []GameRecord
	// Malformed counts rows that were padded, truncated or unreadable.
	Malformed int
	// Truncated is set when MaxRows stopped the read early.
	Truncated bool
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
