package dataset

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// LoadOptions controls how the source file is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picked from the file extension (.tsv is tab, else comma).
	Delimiter rune
	// MaxRows limits data rows read; 0 means unlimited.
	MaxRows int
}

// nanValues are the cell contents treated as missing for every column.
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null"}

// columnTypes fixes the gota series type per column. Counts and years are read as
// floats because exports of this dataset often write them as "2006.0".
var columnTypes = map[string]series.Type{
	ColName:        series.String,
	ColPlatform:    series.String,
	ColYear:        series.Float,
	ColGenre:       series.String,
	ColPublisher:   series.String,
	ColNASales:     series.Float,
	ColEUSales:     series.Float,
	ColJPSales:     series.Float,
	ColOtherSales:  series.Float,
	ColGlobalSales: series.Float,
	ColCriticScore: series.Float,
	ColCriticCount: series.Float,
	ColUserScore:   series.String,
	ColUserCount:   series.Float,
	ColDeveloper:   series.String,
	ColRating:      series.String,
}

// Load opens path and reads it into a typed Table.
func Load(path string, opt LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return Read(f, filepath.Base(path), opt)
}

// Read parses delimited text from r. Rows with the wrong field count are padded or
// truncated; numeric cells that do not parse become nulls.
func Read(r io.Reader, name string, opt LoadOptions) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrSchema)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = trimHeader(header)
	if err := validateHeader(header); err != nil {
		return nil, err
	}
	ncol := len(header)

	t := &Table{Name: name}
	records := [][]string{header}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	for {
		if len(records)-1 >= maxRows {
			if _, err := cr.Read(); err == nil {
				t.Truncated = true
			}
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				// Keep the row as an explicit all-null entry.
				records = append(records, make([]string, ncol))
				t.Malformed++
				continue
			}
			return nil, fmt.Errorf("read row %d: %w", len(records), err)
		}
		if len(rec) != ncol {
			t.Malformed++
			row := make([]string, ncol)
			copy(row, rec)
			rec = row
		}
		records = append(records, rec)
	}
	if len(records) == 1 {
		return t, nil
	}

	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.WithTypes(typesFor(header)),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("coerce columns: %w", df.Err)
	}
	t.Rows = recordsFromFrame(df)
	return t, nil
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		// Strip a UTF-8 BOM some spreadsheet exports prepend.
		out[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return out
}

func validateHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return fmt.Errorf("%w: duplicate column %q", ErrSchema, h)
		}
		seen[h] = true
	}
	var missing []string
	for _, c := range RequiredColumns {
		if !seen[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing columns %s", ErrSchema, strings.Join(missing, ", "))
	}
	return nil
}

func typesFor(header []string) map[string]series.Type {
	types := make(map[string]series.Type, len(header))
	for _, h := range header {
		if t, ok := columnTypes[h]; ok {
			types[h] = t
		} else {
			types[h] = series.String
		}
	}
	return types
}

func recordsFromFrame(df dataframe.DataFrame) []GameRecord {
	n := df.Nrow()
	rows := make([]GameRecord, n)

	text := func(col string, set func(*GameRecord, string)) {
		if !hasColumn(df, col) {
			return
		}
		s := df.Col(col)
		for i := 0; i < n; i++ {
			e := s.Elem(i)
			if e.IsNA() {
				continue
			}
			set(&rows[i], strings.TrimSpace(e.String()))
		}
	}
	float := func(col string, set func(*GameRecord, sql.Null[float64])) {
		vals := df.Col(col).Float()
		for i, v := range vals {
			set(&rows[i], nullFloat(v))
		}
	}
	integer := func(col string, set func(*GameRecord, sql.Null[int])) {
		vals := df.Col(col).Float()
		for i, v := range vals {
			set(&rows[i], nullInt(v))
		}
	}

	text(ColName, func(r *GameRecord, v string) { r.Title = v })
	text(ColPlatform, func(r *GameRecord, v string) { r.Platform = v })
	text(ColGenre, func(r *GameRecord, v string) { r.Genre = v })
	text(ColPublisher, func(r *GameRecord, v string) { r.Publisher = v })
	text(ColDeveloper, func(r *GameRecord, v string) { r.Developer = v })
	text(ColRating, func(r *GameRecord, v string) { r.Rating = v })
	text(ColUserScore, func(r *GameRecord, v string) { r.UserScore = v })

	integer(ColYear, func(r *GameRecord, v sql.Null[int]) { r.Year = v })
	float(ColNASales, func(r *GameRecord, v sql.Null[float64]) { r.NASales = v })
	float(ColEUSales, func(r *GameRecord, v sql.Null[float64]) { r.EUSales = v })
	float(ColJPSales, func(r *GameRecord, v sql.Null[float64]) { r.JPSales = v })
	float(ColOtherSales, func(r *GameRecord, v sql.Null[float64]) { r.OtherSales = v })
	float(ColGlobalSales, func(r *GameRecord, v sql.Null[float64]) { r.GlobalSales = v })
	float(ColCriticScore, func(r *GameRecord, v sql.Null[float64]) { r.CriticScore = v })
	integer(ColCriticCount, func(r *GameRecord, v sql.Null[int]) { r.CriticCount = v })
	integer(ColUserCount, func(r *GameRecord, v sql.Null[int]) { r.UserCount = v })
	return rows
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

func nullFloat(v float64) sql.Null[float64] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.Null[float64]{}
	}
	return sql.Null[float64]{V: v, Valid: true}
}

func nullInt(v float64) sql.Null[int] {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.Null[int]{}
	}
	return sql.Null[int]{V: int(v), Valid: true}
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
