package besttrack

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
)

var (
	ErrNoFilters       = errors.New("at least one of name, season, basin, atcf_id or sid is required")
	ErrInvalidBasin    = errors.New("invalid basin")
	ErrInvalidSeason   = errors.New("invalid season")
	ErrInvalidTable    = errors.New("invalid table")
	ErrArchiveNotReady = errors.New("best-track archive has not been imported")
)

// Basins are the IBTrACS basin codes accepted by Filter.
var Basins = []string{"NA", "SA", "NI", "SI", "SP", "EP", "WP"}

// Filter selects storms. Zero-valued fields are ignored; at least one of the
// storm fields must be set.
type Filter struct {
	Name   string
	Season int
	Basin  string
	ATCFID string
	SID    string
	// Table is the table to search first. Defaults to TableRecent.
	Table Table
}

// Validate checks the filter and normalizes case.
func (f *Filter) Validate() error {
	if f.Table != "" && !f.Table.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTable, f.Table)
	}
	if f.Season < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSeason, f.Season)
	}
	f.Name = strings.ToUpper(strings.TrimSpace(f.Name))
	f.Basin = strings.ToUpper(strings.TrimSpace(f.Basin))
	f.ATCFID = strings.ToUpper(strings.TrimSpace(f.ATCFID))
	f.SID = strings.ToUpper(strings.TrimSpace(f.SID))
	if f.Basin != "" && !slices.Contains(Basins, f.Basin) {
		return fmt.Errorf("%w: %q", ErrInvalidBasin, f.Basin)
	}
	if f.Name == "" && f.Season == 0 && f.Basin == "" && f.ATCFID == "" && f.SID == "" {
		return ErrNoFilters
	}
	return nil
}

// Key identifies a filter for caching.
func (f Filter) Key() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s", f.Name, f.Season, f.Basin, f.ATCFID, f.SID, f.Table)
}

func (f Filter) where() (string, []any) {
	var conds []string
	var args []any
	add := func(col string, v any) {
		conds = append(conds, col+" = ?")
		args = append(args, v)
	}
	if f.Name != "" {
		add("NAME", f.Name)
	}
	if f.Season != 0 {
		add("SEASON", f.Season)
	}
	if f.Basin != "" {
		add("BASIN", f.Basin)
	}
	if f.ATCFID != "" {
		add("USA_ATCF_ID", f.ATCFID)
	}
	if f.SID != "" {
		add("SID", f.SID)
	}
	return strings.Join(conds, " AND "), args
}

// Storm is a historical storm at its peak.
type Storm struct {
	ATCFID       string `json:"atcf_id,omitempty"`
	Basin        string `json:"basin"`
	PeakWind     int    `json:"peak_wind_kt"`
	PeakPressure int    `json:"peak_pressure_mb,omitempty"` // 0 when unknown
	TimeOfPeak   string `json:"time_of_peak"`
	Name         string `json:"name"`
	BestTrackID  string `json:"sid"`
	Season       int    `json:"season"`
}

// Match is one candidate when a filter matches several storms.
type Match struct {
	SID    string `json:"sid"`
	Season int    `json:"season"`
	Basin  string `json:"basin"`
	Name   string `json:"name"`
}

func (m Match) String() string {
	return fmt.Sprintf("%s (%d) from %s (IBTrACS ID: %s)", m.Name, m.Season, m.Basin, m.SID)
}

func compareMatch(a, b Match) int {
	return cmp.Or(
		cmp.Compare(a.SID, b.SID),
		cmp.Compare(a.Season, b.Season),
		cmp.Compare(a.Basin, b.Basin),
		cmp.Compare(a.Name, b.Name),
	)
}

// Result is the outcome of Find: a single storm, a list of candidates, or
// neither when nothing matched.
type Result struct {
	Storm   *Storm  `json:"storm,omitempty"`
	Matches []Match `json:"matches,omitempty"`
}

// Found reports whether anything matched.
func (r Result) Found() bool { return r.Storm != nil || len(r.Matches) > 0 }

// Ambiguous reports whether the filter matched more than one storm.
func (r Result) Ambiguous() bool { return len(r.Matches) > 0 }

// Archive queries an imported best-track database.
type Archive struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewArchive wraps an open database.
func NewArchive(db *sql.DB, logger *slog.Logger) *Archive {
	return &Archive{db: db, logger: logger}
}

// Find looks up storms matching f. The preferred table is searched first and
// the full archive second. When the matches span more than one storm, the
// deduplicated candidates are returned instead of a storm.
func (a *Archive) Find(ctx context.Context, f Filter) (Result, error) {
	if err := f.Validate(); err != nil {
		return Result{}, err
	}
	table := f.Table
	if table == "" {
		table = TableRecent
	}
	where, args := f.where()
	a.logger.Debug("best-track query", "table", table, "where", where)

	matches, err := a.matches(ctx, table, where, args)
	if err != nil {
		return Result{}, err
	}
	if len(matches) == 0 && table != TableAll {
		table = TableAll
		if matches, err = a.matches(ctx, table, where, args); err != nil {
			return Result{}, err
		}
	}
	if len(matches) == 0 {
		return Result{}, nil
	}

	sid := matches[0].SID
	for _, m := range matches[1:] {
		if m.SID != sid {
			return Result{Matches: matches}, nil
		}
	}

	s, err := a.peak(ctx, table, sid)
	if err != nil {
		return Result{}, err
	}
	return Result{Storm: &s}, nil
}

func (a *Archive) matches(ctx context.Context, table Table, where string, args []any) ([]Match, error) {
	ok, err := tableExists(ctx, a.db, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		if table == TableAll {
			return nil, fmt.Errorf("%w: table %s missing", ErrArchiveNotReady, table)
		}
		return nil, nil
	}

	q := fmt.Sprintf(`SELECT DISTINCT SID, SEASON, BASIN, NAME FROM %s WHERE %s`, table, where)
	rows, err := a.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var (
			m      Match
			season sql.NullInt64
			basin  sql.NullString
			name   sql.NullString
		)
		if err := rows.Scan(&m.SID, &season, &basin, &name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		m.Season, m.Basin, m.Name = int(season.Int64), basin.String, name.String
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	slices.SortFunc(out, compareMatch)
	return slices.CompactFunc(out, func(a, b Match) bool { return compareMatch(a, b) == 0 }), nil
}

// peakRow is a row selected alongside a MAX() aggregate. SQLite returns the
// bare columns from the row holding the maximum.
type peakRow struct {
	atcfID   sql.NullString
	basin    sql.NullString
	wind     sql.NullFloat64
	pressure sql.NullFloat64
	isoTime  sql.NullString
	name     sql.NullString
	season   sql.NullInt64
}

func (a *Archive) peakQuery(ctx context.Context, q string, args ...any) (peakRow, error) {
	var r peakRow
	err := a.db.QueryRowContext(ctx, q, args...).Scan(
		&r.atcfID, &r.basin, &r.wind, &r.pressure, &r.isoTime, &r.name, &r.season)
	return r, err
}

// peak finds the storm's strongest observation. USA agency winds are
// preferred; WMO winds are used when the USA column is blank for the whole
// storm. Extratropical rows never count as the peak.
func (a *Archive) peak(ctx context.Context, table Table, sid string) (Storm, error) {
	r, err := a.peakQuery(ctx, fmt.Sprintf(
		`SELECT USA_ATCF_ID, BASIN, MAX(USA_WIND), USA_PRES, ISO_TIME, NAME, SEASON
		 FROM %s WHERE SID = ? AND USA_WIND IS NOT NULL AND COALESCE(NATURE, '') != 'ET'`, table), sid)
	if err != nil {
		return Storm{}, fmt.Errorf("peak query: %w", err)
	}

	if !r.name.Valid {
		r, err = a.peakQuery(ctx, fmt.Sprintf(
			`SELECT USA_ATCF_ID, BASIN, MAX(WMO_WIND), WMO_PRES, ISO_TIME, NAME, SEASON
			 FROM %s WHERE SID = ? AND WMO_WIND IS NOT NULL`, table), sid)
		if err != nil {
			return Storm{}, fmt.Errorf("peak query (wmo): %w", err)
		}
	}
	if !r.name.Valid {
		// No wind data at all; report the storm with unknown intensity.
		r, err = a.peakQuery(ctx, fmt.Sprintf(
			`SELECT USA_ATCF_ID, BASIN, NULL, WMO_PRES, ISO_TIME, NAME, SEASON
			 FROM %s WHERE SID = ? ORDER BY ISO_TIME LIMIT 1`, table), sid)
		if err != nil {
			return Storm{}, fmt.Errorf("peak query (any): %w", err)
		}
	}

	if !r.pressure.Valid && r.isoTime.Valid {
		var wmo sql.NullFloat64
		err := a.db.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT WMO_PRES FROM %s WHERE SID = ? AND ISO_TIME = ?`, table), sid, r.isoTime.String).Scan(&wmo)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return Storm{}, fmt.Errorf("pressure query: %w", err)
		}
		r.pressure = wmo
	}

	return Storm{
		ATCFID:       strings.TrimSpace(r.atcfID.String),
		Basin:        r.basin.String,
		PeakWind:     roundInt(r.wind),
		PeakPressure: roundInt(r.pressure),
		TimeOfPeak:   r.isoTime.String,
		Name:         r.name.String,
		BestTrackID:  sid,
		Season:       int(r.season.Int64),
	}, nil
}

// IsSubtropical reports whether the storm was subtropical at its peak: flagged
// SS or DS and never TS at peak-intensity rows, ignoring extratropical rows.
// The recent table is checked first.
func (a *Archive) IsSubtropical(ctx context.Context, s Storm) (bool, error) {
	if s.PeakWind == 0 {
		return false, nil
	}
	for _, table := range []Table{TableRecent, TableAll} {
		natures, err := a.peakNatures(ctx, table, s)
		if err != nil {
			return false, err
		}
		if len(natures) == 0 {
			continue
		}
		return (natures["SS"] || natures["DS"]) && !natures["TS"], nil
	}
	return false, nil
}

func (a *Archive) peakNatures(ctx context.Context, table Table, s Storm) (map[string]bool, error) {
	ok, err := tableExists(ctx, a.db, table)
	if err != nil || !ok {
		return nil, err
	}

	var (
		where string
		args  []any
	)
	if s.BestTrackID != "" {
		where = "SID = ?"
		args = []any{s.BestTrackID}
	} else {
		where = "NAME = ? AND SEASON = ? AND BASIN = ?"
		args = []any{s.Name, s.Season, s.Basin}
	}
	args = append(args, s.PeakWind, s.PeakWind)

	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT NATURE FROM %s WHERE %s AND NATURE != 'ET' AND (WMO_WIND = ? OR USA_WIND = ?)`,
		table, where), args...)
	if err != nil {
		return nil, fmt.Errorf("nature query: %w", err)
	}
	defer rows.Close()

	natures := make(map[string]bool)
	for rows.Next() {
		var n sql.NullString
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan nature: %w", err)
		}
		natures[strings.TrimSpace(n.String)] = true
	}
	return natures, rows.Err()
}

// Generation changes whenever either table is re-imported, by any process
// sharing the database file.
func (a *Archive) Generation(ctx context.Context) (int64, error) {
	return generation(ctx, a.db)
}

// Nature returns the storm's category at peak intensity.
func (a *Archive) Nature(ctx context.Context, s Storm) (domain.Category, error) {
	sub, err := a.IsSubtropical(ctx, s)
	if err != nil {
		return "", err
	}
	return domain.HistoricalNature(s.PeakWind, s.Basin, sub), nil
}

func roundInt(v sql.NullFloat64) int {
	if !v.Valid {
		return 0
	}
	return int(math.Round(v.Float64))
}
