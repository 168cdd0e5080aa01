package besttrack

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-atcf/internal/observability"
)

// Variant is one of the IBTrACS CSV distributions.
type Variant string

const (
	VariantLast3 Variant = "last3"
	VariantAll   Variant = "all"
)

// ParseVariant accepts "last3" or "all".
func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(s)); v {
	case VariantLast3, VariantAll:
		return v, nil
	}
	return "", fmt.Errorf("invalid variant %q: want last3 or all", s)
}

// Table returns the table the variant is imported into.
func (v Variant) Table() Table {
	if v == VariantAll {
		return TableAll
	}
	return TableRecent
}

// FileName is the upstream CSV file name.
func (v Variant) FileName() string {
	if v == VariantAll {
		return "ibtracs.ALL.list.v04r01.csv"
	}
	return "ibtracs.last3years.list.v04r01.csv"
}

// numericColumns are stored with NUMERIC affinity so comparisons and MAX()
// work on numbers. Every other column is TEXT.
var numericColumns = map[string]bool{
	"SEASON": true, "NUMBER": true, "LAT": true, "LON": true,
	"WMO_WIND": true, "WMO_PRES": true,
	"USA_LAT": true, "USA_LON": true, "USA_WIND": true, "USA_PRES": true, "USA_SSHS": true,
	"DIST2LAND": true, "LANDFALL": true, "STORM_SPEED": true, "STORM_DIR": true,
}

// requiredColumns are the columns the archive queries read.
var requiredColumns = []string{
	"SID", "SEASON", "BASIN", "NAME", "ISO_TIME", "NATURE",
	"WMO_WIND", "WMO_PRES", "USA_ATCF_ID", "USA_WIND", "USA_PRES",
}

var columnName = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// Downloader streams a URL into w. *atcfhttp.Client satisfies it.
type Downloader interface {
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Purger is notified after a successful import so cached results can be dropped.
type Purger interface {
	Purge()
}

// Importer loads IBTrACS CSV files into the archive database.
type Importer struct {
	db      *sql.DB
	dl      Downloader
	baseURL string
	logger  *slog.Logger
	metrics *observability.Metrics
	purgers []Purger
}

// NewImporter creates an importer. dl may be nil if Download is never called.
func NewImporter(db *sql.DB, dl Downloader, baseURL string, logger *slog.Logger, metrics *observability.Metrics, purgers ...Purger) *Importer {
	return &Importer{
		db:      db,
		dl:      dl,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
		purgers: purgers,
	}
}

// Download fetches the variant's CSV to a temporary file and imports it.
func (im *Importer) Download(ctx context.Context, v Variant) (int64, error) {
	if im.dl == nil {
		return 0, errors.New("no downloader configured")
	}
	url := im.baseURL + "/" + v.FileName()
	im.logger.Info("downloading best-track data", "variant", v, "url", url)

	f, err := os.CreateTemp("", "ibtracs-*.csv")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	start := time.Now()
	n, err := im.dl.Download(ctx, url, f)
	if err != nil {
		im.metrics.BestTrackImports.WithLabelValues(string(v.Table()), "download_error").Inc()
		return 0, fmt.Errorf("download %s: %w", v.FileName(), err)
	}
	im.logger.Info("best-track download complete", "bytes", n, "duration", time.Since(start))

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("rewind temp file: %w", err)
	}
	return im.Import(ctx, v.Table(), f)
}

// Import replaces table with the CSV read from r and returns the number of
// rows loaded. The first row names the columns and the second holds units;
// both are dropped. Blank fields are stored as NULL. The old table stays in
// place until the new one is fully loaded.
func (im *Importer) Import(ctx context.Context, table Table, r io.Reader) (int64, error) {
	if !table.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	n, err := im.importCSV(ctx, table, r)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	im.metrics.BestTrackImports.WithLabelValues(string(table), outcome).Inc()
	if err != nil {
		return 0, err
	}

	for _, p := range im.purgers {
		p.Purge()
	}
	im.logger.Info("best-track import complete", "table", table, "rows", n)
	return n, nil
}

func (im *Importer) importCSV(ctx context.Context, table Table, r io.Reader) (int64, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToUpper(strings.TrimSpace(h))
		if !columnName.MatchString(cols[i]) {
			return 0, fmt.Errorf("invalid column name %q", h)
		}
	}
	for _, want := range requiredColumns {
		if !slices.Contains(cols, want) {
			return 0, fmt.Errorf("missing column %s", want)
		}
	}
	if _, err := cr.Read(); err != nil {
		return 0, fmt.Errorf("read units row: %w", err)
	}

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	staging := string(table) + "_import"
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+staging); err != nil {
		return 0, fmt.Errorf("drop staging: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(staging, cols)); err != nil {
		return 0, fmt.Errorf("create staging: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, staging, placeholders))
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	var n int64
	args := make([]any, len(cols))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row %d: %w", n+3, err)
		}
		for i := range args {
			args[i] = nil
			if i < len(rec) {
				if v := strings.TrimSpace(rec[i]); v != "" {
					args[i] = v
				}
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("insert row %d: %w", n+3, err)
		}
		n++
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close insert: %w", err)
	}

	stmts := []string{
		`DROP TABLE IF EXISTS ` + string(table),
		fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, staging, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_sid ON %s (SID)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (NAME, SEASON)`, table, table),
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return 0, fmt.Errorf("swap tables: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, createImportMetaSQL); err != nil {
		return 0, fmt.Errorf("create import meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO `+importMeta+` (tbl, generation, imported_at, row_count)
		VALUES (?, 1, ?, ?)
		ON CONFLICT (tbl) DO UPDATE SET
			generation = generation + 1,
			imported_at = excluded.imported_at,
			row_count = excluded.row_count`,
		string(table), time.Now().UTC().Format(time.RFC3339), n); err != nil {
		return 0, fmt.Errorf("stamp import: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

func createTableSQL(name string, cols []string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		typ := "TEXT"
		if numericColumns[c] {
			typ = "NUMERIC"
		}
		defs[i] = fmt.Sprintf(`"%s" %s`, c, typ)
	}
	return fmt.Sprintf(`CREATE TABLE %s (%s)`, name, strings.Join(defs, ", "))
}
