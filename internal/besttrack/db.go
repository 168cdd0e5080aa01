// Package besttrack answers historical queries against an IBTrACS best-track
// archive imported into SQLite.
package besttrack

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Table names one of the two imported archive tables.
type Table string

const (
	// TableRecent holds the last three seasons and is queried first.
	TableRecent Table = "LastThreeYears"
	// TableAll holds the full archive.
	TableAll Table = "AllBestTrack"
)

// Valid reports whether t is a known table.
func (t Table) Valid() bool { return t == TableRecent || t == TableAll }

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; imports replace whole tables inside a transaction.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// importMeta records one row per imported table. generation is bumped by every
// import so readers on other connections, or in other processes, can tell
// their cached results are stale.
const importMeta = "import_meta"

const createImportMetaSQL = `CREATE TABLE IF NOT EXISTS ` + importMeta + ` (
	tbl         TEXT PRIMARY KEY,
	generation  INTEGER NOT NULL,
	imported_at TEXT NOT NULL,
	row_count   INTEGER NOT NULL
)`

// generation returns the sum of every table's import generation, or 0 before
// the first import.
func generation(ctx context.Context, q queryer) (int64, error) {
	ok, err := tableExists(ctx, q, importMeta)
	if err != nil || !ok {
		return 0, err
	}
	var g int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(SUM(generation), 0) FROM `+importMeta).Scan(&g); err != nil {
		return 0, fmt.Errorf("read import generation: %w", err)
	}
	return g, nil
}

// tableExists reports whether t has been imported.
func tableExists(ctx context.Context, q queryer, t Table) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, string(t)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", t, err)
	}
	return n > 0, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
