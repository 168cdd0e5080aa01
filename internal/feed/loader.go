// Package feed downloads the ATCF sector feeds, caches them on disk and loads
// them into the active storm table.
//
// Every load parses into a staging table that replaces the live table in one
// step, so readers never see a partial load. A fetch writes the disk cache only
// once its download has parsed into a usable table; a failed refresh leaves
// both the cache and the live table as they were.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-atcf/internal/adapter/atcfhttp"
	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
	"github.com/couchcryptid/storm-data-atcf/internal/table"
)

// Fetcher downloads raw feed content. *atcfhttp.Client satisfies it.
type Fetcher interface {
	GetBytes(ctx context.Context, url string) ([]byte, error)
	GetJSON(ctx context.Context, url string, v any) error
}

// Sources are the feed endpoints.
type Sources struct {
	PrimaryURL   string
	InterpURL    string
	AlternateURL string
}

// Source identifies where the live table was last loaded from.
type Source string

const (
	SourceNone      Source = ""
	SourceDisk      Source = "disk"
	SourcePrimary   Source = "primary"
	SourceAlternate Source = "alternate"
)

// Pair is one element of the alternate source's JSON array.
type Pair struct {
	Sector string `json:"atcf_sector_file"`
	Interp string `json:"interp_sector_file"`
}

// Loader owns every mutation of the live table. Loads are serialized.
type Loader struct {
	mu      sync.Mutex
	live    *table.Table
	cache   *Cache
	fetch   Fetcher
	src     Sources
	logger  *slog.Logger
	metrics *observability.Metrics

	lastSource Source
	lastLoad   time.Time
}

// NewLoader creates a loader that publishes into live.
func NewLoader(live *table.Table, cache *Cache, fetch Fetcher, src Sources, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		live:    live,
		cache:   cache,
		fetch:   fetch,
		src:     src,
		logger:  logger,
		metrics: metrics,
	}
}

// Table returns the live table.
func (l *Loader) Table() *table.Table { return l.live }

// LastLoad reports the source and time of the last successful load.
func (l *Loader) LastLoad() (Source, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSource, l.lastLoad
}

// Refresh fetches fresh data, falling back to the alternate source when the
// primary source fails or yields no storms.
func (l *Loader) Refresh(ctx context.Context) error {
	return l.FetchPrimary(ctx)
}

// LoadFromDisk rebuilds the live table from the cached files. A missing sector
// file is the normal state before the first fetch and is not an error.
func (l *Loader) LoadFromDisk(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadFromDisk(ctx, SourceDisk)
}

// FetchPrimary downloads both primary files and parses them. Any transport
// failure, or a download that yields no storms, falls through to
// FetchAlternate with the cache and live table untouched.
func (l *Loader) FetchPrimary(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetchPrimary(ctx)
}

// FetchAlternate downloads the JSON mirror and loads it pair by pair, skipping
// malformed pairs, then caches it. If every pair is malformed nothing changes.
func (l *Loader) FetchAlternate(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetchAlternate(ctx)
}

func (l *Loader) fetchPrimary(ctx context.Context) error {
	if l.src.PrimaryURL == "" {
		return l.fetchAlternate(ctx)
	}
	l.logger.Info("fetching atcf data", "source", SourcePrimary)

	sector, interp, err := l.downloadPrimary(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("primary source failed, trying alternate", "error", err)
		l.metrics.Refreshes.WithLabelValues(string(SourcePrimary), outcomeFor(err)).Inc()
		return l.fetchAlternate(ctx)
	}

	// Nothing is cached or published until the download has parsed into at
	// least one storm.
	staging, loadErr := l.build(sector, interp, nil)
	if staging.Len() == 0 {
		l.logger.Warn("primary source returned no storms, trying alternate", "load_error", loadErr)
		l.metrics.Refreshes.WithLabelValues(string(SourcePrimary), "empty").Inc()
		return l.fetchAlternate(ctx)
	}
	if err := l.cache.Write(sector, interp); err != nil {
		return fmt.Errorf("write feed cache: %w", err)
	}
	l.publish(staging, SourcePrimary)

	outcome := "success"
	if loadErr != nil {
		outcome = "error"
	}
	l.metrics.Refreshes.WithLabelValues(string(SourcePrimary), outcome).Inc()
	return loadErr
}

func (l *Loader) downloadPrimary(ctx context.Context) (sector, interp []byte, err error) {
	sector, err = l.fetch.GetBytes(ctx, l.src.PrimaryURL)
	if err != nil {
		return nil, nil, err
	}
	interp, err = l.fetch.GetBytes(ctx, l.src.InterpURL)
	if err != nil {
		return nil, nil, err
	}
	return sector, interp, nil
}

func (l *Loader) fetchAlternate(ctx context.Context) error {
	if l.src.AlternateURL == "" {
		return fmt.Errorf("%w: no alternate source configured", ErrSourceUnavailable)
	}
	l.logger.Info("fetching atcf data", "source", SourceAlternate)

	var pairs []Pair
	if err := l.fetch.GetJSON(ctx, l.src.AlternateURL, &pairs); err != nil {
		l.metrics.Refreshes.WithLabelValues(string(SourceAlternate), outcomeFor(err)).Inc()
		if isTimeout(err) {
			return fmt.Errorf("alternate source: %w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("alternate source: %w: %w", ErrSourceUnavailable, err)
	}

	staging := table.New()
	for _, p := range pairs {
		if err := staging.AppendPair(p.Sector, p.Interp); err != nil {
			l.logger.Warn("skipping malformed alternate entry", "error", err)
			l.countParseError(err)
		}
	}
	// An empty array means no active storms; entries that all fail to parse
	// mean the mirror is serving something else.
	if len(pairs) > 0 && staging.Len() == 0 {
		l.metrics.Refreshes.WithLabelValues(string(SourceAlternate), "empty").Inc()
		return fmt.Errorf("alternate source: %w: none of %d entries parsed", ErrSourceUnavailable, len(pairs))
	}

	var sector, interp bytes.Buffer
	for _, p := range pairs {
		sector.WriteString(p.Sector + "\n")
		interp.WriteString(p.Interp + "\n")
	}
	if err := l.cache.Write(sector.Bytes(), interp.Bytes()); err != nil {
		return fmt.Errorf("write feed cache: %w", err)
	}
	l.publish(staging, SourceAlternate)
	l.metrics.Refreshes.WithLabelValues(string(SourceAlternate), "success").Inc()
	return nil
}

func (l *Loader) loadFromDisk(_ context.Context, src Source) error {
	sectorData, err := os.ReadFile(l.cache.FixPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			l.logger.Info("no cached atcf data found")
			return nil
		}
		return fmt.Errorf("read sector cache: %w", err)
	}
	interpData, readErr := os.ReadFile(l.cache.InterpPath())

	staging, err := l.build(sectorData, interpData, readErr)
	l.publish(staging, src)
	return err
}

// build parses a sector file and its interp file into a fresh table. Malformed
// sector lines are skipped. If the interp half cannot be matched it is rolled
// back and the table is returned with the sector half only, alongside an
// *InterpolationMismatchError.
func (l *Loader) build(sectorData, interpData []byte, interpErr error) (*table.Table, error) {
	staging := table.New()
	for _, line := range lines(sectorData) {
		if err := staging.AppendLine(line, domain.ModeFix); err != nil {
			l.logger.Warn("skipping malformed sector line", "error", err)
			l.countParseError(err)
		}
	}

	sp := staging.Savepoint()
	if err := l.attachInterp(staging, interpData, interpErr); err != nil {
		staging.RollbackTo(sp)
		return staging, err
	}
	return staging, nil
}

// attachInterp matches each sector row to its interp row by short ID and
// appends the interp rows in sector order.
func (l *Loader) attachInterp(staging *table.Table, interpData []byte, readErr error) error {
	if readErr != nil {
		return &InterpolationMismatchError{Missing: staging.IDs(), Err: readErr}
	}

	var rows [][]string
	for _, line := range lines(interpData) {
		rows = append(rows, strings.Fields(line))
	}

	var missing []string
	for _, f := range staging.Fixes() {
		tok, ok := matchInterp(rows, f.ShortID)
		if !ok {
			missing = append(missing, f.ShortID)
			continue
		}
		in, err := domain.InterpFromTokens(tok)
		if err != nil {
			l.countParseError(err)
			return &InterpolationMismatchError{Missing: []string{f.ShortID}, Err: err}
		}
		staging.AppendInterp(in)
	}
	if len(missing) > 0 {
		return &InterpolationMismatchError{Missing: missing}
	}
	return nil
}

// matchInterp returns the first interp row whose key (storm number from the
// long ID plus the basin column) equals id.
func matchInterp(rows [][]string, id string) ([]string, bool) {
	for _, tok := range rows {
		if len(tok) < 7 || len(tok[0]) < 4 {
			continue
		}
		if tok[0][2:4]+tok[6] == id {
			return tok, true
		}
	}
	return nil, false
}

func (l *Loader) publish(staging *table.Table, src Source) {
	l.live.Replace(staging)
	l.lastSource = src
	l.lastLoad = domain.Clock().Now()
	l.metrics.ActiveStorms.Set(float64(l.live.Len()))
	l.logger.Info("atcf data loaded", "source", src, "storms", l.live.Len(), "complete", l.live.Complete())
}

func (l *Loader) countParseError(err error) {
	var fe *domain.FormatError
	if errors.As(err, &fe) {
		l.metrics.ParseErrors.WithLabelValues(fe.Mode.String()).Inc()
	}
}

func lines(data []byte) []string {
	var out []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for sc.Scan() {
		if line := sc.Text(); strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func isTimeout(err error) bool {
	return errors.Is(err, atcfhttp.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func outcomeFor(err error) string {
	if isTimeout(err) {
		return "timeout"
	}
	return "error"
}
