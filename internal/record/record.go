// Package record tracks the strongest storm the service has observed.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
	"github.com/couchcryptid/storm-data-atcf/internal/observability"
)

// Record is the strongest storm seen so far.
type Record struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	DisplayName string          `json:"display_name"`
	Category    domain.Category `json:"category"`
	Tier        domain.Tier     `json:"tier"`
	WindKT      int             `json:"wind_kt"`
	WindMPH     int             `json:"wind_mph"`
	WindKMH     int             `json:"wind_kmh"`
	PressureMB  int             `json:"pressure_mb"`
	ObservedAt  time.Time       `json:"observed_at"`
	RecordedAt  time.Time       `json:"recorded_at"`
}

// Observation returns the comparison key.
func (r Record) Observation() domain.Observation {
	return domain.Observation{Wind: r.WindKT, Pressure: r.PressureMB}
}

// FromStorm builds a record candidate from an active storm.
func FromStorm(s domain.ActiveStorm, recordedAt time.Time) Record {
	return Record{
		ID:          s.ID,
		Name:        s.Name,
		DisplayName: s.DisplayName,
		Category:    s.Class.Category,
		Tier:        s.Class.Tier,
		WindKT:      s.WindKT,
		WindMPH:     s.WindMPH,
		WindKMH:     s.WindKMH,
		PressureMB:  s.PressureMB,
		ObservedAt:  s.ObservedAt,
		RecordedAt:  recordedAt.UTC(),
	}
}

// Store persists the current record.
type Store interface {
	// Get returns the stored record. ok is false when none has been set.
	Get(ctx context.Context) (rec Record, ok bool, err error)
	Set(ctx context.Context, rec Record) error
}

// MemoryStore keeps the record in memory.
type MemoryStore struct {
	mu  sync.RWMutex
	rec *Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Get(_ context.Context) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.rec == nil {
		return Record{}, false, nil
	}
	return *m.rec, true, nil
}

func (m *MemoryStore) Set(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = &rec
	return nil
}

// FileStore keeps the record in a JSON file, replaced atomically on Set.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (f *FileStore) Get(_ context.Context) (Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("decode record %s: %w", f.path, err)
	}
	return rec, true, nil
}

func (f *FileStore) Set(_ context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close record: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace record: %w", err)
	}
	return nil
}

// Tracker applies the record comparison policy on top of a Store.
type Tracker struct {
	store   Store
	logger  *slog.Logger
	metrics *observability.Metrics
	mu      sync.Mutex
}

// NewTracker creates a tracker over store.
func NewTracker(store Store, logger *slog.Logger, metrics *observability.Metrics) *Tracker {
	return &Tracker{store: store, logger: logger, metrics: metrics}
}

// Current returns the stored record.
func (t *Tracker) Current(ctx context.Context) (Record, bool, error) {
	return t.store.Get(ctx)
}

// Consider stores candidate if there is no record yet or it supersedes the
// stored one, and reports whether the record changed.
func (t *Tracker) Consider(ctx context.Context, candidate Record) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	stored, ok, err := t.store.Get(ctx)
	if err != nil {
		return false, err
	}
	if ok && !domain.Supersedes(candidate.Observation(), stored.Observation()) {
		return false, nil
	}
	if err := t.store.Set(ctx, candidate); err != nil {
		return false, err
	}

	if ok {
		t.logger.Info("new storm record",
			"id", candidate.ID, "name", candidate.Name,
			"wind_kt", candidate.WindKT, "pressure_mb", candidate.PressureMB,
			"previous_id", stored.ID, "previous_wind_kt", stored.WindKT)
	} else {
		t.logger.Info("no storm record found, creating one", "id", candidate.ID, "wind_kt", candidate.WindKT)
	}
	t.metrics.RecordUpdates.Inc()
	return true, nil
}

// ConsiderStorms runs Consider for every storm in order and reports whether
// the record changed.
func (t *Tracker) ConsiderStorms(ctx context.Context, storms []domain.ActiveStorm) (bool, error) {
	now := domain.Clock().Now()
	updated := false
	for _, s := range storms {
		ok, err := t.Consider(ctx, FromStorm(s, now))
		if err != nil {
			return updated, fmt.Errorf("consider %s: %w", s.ID, err)
		}
		updated = updated || ok
	}
	return updated, nil
}
