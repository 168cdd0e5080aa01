// Package table holds the set of currently active storms.
//
// Rows are stored as whole structs, one slice for primary fixes and one for
// auxiliary rows, so every column of a group always has the same length. A row
// is only appended once it has been fully parsed.
package table

import (
	"errors"
	"strings"
	"sync"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
)

// ErrNoActiveData is returned by lookups when the table holds no storms at all,
// as opposed to holding storms none of which match.
var ErrNoActiveData = errors.New("no active storms")

type group uint8

const (
	groupFix group = iota
	groupInterp
)

// Table is an in-memory, concurrency-safe table of active storms.
type Table struct {
	mu      sync.RWMutex
	fixes   []domain.Fix
	interps []domain.Interp
	journal []group // order of appends, newest last
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Savepoint marks the table size at a point in time.
type Savepoint struct {
	fixes, interps int
}

// AppendFix commits a primary row.
func (t *Table) AppendFix(f domain.Fix) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fixes = append(t.fixes, f)
	t.journal = append(t.journal, groupFix)
}

// AppendInterp commits an auxiliary row.
func (t *Table) AppendInterp(in domain.Interp) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interps = append(t.interps, in)
	t.journal = append(t.journal, groupInterp)
}

// AppendLine parses line in the given mode and commits the row. On a parse
// error nothing is appended and the error (wrapping domain.ErrWrongFormat) is
// returned.
func (t *Table) AppendLine(line string, mode domain.Mode) error {
	if mode == domain.ModeInterp {
		in, err := domain.ParseInterp(line)
		if err != nil {
			return err
		}
		t.AppendInterp(in)
		return nil
	}
	f, err := domain.ParseFix(line)
	if err != nil {
		return err
	}
	t.AppendFix(f)
	return nil
}

// AppendPair commits a primary line and its auxiliary line together: if either
// fails to parse, neither is kept.
func (t *Table) AppendPair(fixLine, interpLine string) error {
	sp := t.Savepoint()
	if err := t.AppendLine(fixLine, domain.ModeFix); err != nil {
		return err
	}
	if err := t.AppendLine(interpLine, domain.ModeInterp); err != nil {
		t.RollbackTo(sp)
		return err
	}
	return nil
}

// RollbackLast removes the most recently appended row, whichever group it
// went to. It is a no-op on an empty table.
func (t *Table) RollbackLast() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollbackLastLocked()
}

func (t *Table) rollbackLastLocked() {
	n := len(t.journal)
	if n == 0 {
		return
	}
	switch t.journal[n-1] {
	case groupFix:
		t.fixes = t.fixes[:len(t.fixes)-1]
	case groupInterp:
		t.interps = t.interps[:len(t.interps)-1]
	}
	t.journal = t.journal[:n-1]
}

// Savepoint records the current size so a multi-row append can be undone.
func (t *Table) Savepoint() Savepoint {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Savepoint{fixes: len(t.fixes), interps: len(t.interps)}
}

// RollbackTo removes every row appended after sp was taken.
func (t *Table) RollbackTo(sp Savepoint) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for len(t.fixes) > sp.fixes || len(t.interps) > sp.interps {
		t.rollbackLastLocked()
	}
}

// Reset clears the table.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fixes = nil
	t.interps = nil
	t.journal = nil
}

// Replace swaps in the contents of other in one step, so readers see either
// the previous load or the new one and never a partial load. other must not be
// used afterwards.
func (t *Table) Replace(other *Table) {
	other.mu.Lock()
	fixes, interps, journal := other.fixes, other.interps, other.journal
	other.fixes, other.interps, other.journal = nil, nil, nil
	other.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.fixes, t.interps, t.journal = fixes, interps, journal
}

// Len returns the number of primary rows.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.fixes)
}

// InterpLen returns the number of auxiliary rows.
func (t *Table) InterpLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.interps)
}

// Complete reports whether every primary row has its auxiliary row.
func (t *Table) Complete() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.fixes) == len(t.interps)
}

// Fixes returns a copy of the primary rows in feed order.
func (t *Table) Fixes() []domain.Fix {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Fix(nil), t.fixes...)
}

// Interps returns a copy of the auxiliary rows in feed order.
func (t *Table) Interps() []domain.Interp {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]domain.Interp(nil), t.interps...)
}

// Records joins primary and auxiliary rows by position. If the auxiliary half
// is short, only the joined prefix is returned.
func (t *Table) Records() []domain.StormRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := min(len(t.fixes), len(t.interps))
	out := make([]domain.StormRecord, n)
	for i := range n {
		out[i] = domain.StormRecord{Fix: t.fixes[i], Interp: t.interps[i]}
	}
	return out
}

// AllRecords is Records without the truncation: every primary row is
// returned, and rows past the end of the auxiliary half carry a zero Interp.
func (t *Table) AllRecords() []domain.StormRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.StormRecord, len(t.fixes))
	for i, f := range t.fixes {
		out[i].Fix = f
		if i < len(t.interps) {
			out[i].Interp = t.interps[i]
		}
	}
	return out
}

// Find looks up an active storm by name (case-insensitive), falling back to
// the short ID or ATCF ID when no name is given or the name does not match. It returns
// ErrNoActiveData when the table is empty and ok=false when nothing matches.
func (t *Table) Find(name, id string) (rec domain.StormRecord, ok bool, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.fixes) == 0 {
		return domain.StormRecord{}, false, ErrNoActiveData
	}

	idx := -1
	if name != "" {
		name = strings.ToUpper(name)
		for i, f := range t.fixes {
			if f.Name == name {
				idx = i
				break
			}
		}
	}
	if idx < 0 && id != "" {
		for i, f := range t.fixes {
			if strings.EqualFold(f.ShortID, id) ||
				(i < len(t.interps) && strings.EqualFold(t.interps[i].LongID, id)) {
				idx = i
				break
			}
		}
	}
	if idx < 0 {
		return domain.StormRecord{}, false, nil
	}

	rec.Fix = t.fixes[idx]
	if idx < len(t.interps) {
		rec.Interp = t.interps[idx]
	}
	return rec, true, nil
}
