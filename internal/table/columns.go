package table

import "github.com/couchcryptid/storm-data-atcf/internal/domain"

// Column accessors return one field of every row in feed order.

func fixColumn[T any](t *Table, get func(domain.Fix) T) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.fixes))
	for i, f := range t.fixes {
		out[i] = get(f)
	}
	return out
}

func interpColumn[T any](t *Table, get func(domain.Interp) T) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]T, len(t.interps))
	for i, in := range t.interps {
		out[i] = get(in)
	}
	return out
}

func (t *Table) IDs() []string {
	return fixColumn(t, func(f domain.Fix) string { return f.ShortID })
}

func (t *Table) Names() []string {
	return fixColumn(t, func(f domain.Fix) string { return f.Name })
}

func (t *Table) Timestamps() []int64 {
	return fixColumn(t, domain.Fix.Timestamp)
}

func (t *Table) Lats() []string {
	return fixColumn(t, func(f domain.Fix) string { return f.Lat })
}

func (t *Table) Lons() []string {
	return fixColumn(t, func(f domain.Fix) string { return f.Lon })
}

func (t *Table) Basins() []string {
	return fixColumn(t, func(f domain.Fix) string { return f.Basin })
}

func (t *Table) Winds() []int {
	return fixColumn(t, func(f domain.Fix) int { return f.Wind })
}

func (t *Table) Pressures() []int {
	return fixColumn(t, func(f domain.Fix) int { return f.Pressure })
}

func (t *Table) LongIDs() []string {
	return interpColumn(t, func(in domain.Interp) string { return in.LongID })
}

func (t *Table) LatsReal() []float64 {
	return interpColumn(t, func(in domain.Interp) float64 { return in.LatReal })
}

func (t *Table) LonsReal() []float64 {
	return interpColumn(t, func(in domain.Interp) float64 { return in.LonReal })
}

func (t *Table) Flags() []string {
	return interpColumn(t, func(in domain.Interp) string { return in.Flag })
}

func (t *Table) MovementSpeeds() []float64 {
	return interpColumn(t, func(in domain.Interp) float64 { return in.MoveSpeed })
}

func (t *Table) MovementDirs() []float64 {
	return interpColumn(t, func(in domain.Interp) float64 { return in.MoveDir })
}
