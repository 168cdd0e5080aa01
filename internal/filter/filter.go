// Package filter selects active storms with boolean expressions such as
//
//	wind >= 64 && basin in ["ATL", "EPAC"]
//	category == "Typhoon" || (invest && pressure < 1000)
package filter

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/couchcryptid/storm-data-atcf/internal/domain"
)

// Env is the set of fields an expression can reference.
type Env struct {
	ID          string  `expr:"id"`
	ATCFID      string  `expr:"atcf_id"`
	Name        string  `expr:"name"`
	Basin       string  `expr:"basin"`
	Wind        int     `expr:"wind"`
	WindMPH     int     `expr:"wind_mph"`
	WindKMH     int     `expr:"wind_kmh"`
	Pressure    int     `expr:"pressure"`
	Flag        string  `expr:"flag"`
	Category    string  `expr:"category"`
	Tier        string  `expr:"tier"`
	Invest      bool    `expr:"invest"`
	Subtropical bool    `expr:"subtropical"`
	Moving      bool    `expr:"moving"`
	Speed       float64 `expr:"speed"`
	Heading     string  `expr:"heading"`
	Timestamp   int64   `expr:"timestamp"`
}

// EnvFor builds the expression environment for a storm.
func EnvFor(s domain.ActiveStorm) Env {
	return Env{
		ID:          s.ID,
		ATCFID:      s.ATCFID,
		Name:        s.Name,
		Basin:       s.BasinCode,
		Wind:        s.WindKT,
		WindMPH:     s.WindMPH,
		WindKMH:     s.WindKMH,
		Pressure:    s.PressureMB,
		Flag:        s.Flag,
		Category:    string(s.Class.Category),
		Tier:        string(s.Class.Tier),
		Invest:      s.Name == domain.InvestName,
		Subtropical: s.Flag == domain.FlagSubtropicalDep || s.Flag == domain.FlagSubtropicalSt,
		Moving:      s.Movement.Available && !s.Movement.Stationary,
		Speed:       s.Movement.SpeedKT,
		Heading:     s.Movement.Direction,
		Timestamp:   s.ObservedAt.Unix(),
	}
}

// Filter matches storms against a compiled expression and a basin mask.
// The zero value matches everything.
type Filter struct {
	source  string
	program *vm.Program
	mask    *domain.BasinMask
}

// Compile compiles a filter expression. An empty expression matches every storm.
func Compile(s string) (*Filter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return &Filter{}, nil
	}
	program, err := expr.Compile(s, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", s, err)
	}
	return &Filter{source: s, program: program}, nil
}

// WithRegions returns a copy of f that also requires the storm's corrected
// basin to be enabled in mask.
func (f *Filter) WithRegions(mask domain.BasinMask) *Filter {
	c := *f
	c.mask = &mask
	return &c
}

func (f *Filter) String() string { return f.source }

// Match reports whether s passes the filter. Evaluation errors count as a
// non-match.
func (f *Filter) Match(s domain.ActiveStorm) bool {
	if f.mask != nil && !f.mask.Allows(s.Basin) {
		return false
	}
	if f.program == nil {
		return true
	}
	out, err := expr.Run(f.program, EnvFor(s))
	if err != nil {
		return false
	}
	b, ok := out.(bool)
	return ok && b
}

// Apply returns the storms that pass the filter, in order.
func (f *Filter) Apply(storms []domain.ActiveStorm) []domain.ActiveStorm {
	out := make([]domain.ActiveStorm, 0, len(storms))
	for _, s := range storms {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	return out
}
