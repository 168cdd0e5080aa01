package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Token counts for the two positional formats.
const (
	fixTokens    = 9
	interpTokens = 12
)

// fixTimeLayout is the YYMMDDHHMM stamp formed by joining tokens 2 and 3 of a fix line.
const fixTimeLayout = "0601021504"

// ErrWrongFormat marks a single malformed feed line. Callers skip the line and
// keep going.
var ErrWrongFormat = errors.New("wrong format")

// Mode selects which positional format a line is parsed as.
type Mode int

const (
	ModeFix Mode = iota
	ModeInterp
)

func (m Mode) String() string {
	if m == ModeInterp {
		return "interp"
	}
	return "std"
}

// FormatError describes why a line was rejected. It unwraps to ErrWrongFormat.
type FormatError struct {
	Line   string
	Mode   Mode
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s line %q: %s", e.Mode, e.Line, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWrongFormat}
	}
	return []error{ErrWrongFormat, e.Err}
}

// ParseFix parses one line of the primary sector file.
//
//	id name YYMMDD HHMM lat lon basin wind pressure
func ParseFix(line string) (Fix, error) {
	tok := strings.Fields(line)
	if len(tok) != fixTokens {
		return Fix{}, tokenCountError(line, ModeFix, fixTokens, len(tok))
	}

	ts, err := time.ParseInLocation(fixTimeLayout, tok[2]+tok[3], time.UTC)
	if err != nil {
		return Fix{}, &FormatError{Line: line, Mode: ModeFix, Reason: "bad timestamp", Err: err}
	}
	wind, err := strconv.Atoi(tok[7])
	if err != nil {
		return Fix{}, &FormatError{Line: line, Mode: ModeFix, Reason: "bad wind", Err: err}
	}
	pres, err := strconv.Atoi(tok[8])
	if err != nil {
		return Fix{}, &FormatError{Line: line, Mode: ModeFix, Reason: "bad pressure", Err: err}
	}

	return Fix{
		ShortID:  tok[0],
		Name:     tok[1],
		Time:     ts,
		Lat:      tok[4],
		Lon:      tok[5],
		Basin:    tok[6],
		Wind:     wind,
		Pressure: pres,
	}, nil
}

// ParseInterp parses one line of the auxiliary interp file. Only the fields
// the service uses are retained; the remaining tokens are still counted.
func ParseInterp(line string) (Interp, error) {
	tok := strings.Fields(line)
	if len(tok) != interpTokens {
		return Interp{}, tokenCountError(line, ModeInterp, interpTokens, len(tok))
	}
	return interpFromTokens(line, tok)
}

// InterpFromTokens builds an auxiliary row from an already-split line.
func InterpFromTokens(tok []string) (Interp, error) {
	line := strings.Join(tok, " ")
	if len(tok) != interpTokens {
		return Interp{}, tokenCountError(line, ModeInterp, interpTokens, len(tok))
	}
	return interpFromTokens(line, tok)
}

func interpFromTokens(line string, tok []string) (Interp, error) {
	floats := [4]float64{}
	for i, idx := range []int{4, 5, 10, 11} {
		v, err := strconv.ParseFloat(tok[idx], 64)
		if err != nil {
			return Interp{}, &FormatError{Line: line, Mode: ModeInterp, Reason: fmt.Sprintf("bad number in column %d", idx), Err: err}
		}
		floats[i] = v
	}
	return Interp{
		LongID:    tok[0],
		LatReal:   floats[0],
		LonReal:   floats[1],
		Basin:     tok[6],
		Flag:      tok[7],
		MoveSpeed: floats[2],
		MoveDir:   floats[3],
	}, nil
}

func tokenCountError(line string, mode Mode, want, got int) error {
	return &FormatError{
		Line:   line,
		Mode:   mode,
		Reason: fmt.Sprintf("expected %d columns, got %d", want, got),
	}
}

// FormatFix renders a fix back into a sector-file line.
func FormatFix(f Fix) string {
	stamp := f.Time.UTC().Format(fixTimeLayout)
	return strings.Join([]string{
		f.ShortID, f.Name, stamp[:6], stamp[6:], f.Lat, f.Lon, f.Basin,
		strconv.Itoa(f.Wind), strconv.Itoa(f.Pressure),
	}, " ")
}

// FormatInterp renders an auxiliary row back into an interp-file line. Columns
// the parser does not retain are written as placeholders.
func FormatInterp(i Interp) string {
	return strings.Join([]string{
		i.LongID,
		"-", "-", "-",
		strconv.FormatFloat(i.LatReal, 'f', -1, 64),
		strconv.FormatFloat(i.LonReal, 'f', -1, 64),
		i.Basin,
		i.Flag,
		"-", "-",
		strconv.FormatFloat(i.MoveSpeed, 'f', -1, 64),
		strconv.FormatFloat(i.MoveDir, 'f', -1, 64),
	}, " ")
}
