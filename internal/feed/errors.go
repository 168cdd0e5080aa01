package feed

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSourceUnavailable means a remote feed could not be reached or returned
	// an unusable response.
	ErrSourceUnavailable = errors.New("atcf source unavailable")

	// ErrTimeout is the alternate source timing out. It also matches
	// ErrSourceUnavailable.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrSourceUnavailable)

	// ErrInterpolationMismatch means the interp file could not be aligned with
	// the sector file. The sector rows are still loaded.
	ErrInterpolationMismatch = errors.New("interp data does not match sector data")
)

// InterpolationMismatchError lists the sector IDs that had no interp row.
type InterpolationMismatchError struct {
	Missing []string
	Err     error // underlying read or parse failure, if any
}

func (e *InterpolationMismatchError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrInterpolationMismatch.Error())
	if len(e.Missing) > 0 {
		sb.WriteString(": no interp row for ")
		sb.WriteString(strings.Join(e.Missing, ", "))
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *InterpolationMismatchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInterpolationMismatch}
	}
	return []error{ErrInterpolationMismatch, e.Err}
}
