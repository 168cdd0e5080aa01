package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ernestoFix    = "05L ERNESTO 240815 1800 251N 669W ATL 85 972"
	ernestoInterp = "AL052024 ERNESTO 240815 1800 25.1 -66.9 L HU 85 972 12 15"
)

func TestParseFix(t *testing.T) {
	f, err := ParseFix(ernestoFix)
	require.NoError(t, err)

	assert.Equal(t, "05L", f.ShortID)
	assert.Equal(t, "ERNESTO", f.Name)
	assert.Equal(t, time.Date(2024, 8, 15, 18, 0, 0, 0, time.UTC), f.Time)
	assert.Equal(t, int64(1723744800), f.Timestamp())
	assert.Equal(t, "251N", f.Lat)
	assert.Equal(t, "669W", f.Lon)
	assert.Equal(t, "ATL", f.Basin)
	assert.Equal(t, 85, f.Wind)
	assert.Equal(t, 972, f.Pressure)
	assert.False(t, f.IsInvest())
}

func TestParseFix_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "05L ERNESTO 240815 1800 251N 669W ATL 85"},
		{"too many columns", ernestoFix + " extra"},
		{"empty", ""},
		{"bad date", "05L ERNESTO 241315 1800 251N 669W ATL 85 972"},
		{"bad wind", "05L ERNESTO 240815 1800 251N 669W ATL fast 972"},
		{"bad pressure", "05L ERNESTO 240815 1800 251N 669W ATL 85 low"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFix(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrWrongFormat)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, ModeFix, fe.Mode)
			assert.Equal(t, tt.line, fe.Line)
		})
	}
}

func TestParseInterp(t *testing.T) {
	in, err := ParseInterp(ernestoInterp)
	require.NoError(t, err)

	assert.Equal(t, "AL052024", in.LongID)
	assert.InDelta(t, 25.1, in.LatReal, 1e-9)
	assert.InDelta(t, -66.9, in.LonReal, 1e-9)
	assert.Equal(t, "L", in.Basin)
	assert.Equal(t, "HU", in.Flag)
	assert.InDelta(t, 12.0, in.MoveSpeed, 1e-9)
	assert.InDelta(t, 15.0, in.MoveDir, 1e-9)
	assert.Equal(t, "05L", in.MatchKey())
}

func TestParseInterp_Errors(t *testing.T) {
	_, err := ParseInterp("AL052024 ERNESTO 240815 1800 25.1 -66.9 L HU 85 972 12")
	assert.ErrorIs(t, err, ErrWrongFormat)

	_, err = ParseInterp("AL052024 ERNESTO 240815 1800 north -66.9 L HU 85 972 12 15")
	assert.ErrorIs(t, err, ErrWrongFormat)

	_, err = ParseInterp(ernestoFix)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, ModeInterp, fe.Mode)
	assert.Equal(t, "interp", fe.Mode.String())
}

func TestInterpFromTokens(t *testing.T) {
	tok := []string{"WP112024", "YAGI", "240905", "0600", "19.7", "111.9", "W", "ST", "140", "915", "9", "290"}
	in, err := InterpFromTokens(tok)
	require.NoError(t, err)
	assert.Equal(t, "11W", in.MatchKey())
	assert.Equal(t, "ST", in.Flag)

	_, err = InterpFromTokens(tok[:7])
	assert.ErrorIs(t, err, ErrWrongFormat)
}

func TestMatchKey_ShortLongID(t *testing.T) {
	assert.Empty(t, Interp{LongID: "AL", Basin: "L"}.MatchKey())
}

func TestFormatRoundTrip(t *testing.T) {
	f, err := ParseFix(ernestoFix)
	require.NoError(t, err)
	assert.Equal(t, ernestoFix, FormatFix(f))

	in, err := ParseInterp(ernestoInterp)
	require.NoError(t, err)
	again, err := ParseInterp(FormatInterp(in))
	require.NoError(t, err)
	assert.Equal(t, in, again)
}
