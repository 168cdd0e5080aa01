package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, fixLine, interpLine string) StormRecord {
	t.Helper()
	f, err := ParseFix(fixLine)
	require.NoError(t, err)
	in, err := ParseInterp(interpLine)
	require.NoError(t, err)
	return StormRecord{Fix: f, Interp: in}
}

func TestDescribe(t *testing.T) {
	s := Describe(mustRecord(t, ernestoFix, ernestoInterp))

	assert.Equal(t, "05L", s.ID)
	assert.Equal(t, "05L (ERNESTO)", s.DisplayName)
	assert.Equal(t, BasinAtlantic, s.Basin)
	assert.Equal(t, "ATL", s.BasinCode)
	assert.Equal(t, 100, s.WindMPH)
	assert.Equal(t, 155, s.WindKMH)
	assert.Equal(t, CategoryHurricane, s.Class.Category)
	assert.Equal(t, TierCat2, s.Class.Tier)
	assert.Equal(t, "NNE", s.Movement.Direction)
	assert.Equal(t, "https://www.nhc.noaa.gov/storm_graphics/AT05/AL052024_5day_cone_with_line_and_wind.png", s.ForecastURL)
}

func TestDescribe_BasinCrossover(t *testing.T) {
	// An East Pacific hurricane west of the dateline is named as a typhoon.
	rec := mustRecord(t,
		"01E HECTOR 240820 0000 180N 1785E EPAC 95 960",
		"EP012024 HECTOR 240820 0000 18.0 178.5 E HU 95 960 10 280")
	s := Describe(rec)
	assert.Equal(t, BasinWestPacific, s.Basin)
	assert.Equal(t, CategoryTyphoon, s.Class.Category)
}

func TestDescribe_Invest(t *testing.T) {
	rec := mustRecord(t,
		"96L INVEST 240901 1200 150N 450W ATL 25 1009",
		"AL962024 INVEST 240901 1200 15.0 -45.0 L DB 25 1009 -1 -1")
	s := Describe(rec)
	assert.Equal(t, "96L", s.DisplayName)
	assert.Equal(t, CategoryAreaOfInterest, s.Class.Category)
	assert.False(t, s.Movement.Available)
}

func TestDescribe_WithoutInterp(t *testing.T) {
	f, err := ParseFix("11W YAGI 240905 0600 197N 1119E WPAC 140 915")
	require.NoError(t, err)
	s := Describe(StormRecord{Fix: f})
	assert.Equal(t, BasinWestPacific, s.Basin)
	assert.Equal(t, CategorySuperTyphoon, s.Class.Category)
	assert.False(t, s.Movement.Available)
	assert.Empty(t, s.ForecastURL)
}

func TestActiveStormJSON(t *testing.T) {
	s := Describe(mustRecord(t, ernestoFix, ernestoInterp))
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ATL", got["basin"])
	assert.Equal(t, float64(85), got["wind_kt"])
	cls := got["classification"].(map[string]any)
	assert.Equal(t, "Hurricane", cls["category"])
}

func TestForecastGraphicURL(t *testing.T) {
	yagi := mustRecord(t,
		"11W YAGI 240905 0600 197N 1119E WPAC 140 915",
		"WP112024 YAGI 240905 0600 19.7 111.9 W ST 140 915 9 290")
	assert.Equal(t, "https://www.metoc.navy.mil/jtwc/products/wp1124.gif", ForecastGraphicURL(yagi))

	john := mustRecord(t,
		"10E JOHN 240924 0000 160N 990W EPAC 105 958",
		"EP102024 JOHN 240924 0000 16.0 -99.0 E HU 105 958 3 0")
	assert.Equal(t, "https://www.nhc.noaa.gov/storm_graphics/EP10/EP102024_5day_cone_with_line_and_wind.png", ForecastGraphicURL(john))

	assert.Empty(t, ForecastGraphicURL(StormRecord{}))
}
