package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompass(t *testing.T) {
	cases := map[float64]string{
		0:      "N",
		11.25:  "N",
		11.3:   "NNE",
		45:     "NE",
		90:     "E",
		135:    "SE",
		180:    "S",
		200:    "SSW",
		270:    "W",
		290:    "WNW",
		348.75: "NNW",
		349:    "N",
		360:    "N",
	}
	for deg, want := range cases {
		assert.Equal(t, want, Compass(deg), "heading %v", deg)
	}
	assert.Empty(t, Compass(-1))
}

func TestRoundedSpeeds(t *testing.T) {
	mph, kmh := RoundedSpeeds(85)
	assert.Equal(t, 100, mph)
	assert.Equal(t, 155, kmh)

	mph, kmh = RoundedSpeeds(35)
	assert.Equal(t, 40, mph)
	assert.Equal(t, 65, kmh)
}

func TestDescribeMovement(t *testing.T) {
	m := DescribeMovement(12, 15)
	assert.True(t, m.Available)
	assert.False(t, m.Stationary)
	assert.Equal(t, "NNE", m.Direction)
	assert.Equal(t, "NNE at 12 kt (14 mph, 22 km/h)", m.String())

	m = DescribeMovement(1, 200)
	assert.True(t, m.Stationary)
	assert.Equal(t, "nearly stationary", m.String())

	assert.Equal(t, "not available", DescribeMovement(-1, 90).String())
	assert.Equal(t, "not available", DescribeMovement(10, -1).String())
}
