package domain

import (
	"fmt"
	"math"
)

// Unit conversion factors from knots.
const (
	KnotsToMPH = 1.15077945
	KnotsToKMH = 1.852
)

var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Compass converts a heading in degrees to a 16-point compass direction.
// Negative headings mean "not available" and return "".
func Compass(deg float64) string {
	if deg < 0 {
		return ""
	}
	deg = math.Mod(deg, 360)
	// Each point spans 22.5 degrees; lower bounds are exclusive.
	idx := int(math.Ceil((deg-11.25)/22.5)) % 16
	if deg <= 11.25 {
		idx = 0
	}
	return compassPoints[idx]
}

// RoundedSpeeds converts a wind speed in knots to mph and km/h rounded to the
// nearest 5, the convention used in advisories.
func RoundedSpeeds(kt int) (mph, kmh int) {
	return roundTo5(float64(kt) * KnotsToMPH), roundTo5(float64(kt) * KnotsToKMH)
}

func roundTo5(v float64) int {
	return int(math.Round(v/5) * 5)
}

// Movement describes a storm's motion.
type Movement struct {
	Available  bool    `json:"available"`
	Stationary bool    `json:"nearly_stationary"`
	Direction  string  `json:"direction,omitempty"`
	SpeedKT    float64 `json:"speed_kt,omitempty"`
	SpeedMPH   float64 `json:"speed_mph,omitempty"`
	SpeedKMH   float64 `json:"speed_kmh,omitempty"`
}

// NearlyStationaryKT is the speed below which a storm is reported as nearly
// stationary rather than given a heading.
const NearlyStationaryKT = 2

// DescribeMovement interprets the motion columns of an interp row.
func DescribeMovement(speed, dir float64) Movement {
	heading := Compass(dir)
	if heading == "" || speed < 0 {
		return Movement{}
	}
	if speed < NearlyStationaryKT {
		return Movement{Available: true, Stationary: true}
	}
	return Movement{
		Available: true,
		Direction: heading,
		SpeedKT:   speed,
		SpeedMPH:  speed * KnotsToMPH,
		SpeedKMH:  speed * KnotsToKMH,
	}
}

func (m Movement) String() string {
	switch {
	case !m.Available:
		return "not available"
	case m.Stationary:
		return "nearly stationary"
	default:
		return fmt.Sprintf("%s at %.0f kt (%.0f mph, %.0f km/h)", m.Direction, m.SpeedKT, m.SpeedMPH, m.SpeedKMH)
	}
}
