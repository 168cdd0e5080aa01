package domain

import "strings"

// Basin is an ocean basin as used for naming and notification routing.
type Basin int

const (
	BasinUnknown Basin = iota
	BasinAtlantic
	BasinEastPacific
	BasinCentralPacific
	BasinWestPacific
	BasinIndian
	BasinSouthern
)

var basinCodes = map[Basin]string{
	BasinAtlantic:       "ATL",
	BasinEastPacific:    "EPAC",
	BasinCentralPacific: "CPAC",
	BasinWestPacific:    "WPAC",
	BasinIndian:         "IO",
	BasinSouthern:       "SHEM",
}

// feedAliases maps every code the feeds use for a basin: the display code from
// the sector file, the two-letter ATCF prefix and the one-letter storm suffix.
var feedAliases = map[string]Basin{
	"ATL": BasinAtlantic, "AL": BasinAtlantic, "L": BasinAtlantic,
	"EPAC": BasinEastPacific, "EP": BasinEastPacific, "E": BasinEastPacific,
	"CPAC": BasinCentralPacific, "CP": BasinCentralPacific, "C": BasinCentralPacific,
	"WPAC": BasinWestPacific, "WP": BasinWestPacific, "W": BasinWestPacific,
	"IO": BasinIndian, "NIO": BasinIndian, "A": BasinIndian, "B": BasinIndian,
	"SHEM": BasinSouthern, "SH": BasinSouthern, "S": BasinSouthern, "P": BasinSouthern,
}

// ParseBasin converts any feed basin code to a Basin. Unrecognized codes map to
// BasinUnknown.
func ParseBasin(code string) Basin {
	return feedAliases[strings.ToUpper(strings.TrimSpace(code))]
}

// Code returns the display code, e.g. "EPAC". Unknown basins return "".
func (b Basin) Code() string { return basinCodes[b] }

func (b Basin) String() string {
	if c := b.Code(); c != "" {
		return c
	}
	return "UNKNOWN"
}

// ATCFPrefix returns the two-letter prefix used in forecast product IDs. For
// the Atlantic this is "AT", matching the NHC graphics directory naming.
func (b Basin) ATCFPrefix() string {
	c := b.Code()
	if len(c) < 2 {
		return ""
	}
	return c[:2]
}

// NHCBasin reports whether NHC or CPHC issues products for the basin.
func (b Basin) NHCBasin() bool {
	return b == BasinAtlantic || b == BasinEastPacific || b == BasinCentralPacific
}

// CorrectBasin overrides the nominal basin when a storm has crossed into a
// neighbouring basin. Coordinates are degrees, east and north positive.
func CorrectBasin(lat, lon float64, nominal Basin) Basin {
	if lat <= 0 {
		return nominal
	}
	switch {
	case lon > 30 && lon < 97:
		return BasinIndian
	case lon > 97:
		return BasinWestPacific
	case lon < -140:
		return BasinCentralPacific
	case inEastPacific(lat, lon):
		return BasinEastPacific
	}
	return nominal
}

// inEastPacific approximates the Central American land bridge with a stepped
// boundary: anything west of it is Pacific.
func inEastPacific(lat, lon float64) bool {
	return (lat < 7.6 && lon < -77) ||
		(lat < 10 && lon < -85) ||
		(lat < 15 && lon < -87) ||
		(lat < 16 && lon < -92.5) ||
		lon < -100
}

// BasinMask is the set of basins a subscriber wants updates for, encoded as a
// six-character string of 0/1 flags in the order ATL EPAC CPAC WPAC IO SHEM.
type BasinMask [6]bool

var maskOrder = [6]Basin{
	BasinAtlantic, BasinEastPacific, BasinCentralPacific,
	BasinWestPacific, BasinIndian, BasinSouthern,
}

// ParseBasinMask parses a mask such as "110000". It returns false if the mask
// is malformed.
func ParseBasinMask(s string) (BasinMask, bool) {
	var m BasinMask
	if len(s) != len(m) {
		return m, false
	}
	for i, c := range s {
		switch c {
		case '1':
			m[i] = true
		case '0':
		default:
			return BasinMask{}, false
		}
	}
	return m, true
}

// Allows reports whether updates for b are enabled.
func (m BasinMask) Allows(b Basin) bool {
	for i, mb := range maskOrder {
		if mb == b {
			return m[i]
		}
	}
	return false
}

func (m BasinMask) String() string {
	var sb strings.Builder
	for _, on := range m {
		if on {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
