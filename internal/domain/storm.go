package domain

import "time"

// InvestName is the placeholder name ATCF assigns to an area of interest that
// has not been numbered or named yet.
const InvestName = "INVEST"

// Fix is one row of the primary sector file: the latest fix for a tracked system.
type Fix struct {
	ShortID  string    `json:"id"`
	Name     string    `json:"name"`
	Time     time.Time `json:"time"`
	Lat      string    `json:"lat"` // kept as received, e.g. "251N"
	Lon      string    `json:"lon"` // kept as received, e.g. "762W"
	Basin    string    `json:"basin"`
	Wind     int       `json:"wind_kt"`
	Pressure int       `json:"pressure_mb"` // 0 when unknown
}

// Timestamp returns the fix time as Unix seconds.
func (f Fix) Timestamp() int64 { return f.Time.Unix() }

// IsInvest reports whether the system is still an unnamed area of interest.
func (f Fix) IsInvest() bool { return f.Name == InvestName }

// Interp is one row of the auxiliary interp file. It carries the status flag,
// real-valued position and motion that the primary file lacks.
type Interp struct {
	LongID    string  `json:"long_id"`
	LatReal   float64 `json:"lat_real"`
	LonReal   float64 `json:"lon_real"`
	Basin     string  `json:"basin"`
	Flag      string  `json:"flag"`
	MoveSpeed float64 `json:"movement_speed_kt"` // negative when unavailable
	MoveDir   float64 `json:"movement_dir_deg"`  // negative when unavailable
}

// MatchKey derives the short storm ID this auxiliary row belongs to: the
// storm number (characters 2 and 3 of the long ID) followed by the basin code.
func (i Interp) MatchKey() string {
	if len(i.LongID) < 4 {
		return ""
	}
	return i.LongID[2:4] + i.Basin
}

// StormRecord is one active storm: a primary fix joined with its auxiliary row.
type StormRecord struct {
	Fix    Fix    `json:"fix"`
	Interp Interp `json:"interp"`
}

// HasInterp reports whether the auxiliary half is present.
func (r StormRecord) HasInterp() bool { return r.Interp.LongID != "" }

// Observation is the subset of a storm used for record-keeping comparisons.
type Observation struct {
	Wind     int
	Pressure int
}

// Observation returns the record comparison key for the fix.
func (f Fix) Observation() Observation {
	return Observation{Wind: f.Wind, Pressure: f.Pressure}
}
