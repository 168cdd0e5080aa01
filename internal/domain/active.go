package domain

import "time"

// ActiveStorm is the classified, display-ready view of a StormRecord.
type ActiveStorm struct {
	ID          string         `json:"id"`
	ATCFID      string         `json:"atcf_id,omitempty"`
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name"`
	ObservedAt  time.Time      `json:"observed_at"`
	Lat         string         `json:"lat"`
	Lon         string         `json:"lon"`
	Basin       Basin          `json:"-"`
	BasinCode   string         `json:"basin"`
	WindKT      int            `json:"wind_kt"`
	WindMPH     int            `json:"wind_mph"`
	WindKMH     int            `json:"wind_kmh"`
	PressureMB  int            `json:"pressure_mb,omitempty"` // omitted when unknown
	Flag        string         `json:"flag"`
	Class       Classification `json:"classification"`
	Movement    Movement       `json:"movement"`
	ForecastURL string         `json:"forecast_url,omitempty"`
}

// Describe derives the display view of a record. The basin is corrected for
// crossovers before classification so naming follows the storm's current
// position.
func Describe(rec StormRecord) ActiveStorm {
	f, in := rec.Fix, rec.Interp
	basin := CorrectBasin(in.LatReal, in.LonReal, ParseBasin(f.Basin))
	mph, kmh := RoundedSpeeds(f.Wind)
	var mv Movement
	if rec.HasInterp() {
		mv = DescribeMovement(in.MoveSpeed, in.MoveDir)
	}

	display := f.ShortID
	if !f.IsInvest() {
		display = f.ShortID + " (" + f.Name + ")"
	}

	return ActiveStorm{
		ID:          f.ShortID,
		ATCFID:      in.LongID,
		Name:        f.Name,
		DisplayName: display,
		ObservedAt:  f.Time,
		Lat:         f.Lat,
		Lon:         f.Lon,
		Basin:       basin,
		BasinCode:   basin.Code(),
		WindKT:      f.Wind,
		WindMPH:     mph,
		WindKMH:     kmh,
		PressureMB:  f.Pressure,
		Flag:        in.Flag,
		Class:       Classify(f.Name, f.Wind, in.Flag, basin),
		Movement:    mv,
		ForecastURL: ForecastGraphicURL(rec),
	}
}

// DescribeAll derives the display view of every record, preserving order.
func DescribeAll(recs []StormRecord) []ActiveStorm {
	out := make([]ActiveStorm, len(recs))
	for i, r := range recs {
		out[i] = Describe(r)
	}
	return out
}
