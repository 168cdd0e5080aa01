package domain

import (
	"fmt"
	"strings"
)

const (
	nhcGraphicURL  = "https://www.nhc.noaa.gov/storm_graphics/%s/%s_5day_cone_with_line_and_wind.png"
	jtwcGraphicURL = "https://www.metoc.navy.mil/jtwc/products/%s.gif"
)

// ForecastGraphicURL returns the official forecast graphic for an active storm:
// the NHC cone for basins NHC/CPHC cover, the JTWC warning graphic otherwise.
// It returns "" when the record lacks the identifiers needed to build the URL.
func ForecastGraphicURL(rec StormRecord) string {
	basin := ParseBasin(rec.Fix.Basin)
	prefix := basin.ATCFPrefix()
	if prefix == "" || len(rec.Fix.ShortID) < 2 || len(rec.Interp.LongID) < 8 {
		return ""
	}
	num := rec.Fix.ShortID[:2]
	if basin.NHCBasin() {
		return fmt.Sprintf(nhcGraphicURL, prefix+num, strings.ToUpper(rec.Interp.LongID))
	}
	year := rec.Interp.LongID[6:]
	return fmt.Sprintf(jtwcGraphicURL, strings.ToLower(prefix)+num+year)
}
