// Package domain models tropical cyclone advisories from the Automated Tropical
// Cyclone Forecasting (ATCF) sector feeds.
//
// # Data Source
//
// The Naval Research Laboratory publishes two plain-text files that together
// describe every system currently tracked worldwide. A JSON mirror of the same
// lines is used when the primary host is unreachable.
//
// Sector file (one line per system, 9 whitespace-separated columns):
//
//	id   name   YYMMDD HHMM lat  lon  basin wind pressure
//	05L  ERNESTO 240815 1800 251N 669W ATL  85   972
//
// The latitude and longitude columns are kept as text for display. Wind is the
// 1-minute sustained wind in knots; pressure is in millibars, with 0 meaning
// unknown. A system without a name carries the placeholder "INVEST".
//
// Interp file (one line per system, 12 columns):
//
//	long_id  ...  lat  lon  ...  basin flag  ...  ...  speed dir
//
// Only columns 0, 4, 5, 6, 7, 10 and 11 are used. Column 0 is the long ATCF ID
// (e.g. "AL052024"); characters 2-3 of it joined with the basin suffix in
// column 6 give the short ID used by the sector file ("05" + "L" = "05L").
// Columns 4-5 are signed decimal degrees, used to detect basin crossovers.
// Column 7 is the system status flag:
//
//	EX  extratropical         LO  remnant low
//	DB  disturbance           WV  tropical wave
//	SD  subtropical depression SS  subtropical storm
//	TD, TS, HU, TY, ST ...    tropical statuses (not used for classification)
//
// Columns 10-11 are forward speed (kt) and heading (degrees); negative values
// mean the motion is not available.
//
// # Classification
//
// Invests keep the "Area of Interest" label unless they are flagged
// subtropical. Extratropical and remnant-low flags become "Post-Tropical
// Cyclone", disturbance and wave flags become "Remnants of". Otherwise wind
// decides: below 35 kt a depression, below 65 kt a storm, and above that a
// basin-specific term (Hurricane/Major Hurricane at 100 kt for NHC basins,
// Typhoon/Super Typhoon at 130 kt for the West Pacific, Cyclone elsewhere).
//
// # Basins
//
// The sector file's basin column is only the basin the storm formed in. A storm
// north of the equator is re-assigned by position first:
//
//	30E-97E            IO
//	east of 97E        WPAC
//	west of 140W       CPAC
//	Pacific side of Central America, or west of 100W   EPAC
package domain
