package domain

// Category is the human-facing classification of a system.
type Category string

const (
	CategoryAreaOfInterest     Category = "Area of Interest"
	CategoryPostTropical       Category = "Post-Tropical Cyclone"
	CategoryRemnants           Category = "Remnants of"
	CategoryTropicalDepression Category = "Tropical Depression"
	CategorySubtropicalDep     Category = "Subtropical Depression"
	CategoryTropicalStorm      Category = "Tropical Storm"
	CategorySubtropicalStorm   Category = "Subtropical Storm"
	CategoryHurricane          Category = "Hurricane"
	CategoryMajorHurricane     Category = "Major Hurricane"
	CategoryTyphoon            Category = "Typhoon"
	CategorySuperTyphoon       Category = "Super Typhoon"
	CategoryCyclone            Category = "Cyclone"
	CategoryTropicalCyclone    Category = "Tropical Cyclone"
	CategorySubtropicalCyclone Category = "Subtropical Cyclone"
)

// Status flags from column 7 of the interp file.
const (
	FlagExtratropical  = "EX"
	FlagLow            = "LO"
	FlagInvest         = "INVEST"
	FlagDisturbance    = "DB"
	FlagWave           = "WV"
	FlagSubtropicalDep = "SD"
	FlagSubtropicalSt  = "SS"
)

// Tier selects the icon shown next to a storm. The major-intensity tiers track
// wind speed; the rest follow the classification branch.
type Tier string

const (
	TierLow             Tier = "low"
	TierExtratropical   Tier = "ex"
	TierRemnants        Tier = "remnants"
	TierTD              Tier = "td"
	TierSD              Tier = "sd"
	TierTS              Tier = "ts"
	TierSS              Tier = "ss"
	TierCat1            Tier = "cat1"
	TierCat2            Tier = "cat2"
	TierCat3            Tier = "cat3"
	TierCat4            Tier = "cat4"
	TierCat5            Tier = "cat5"
	TierCat5Intense     Tier = "cat5intense"
	TierCat5VeryIntense Tier = "cat5veryintense"
)

// Classification is the result of Classify.
type Classification struct {
	Category Category `json:"category"`
	Tier     Tier     `json:"tier"`
}

// Wind thresholds in knots.
const (
	tropicalStormWind = 35
	hurricaneWind     = 65
	majorHurricane    = 100
	superTyphoon      = 130
)

// Classify maps a storm's name, sustained wind (kt), interp status flag and
// basin to a display category. Branches are evaluated in order and the first
// match wins.
//
// Wind is ignored when labelling an invest: ATCF auto-flags strong invests as
// depressions. Subtropical flags are the exception, since not every agency
// writes advisories on subtropical systems.
func Classify(name string, wind int, flag string, basin Basin) Classification {
	subtropical := flag == FlagSubtropicalDep || flag == FlagSubtropicalSt
	invest := name == InvestName
	if invest && !subtropical {
		tier := TierLow
		if wind >= hurricaneWind {
			tier = TierFor(wind)
		}
		return Classification{Category: CategoryAreaOfInterest, Tier: tier}
	}

	switch {
	case flag == FlagExtratropical:
		return Classification{Category: CategoryPostTropical, Tier: TierExtratropical}
	case flag == FlagLow || flag == FlagInvest:
		return Classification{Category: CategoryPostTropical, Tier: TierLow}
	case flag == FlagDisturbance || flag == FlagWave:
		return Classification{Category: CategoryRemnants, Tier: TierRemnants}
	case wind < tropicalStormWind:
		switch {
		case flag == FlagSubtropicalDep:
			return Classification{Category: CategorySubtropicalDep, Tier: TierSD}
		case invest:
			// flagged SS at depression strength
			return Classification{Category: CategoryAreaOfInterest, Tier: TierLow}
		}
		return Classification{Category: CategoryTropicalDepression, Tier: TierTD}
	case wind < hurricaneWind:
		switch {
		case flag == FlagSubtropicalSt:
			return Classification{Category: CategorySubtropicalStorm, Tier: TierSS}
		case invest:
			return Classification{Category: CategoryAreaOfInterest, Tier: TierLow}
		}
		return Classification{Category: CategoryTropicalStorm, Tier: TierTS}
	}
	return Classification{Category: intenseCategory(wind, basin), Tier: TierFor(wind)}
}

func intenseCategory(wind int, basin Basin) Category {
	switch {
	case basin.NHCBasin():
		if wind < majorHurricane {
			return CategoryHurricane
		}
		return CategoryMajorHurricane
	case basin == BasinWestPacific:
		if wind < superTyphoon {
			return CategoryTyphoon
		}
		return CategorySuperTyphoon
	default:
		return CategoryCyclone
	}
}

// TierFor returns the intensity tier for a system at or above hurricane
// strength.
func TierFor(wind int) Tier {
	switch {
	case wind < 85:
		return TierCat1
	case wind < 100:
		return TierCat2
	case wind < 115:
		return TierCat3
	case wind < 140:
		return TierCat4
	case wind < 155:
		return TierCat5
	case wind < 170:
		return TierCat5Intense
	default:
		return TierCat5VeryIntense
	}
}

// Supersedes reports whether candidate beats the stored record: stronger
// winds, or equal winds and a lower central pressure. An unknown pressure (0)
// never wins a tie but loses to any known pressure.
func Supersedes(candidate, stored Observation) bool {
	if candidate.Wind != stored.Wind {
		return candidate.Wind > stored.Wind
	}
	if candidate.Pressure <= 0 {
		return false
	}
	return stored.Pressure <= 0 || candidate.Pressure < stored.Pressure
}

// HistoricalNature classifies a best-track storm from its peak winds. The
// thresholds follow the archive's 34/64 kt convention rather than the live
// feed's rounding. basin is an IBTrACS basin code such as "NA" or "WP".
func HistoricalNature(peakWind int, basin string, subtropical bool) Category {
	if peakWind > 0 {
		switch {
		case peakWind < 34:
			if subtropical {
				return CategorySubtropicalDep
			}
			return CategoryTropicalDepression
		case peakWind < 64:
			if subtropical {
				return CategorySubtropicalStorm
			}
			return CategoryTropicalStorm
		case basin == "WP":
			if peakWind < superTyphoon {
				return CategoryTyphoon
			}
			return CategorySuperTyphoon
		case basin == "NA" || basin == "SA" || basin == "EP":
			return CategoryHurricane
		}
	}
	if subtropical {
		return CategorySubtropicalCyclone
	}
	return CategoryTropicalCyclone
}
