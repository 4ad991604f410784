package core

import "strings"

// DefaultIsland is assigned to regions missing from RegionIslands.
const DefaultIsland = "Lainnya"

// DefaultCountry is the country column value for current-period rows.
const DefaultCountry = "Domestik"

// RegionIslands maps region (province) names, as written in the monthly
// report, to their island group.
var RegionIslands = map[string]string{
	"D.I. Aceh":         "Sumatera",
	"Sumut":             "Sumatera",
	"Sumbar":            "Sumatera",
	"Riau":              "Sumatera",
	"Kepulauan Riau":    "Sumatera",
	"Jambi":             "Sumatera",
	"Sumsel":            "Sumatera",
	"Bangka - Belitung": "Sumatera",
	"Bengkulu":          "Sumatera",
	"Lampung":           "Sumatera",

	"D. K. I. Jakarta": "Jawa",
	"Banten":           "Jawa",
	"Jabar":            "Jawa",
	"Jateng":           "Jawa",
	"D. I. Y.":         "Jawa",
	"Jatim":            "Jawa",

	"Kalbar":  "Kalimantan",
	"Kalsel":  "Kalimantan",
	"Kalteng": "Kalimantan",
	"Kaltim":  "Kalimantan",
	"Kaltara": "Kalimantan",

	"Sultera":   "Sulawesi",
	"Sulsel":    "Sulawesi",
	"Sulbar":    "Sulawesi",
	"Sulteng":   "Sulawesi",
	"Sulut":     "Sulawesi",
	"Gorontalo": "Sulawesi",

	"Bali":     "Bali Nusra",
	"N. T. B.": "Bali Nusra",
	"N. T. T.": "Bali Nusra",

	"Maluku":       "Ind. Timur",
	"Maluku Utara": "Ind. Timur",
	"Papua Barat":  "Ind. Timur",
	"Papua":        "Ind. Timur",
}

// IslandFor returns the island group of region, or fallback when the region
// is not known. Matching is exact, as in the report.
func IslandFor(region, fallback string) string {
	if island, ok := RegionIslands[region]; ok {
		return island
	}
	return fallback
}

// monthAbbrev holds the Indonesian month abbreviations used in the month
// column, indexed by month number - 1.
var monthAbbrev = [12]string{
	"Jan", "Feb", "Mar", "Apr", "Mei", "Jun",
	"Jul", "Agt", "Sep", "Okt", "Nov", "Des",
}

var monthFull = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the abbreviation for month 1-12, or "" if out of range.
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return monthAbbrev[month-1]
}

// MonthIndexFromName converts an Indonesian month name, abbreviated or full,
// to 1-12. English abbreviations that differ (May, Aug, Oct, Dec) are
// accepted too. Returns 0 when the name is not recognized.
func MonthIndexFromName(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0
	}
	for i := range monthAbbrev {
		if name == strings.ToLower(monthAbbrev[i]) || name == strings.ToLower(monthFull[i]) {
			return i + 1
		}
	}
	switch name {
	case "may":
		return 5
	case "aug", "ags":
		return 8
	case "oct":
		return 10
	case "dec":
		return 12
	}
	return 0
}
