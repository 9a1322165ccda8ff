package usecase

import (
	"strconv"
	"strings"
)

// Monetary unit multipliers for Indian real-estate price strings.
// "Cr" is fixed at 1e7 (crore); earlier data sources disagreed on this and the
// 1e7 convention is the one this module uses everywhere.
const (
	lacMultiplier   = 100_000
	croreMultiplier = 10_000_000
)

// areaUnitSuffixes are the unit tokens stripped from area strings. The suffix
// is removed, not converted; values are taken at face magnitude.
var areaUnitSuffixes = []string{"sqft", "sqm", "sqyrd"}

// ParsePrice converts a free-text price ("1.2 Cr", "85 Lac", "950000") into
// rupees. The second return value is false when the text does not parse;
// malformed input is a missing value, never an error.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	multiplier := 1.0
	switch {
	case strings.Contains(raw, "Lac"):
		raw = strings.Replace(raw, "Lac", "", 1)
		multiplier = lacMultiplier
	case strings.Contains(raw, "Cr"):
		raw = strings.Replace(raw, "Cr", "", 1)
		multiplier = croreMultiplier
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return value * multiplier, true
}

// ParseArea strips a known unit suffix ("900 sqft" -> 900) and parses the
// remainder. Unknown trailing text yields a missing value.
func ParseArea(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	for _, suffix := range areaUnitSuffixes {
		raw = strings.ReplaceAll(raw, suffix, "")
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ParseCount coerces a count cell ("2", "2.0") to a float. Non-numeric text
// yields a missing value.
func ParseCount(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
