package common

import (
	"html"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanHTMLText strips tags and entities from vendor descriptions and
// collapses whitespace.
func CleanHTMLText(raw string) string {
	value := strings.TrimSpace(raw)
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

// ClampRating bounds a rating to the canonical 0-10 scale.
func ClampRating(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 10 {
		return 10
	}
	return value
}

// RatingFromFive converts a 0-5 vendor scale to the canonical 0-10 scale.
func RatingFromFive(value float64) float64 {
	return ClampRating(value * 2)
}

// RatingFromPercent converts a 0-100 vendor scale to the canonical 0-10 scale.
func RatingFromPercent(value float64) float64 {
	return ClampRating(value / 10)
}

// PopularityFromScale maps a bounded vendor popularity scale onto the
// canonical 0-10 band, like the rating conversions above.
func PopularityFromScale(value, max float64) float64 {
	if value <= 0 || max <= 0 {
		return 0
	}
	return ClampRating(value * 10 / max)
}

// PopularityFromVolume log-damps an unbounded volume signal (recommendation
// counts, trending scores) onto the 0-10 band. Saturates near 10^8.
func PopularityFromVolume(value float64) float64 {
	if value <= 0 {
		return 0
	}
	return ClampRating(math.Log10(value+1) * 1.25)
}

// YearFromDate extracts the year from the date formats the vendor APIs
// actually ship: RFC3339 timestamps, yyyy-mm-dd, "02 Jan 2006" and bare
// years. Returns 0 when nothing parses.
func YearFromDate(raw string) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0
	}
	if len(value) >= 4 {
		if year, err := strconv.Atoi(value[:4]); err == nil && plausibleYear(year) {
			return year
		}
	}
	// "02 Jan 2006" style (OMDb "Released" field).
	fields := strings.Fields(value)
	if len(fields) > 0 {
		last := fields[len(fields)-1]
		if year, err := strconv.Atoi(last); err == nil && plausibleYear(year) {
			return year
		}
	}
	return 0
}

// YearFromRange handles OMDb-style "2010" and "2011-2019" year fields.
func YearFromRange(raw string) int {
	value := strings.TrimSpace(raw)
	if idx := strings.IndexAny(value, "-–"); idx > 0 {
		value = value[:idx]
	}
	year, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || !plausibleYear(year) {
		return 0
	}
	return year
}

func plausibleYear(year int) bool {
	return year >= 1800 && year <= 2200
}

// ParseCount parses a vote count that may carry thousands separators, like
// OMDb's "1,234,567".
func ParseCount(raw string) int64 {
	value := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if value == "" || value == "N/A" {
		return 0
	}
	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil || count < 0 {
		return 0
	}
	return count
}

// ParseRating parses a textual rating like OMDb's "8.8", tolerating "N/A".
func ParseRating(raw string) float64 {
	value := strings.TrimSpace(raw)
	if value == "" || value == "N/A" {
		return 0
	}
	rating, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return ClampRating(rating)
}
