package extract

import (
	"regexp"
	"strconv"
	"time"
)

var dateSeparator = regexp.MustCompile(`[-/]`)

// NormalizeDate parses a matched date substring into a canonical calendar
// date at midnight UTC. The format heuristic is positional, not locale
// aware: a 4-digit first part means year-month-day, anything else is read as
// month-day-year. Two-digit years map to the 2000s. Out-of-range months or
// days report not-ok rather than a wrapped or clamped date.
func NormalizeDate(s string) (time.Time, bool) {
	parts := dateSeparator.Split(s, -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	var year, month, day int
	if len(parts[0]) == 4 {
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		month, day, year = nums[0], nums[1], nums[2]
	}

	if year < 100 {
		year += 2000
	}

	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	if day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// daysIn returns the number of days in the given month
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
