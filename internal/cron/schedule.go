package cron

import (
	"sort"
	"time"

	appLog "feedcal/internal/log"
)

// maxOccurrences caps how many trigger times one expression produces per
// query, mirroring the recurrence expansion cap.
const maxOccurrences = 500

// Occurrences returns every trigger time of expr inside the inclusive
// window [windowStart, windowEnd], ascending, capped at 500.
//
// It walks whole calendar days from windowStart with the time of day zeroed.
// A day is eligible when its month matches and cron's day rule holds: with
// both day fields explicit, day-of-month OR day-of-week may match; with one
// wildcard, the explicit field decides; with both wildcards, every day
// matches. Each eligible day emits one time per hour/minute combination.
//
// An invalid expression is logged and yields no occurrences.
func Occurrences(expr string, windowStart, windowEnd time.Time) []time.Time {
	fields, err := ParseExpression(expr)
	if err != nil {
		appLog.Warn("invalid cron schedule; producing no occurrences", "expr", expr, "reason", err)
		return nil
	}

	hours := sortedValues(fields.Hours)
	minutes := sortedValues(fields.Minutes)

	var out []time.Time
	day := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(),
		0, 0, 0, 0, windowStart.Location())

	for !day.After(windowEnd) {
		if !fields.Month[int(day.Month())] || !dayMatches(fields, day) {
			day = day.AddDate(0, 0, 1)
			continue
		}
		for _, h := range hours {
			for _, m := range minutes {
				t := time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location())
				if t.Before(windowStart) || t.After(windowEnd) {
					continue
				}
				out = append(out, t)
				if len(out) >= maxOccurrences {
					return out
				}
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// dayMatches applies the standard cron day-selection convention.
func dayMatches(f *Fields, day time.Time) bool {
	domOK := f.Dom[day.Day()]
	dowOK := f.Dow[int(day.Weekday())]

	switch {
	case f.DomStar && f.DowStar:
		return true
	case f.DomStar:
		return dowOK
	case f.DowStar:
		return domOK
	default:
		// Both explicit: either field may select the day.
		return domOK || dowOK
	}
}

func sortedValues(set map[int]bool) []int {
	vals := make([]int, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	sort.Ints(vals)
	return vals
}
