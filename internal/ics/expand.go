package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "feedcal/internal/log"
)

// maxRuleOccurrences caps expansion of a single recurrence rule. An
// unbounded rule is clipped here even inside a huge query window.
const maxRuleOccurrences = 500

// ExpandRule expands a raw RRULE content line into concrete start times.
//
// Starting at anchor, it steps forward by the rule's interval in units of
// its frequency and collects every stepped time inside
// [windowStart, min(rule.until, windowEnd)], stopping at min(rule.count, 500)
// steps. A rule that fails to decode yields nothing; a frequency outside
// DAILY/WEEKLY/MONTHLY/YEARLY stops expansion with whatever was collected.
//
// Month and year steps are cumulative calendar arithmetic with overflow
// normalization: Jan 31 stepped by one month lands in early March, and the
// next step continues from there. This matches date-field mutation
// semantics, not the RFC 5545 skip-invalid-date rule, which is why the rrule
// library only decodes the rule string and never generates the times.
func ExpandRule(raw string, anchor, windowStart, windowEnd time.Time) []time.Time {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		appLog.Warn("skipping undecodable recurrence rule", "rrule", raw, "reason", err)
		return nil
	}

	interval := opt.Interval
	if interval <= 0 {
		interval = 1
	}

	until := windowEnd
	if !opt.Until.IsZero() && opt.Until.Before(windowEnd) {
		until = opt.Until
	}

	steps := maxRuleOccurrences
	if opt.Count > 0 && opt.Count < steps {
		steps = opt.Count
	}

	var out []time.Time
	cur := anchor
	for i := 0; i < steps; i++ {
		if cur.After(until) {
			break
		}
		if !cur.Before(windowStart) {
			out = append(out, cur)
		}
		next, ok := stepRule(cur, opt.Freq, interval)
		if !ok {
			appLog.Warn("unsupported recurrence frequency; stopping expansion", "rrule", raw)
			break
		}
		cur = next
	}
	return out
}

func stepRule(t time.Time, freq rrule.Frequency, interval int) (time.Time, bool) {
	switch freq {
	case rrule.DAILY:
		return t.AddDate(0, 0, interval), true
	case rrule.WEEKLY:
		return t.AddDate(0, 0, 7*interval), true
	case rrule.MONTHLY:
		return t.AddDate(0, interval, 0), true
	case rrule.YEARLY:
		return t.AddDate(interval, 0, 0), true
	default:
		return time.Time{}, false
	}
}
