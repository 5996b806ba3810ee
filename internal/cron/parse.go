package cron

import (
	"fmt"
	"strconv"
	"strings"
)

// Fields holds the decoded five fields of a cron expression as integer sets,
// plus whether the two day fields were bare wildcards. The wildcard flags
// drive cron's day-selection disjunction rule in the generator.
type Fields struct {
	Minutes map[int]bool // 0-59
	Hours   map[int]bool // 0-23
	Dom     map[int]bool // 1-31
	Month   map[int]bool // 1-12
	Dow     map[int]bool // 0-6, Sunday = 0

	DomStar bool
	DowStar bool
}

// ParseExpression decodes a five-field cron expression
// (minute hour day-of-month month day-of-week). Anything other than exactly
// five whitespace-separated fields, or a field with broken syntax, is an
// error so misconfigured schedules can be logged instead of silently
// matching nothing.
func ParseExpression(expr string) (*Fields, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("expected 5 fields, got %d", len(parts))
	}

	var (
		f   Fields
		err error
	)
	if f.Minutes, err = ParseField(parts[0], 0, 59); err != nil {
		return nil, fmt.Errorf("minute field: %w", err)
	}
	if f.Hours, err = ParseField(parts[1], 0, 23); err != nil {
		return nil, fmt.Errorf("hour field: %w", err)
	}
	if f.Dom, err = ParseField(parts[2], 1, 31); err != nil {
		return nil, fmt.Errorf("day-of-month field: %w", err)
	}
	if f.Month, err = ParseField(parts[3], 1, 12); err != nil {
		return nil, fmt.Errorf("month field: %w", err)
	}
	if f.Dow, err = ParseField(parts[4], 0, 6); err != nil {
		return nil, fmt.Errorf("day-of-week field: %w", err)
	}

	f.DomStar = parts[2] == "*"
	f.DowStar = parts[4] == "*"
	return &f, nil
}

// ParseField decodes a single cron field into the set of matching values.
// Supported subexpressions, comma-separated: "*" (full range), "a-b"
// (inclusive range), "a-b/n" and "*/n" (stepped range), and literal
// integers.
//
// Syntax errors are reported; numeric values outside [min,max] are not
// independently validated, so a malformed-but-parseable field may produce an
// empty or out-of-range set. That set simply never matches.
func ParseField(expr string, min, max int) (map[int]bool, error) {
	set := make(map[int]bool)

	for _, part := range strings.Split(expr, ",") {
		if part == "" {
			return nil, fmt.Errorf("empty subexpression in %q", expr)
		}

		step := 1
		rangeExpr := part
		if i := strings.IndexByte(part, '/'); i >= 0 {
			n, err := strconv.Atoi(part[i+1:])
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("bad step in %q", part)
			}
			step = n
			rangeExpr = part[:i]
		}

		var lo, hi int
		switch {
		case rangeExpr == "*":
			lo, hi = min, max
		case strings.Contains(rangeExpr, "-"):
			bounds := strings.SplitN(rangeExpr, "-", 2)
			a, errA := strconv.Atoi(bounds[0])
			b, errB := strconv.Atoi(bounds[1])
			if errA != nil || errB != nil {
				return nil, fmt.Errorf("bad range %q", rangeExpr)
			}
			lo, hi = a, b
		default:
			n, err := strconv.Atoi(rangeExpr)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", rangeExpr)
			}
			lo, hi = n, n
		}

		for v := lo; v <= hi; v += step {
			set[v] = true
		}
	}

	return set, nil
}
