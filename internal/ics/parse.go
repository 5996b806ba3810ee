package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "feedcal/internal/log"
)

// maxEventBlocks caps how many VEVENT blocks one parse call will process,
// regardless of how many the feed contains. An adversarially large feed
// degrades to a truncated result, not unbounded work.
const maxEventBlocks = 2000

// Source identifies one feed for parsing and logging.
type Source struct {
	ID  string
	URL string
}

// Event is one concrete event instance produced by parsing a feed within a
// query window. Recurring events appear once per expanded occurrence.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time
}

// Parse decodes a raw feed body into concrete event instances intersecting
// [windowStart, windowEnd].
//
// Line unfolding and block structure come from the underlying iCalendar
// library; on top of that this function enforces the block cap, decodes
// DTSTART/DTEND in their 8-char date-only and 15/16-char date-time forms,
// unescapes text fields, and expands RRULEs. A block whose dates fail to
// decode is skipped; its siblings still parse.
func Parse(src Source, body []byte, windowStart, windowEnd time.Time) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty feed body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	blocks := cal.Events()
	if len(blocks) > maxEventBlocks {
		appLog.Warn("feed has too many event blocks; truncating",
			"id", src.ID, "blocks", len(blocks), "cap", maxEventBlocks)
		blocks = blocks[:maxEventBlocks]
	}

	events := make([]Event, 0, len(blocks))

	for i, ve := range blocks {
		evs, perr := parseBlock(ve, i, windowStart, windowEnd)
		if perr != nil {
			appLog.Debug("skipping unparsable event block", "id", src.ID, "index", i, "reason", perr)
			continue
		}
		events = append(events, evs...)
	}

	appLog.Debug("feed parse completed", "id", src.ID, "blocks", len(blocks), "events", len(events))
	return events, nil
}

// parseBlock turns one VEVENT into zero or more concrete instances. It
// returns an error only for blocks that must be discarded (missing or
// undecodable DTSTART).
func parseBlock(ve *ical.VEvent, index int, windowStart, windowEnd time.Time) ([]Event, error) {
	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil || startProp.Value == "" {
		return nil, errors.New("missing DTSTART")
	}

	start, allDay, err := parseFeedTime(startProp.Value)
	if err != nil {
		return nil, fmt.Errorf("bad DTSTART %q: %w", startProp.Value, err)
	}

	// Duration: DTEND-DTSTART when DTEND decodes, else 24h for all-day
	// events and 1h otherwise.
	dur := time.Hour
	if allDay {
		dur = 24 * time.Hour
	}
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil && endProp.Value != "" {
		end, _, eerr := parseFeedTime(endProp.Value)
		if eerr != nil {
			return nil, fmt.Errorf("bad DTEND %q: %w", endProp.Value, eerr)
		}
		if d := end.Sub(start); d >= 0 {
			dur = d
		}
	}

	ev := Event{
		UID:    fmt.Sprintf("feedcal-%d", index+1),
		AllDay: allDay,
	}
	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil && p.Value != "" {
		ev.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		ev.Description = unescapeText(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		ev.Location = unescapeText(p.Value)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
		starts := ExpandRule(p.Value, start, windowStart, windowEnd)
		out := make([]Event, 0, len(starts))
		for _, s := range starts {
			inst := ev
			inst.Start = s
			inst.End = s.Add(dur)
			out = append(out, inst)
		}
		return out, nil
	}

	end := start.Add(dur)
	// Inclusive overlap test against the query window.
	if end.Before(windowStart) || start.After(windowEnd) {
		return nil, nil
	}
	ev.Start = start
	ev.End = end
	return []Event{ev}, nil
}

// parseFeedTime decodes the two accepted date value shapes: 8-char date-only
// (an all-day event starting at local midnight) and 15/16-char date-time
// with an optional trailing UTC marker.
func parseFeedTime(v string) (t time.Time, allDay bool, err error) {
	v = strings.TrimSpace(v)
	switch len(v) {
	case 8:
		t, err = time.ParseInLocation("20060102", v, time.Local)
		return t, true, err
	case 15:
		t, err = time.ParseInLocation("20060102T150405", v, time.Local)
		return t, false, err
	case 16:
		t, err = time.Parse("20060102T150405Z", v)
		return t, false, err
	default:
		return time.Time{}, false, fmt.Errorf("unsupported date value length %d", len(v))
	}
}

// unescapeText reverses iCalendar TEXT escaping: backslash-escaped commas,
// semicolons, newlines, and backslashes.
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
