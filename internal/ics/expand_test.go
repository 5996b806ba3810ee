package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandRule_DailyCount(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	windowStart := anchor.AddDate(0, 0, -1)
	windowEnd := anchor.AddDate(0, 0, 10)

	got := ExpandRule("FREQ=DAILY;COUNT=5", anchor, windowStart, windowEnd)
	require.Len(t, got, 5)
	for i, ts := range got {
		assert.Equal(t, anchor.AddDate(0, 0, i), ts)
	}
}

func TestExpandRule_IntervalSpacing(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	got := ExpandRule("FREQ=DAILY;INTERVAL=3;COUNT=4", anchor, anchor, anchor.AddDate(0, 1, 0))
	require.Len(t, got, 4)
	assert.Equal(t, anchor.AddDate(0, 0, 9), got[3])
}

func TestExpandRule_UntilClipsBeforeCount(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	windowEnd := anchor.AddDate(0, 1, 0)

	// COUNT allows 10 but UNTIL cuts the run after three occurrences.
	got := ExpandRule("FREQ=DAILY;COUNT=10;UNTIL=20240605T090000Z", anchor, anchor, windowEnd)
	require.Len(t, got, 3)
	assert.Equal(t, time.Date(2024, 6, 5, 9, 0, 0, 0, time.UTC), got[2].UTC())
}

func TestExpandRule_WindowEndBoundsUnboundedRules(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 6, 7, 23, 0, 0, 0, time.UTC)

	// No COUNT, no UNTIL: the window end is the only bound.
	got := ExpandRule("FREQ=DAILY", anchor, anchor, windowEnd)
	assert.Len(t, got, 7)
}

func TestExpandRule_OccurrencesBeforeWindowConsumeCount(t *testing.T) {
	anchor := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	windowStart := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	// Five daily steps from June 1; the first three fall before the
	// window and are stepped over, not collected.
	got := ExpandRule("FREQ=DAILY;COUNT=5", anchor, windowStart, windowEnd)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC), got[0].UTC())
	assert.Equal(t, time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC), got[1].UTC())
}

func TestExpandRule_WeeklyAndYearly(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

	weekly := ExpandRule("FREQ=WEEKLY;COUNT=3", anchor, anchor, anchor.AddDate(1, 0, 0))
	require.Len(t, weekly, 3)
	assert.Equal(t, anchor.AddDate(0, 0, 14), weekly[2])

	yearly := ExpandRule("FREQ=YEARLY;COUNT=2", anchor, anchor, anchor.AddDate(3, 0, 0))
	require.Len(t, yearly, 2)
	assert.Equal(t, anchor.AddDate(1, 0, 0), yearly[1])
}

// Monthly stepping uses overflow-normalizing calendar arithmetic applied
// cumulatively: Jan 31 2025 + 1 month overflows Feb into Mar 3, and the next
// step continues from Mar 3, not from the anchor's day-of-month.
func TestExpandRule_MonthlyOverflowRollsForward(t *testing.T) {
	anchor := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	windowEnd := anchor.AddDate(1, 0, 0)

	got := ExpandRule("FREQ=MONTHLY;COUNT=3", anchor, anchor, windowEnd)
	require.Len(t, got, 3)
	assert.Equal(t, anchor, got[0])
	assert.Equal(t, time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC), got[2])
}

func TestExpandRule_MonthYearRollover(t *testing.T) {
	anchor := time.Date(2024, 11, 15, 9, 0, 0, 0, time.UTC)
	got := ExpandRule("FREQ=MONTHLY;COUNT=3", anchor, anchor, anchor.AddDate(1, 0, 0))
	require.Len(t, got, 3)
	assert.Equal(t, time.Date(2024, 12, 15, 9, 0, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC), got[2])
}

func TestExpandRule_CapAt500(t *testing.T) {
	anchor := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	got := ExpandRule("FREQ=DAILY", anchor, anchor, anchor.AddDate(10, 0, 0))
	assert.Len(t, got, maxRuleOccurrences)
}

func TestExpandRule_UnsupportedFrequencyFailsSoft(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	// HOURLY decodes but is not an expandable frequency; only the anchor
	// itself is produced.
	got := ExpandRule("FREQ=HOURLY;COUNT=5", anchor, anchor, anchor.AddDate(0, 0, 1))
	assert.Equal(t, []time.Time{anchor}, got)
}

func TestExpandRule_UndecodableRuleYieldsNothing(t *testing.T) {
	anchor := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	assert.Empty(t, ExpandRule("NOT-A-RULE", anchor, anchor, anchor.AddDate(0, 0, 7)))
}
