package cron

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setOf(values ...int) map[int]bool {
	s := make(map[int]bool, len(values))
	for _, v := range values {
		s[v] = true
	}
	return s
}

func TestParseField_Wildcard(t *testing.T) {
	got, err := ParseField("*", 0, 5)
	require.NoError(t, err)
	assert.Equal(t, setOf(0, 1, 2, 3, 4, 5), got)
}

func TestParseField_SteppedWildcard(t *testing.T) {
	got, err := ParseField("*/15", 0, 59)
	require.NoError(t, err)
	assert.Equal(t, setOf(0, 15, 30, 45), got)
}

func TestParseField_Range(t *testing.T) {
	got, err := ParseField("3-6", 0, 23)
	require.NoError(t, err)
	assert.Equal(t, setOf(3, 4, 5, 6), got)
}

func TestParseField_SteppedRange(t *testing.T) {
	got, err := ParseField("10-20/5", 0, 59)
	require.NoError(t, err)
	assert.Equal(t, setOf(10, 15, 20), got)
}

func TestParseField_List(t *testing.T) {
	got, err := ParseField("1,15,30-32", 0, 59)
	require.NoError(t, err)
	assert.Equal(t, setOf(1, 15, 30, 31, 32), got)
}

func TestParseField_OutOfRangeValuesAreNotValidated(t *testing.T) {
	// Numerically out-of-range but well-formed: accepted as-is, the value
	// simply never matches a real minute.
	got, err := ParseField("99", 0, 59)
	require.NoError(t, err)
	assert.Equal(t, setOf(99), got)

	// Inverted range produces an empty set, not an error.
	got, err = ParseField("20-10", 0, 59)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseField_SyntaxErrors(t *testing.T) {
	for _, expr := range []string{"a", "1-b", "*/x", "*/0", "1,,2", ""} {
		_, err := ParseField(expr, 0, 59)
		assert.Error(t, err, "expected %q to be rejected", expr)
	}
}

func TestParseExpression_FiveFields(t *testing.T) {
	f, err := ParseExpression("0 9 * * 1")
	require.NoError(t, err)

	assert.Equal(t, setOf(0), f.Minutes)
	assert.Equal(t, setOf(9), f.Hours)
	assert.True(t, f.DomStar)
	assert.False(t, f.DowStar)
	assert.Equal(t, setOf(1), f.Dow)
	assert.Len(t, f.Month, 12)
}

func TestParseExpression_WrongFieldCount(t *testing.T) {
	_, err := ParseExpression("0 9 * *")
	assert.Error(t, err)
	_, err = ParseExpression("0 9 * * 1 2024")
	assert.Error(t, err)
	_, err = ParseExpression("")
	assert.Error(t, err)
}

func TestParseExpression_SteppedDayFieldIsNotAWildcard(t *testing.T) {
	f, err := ParseExpression("0 0 */2 * *")
	require.NoError(t, err)
	// "*/2" restricts the field; only a bare "*" counts as wildcard for
	// the day-selection rule.
	assert.False(t, f.DomStar)
	assert.True(t, f.DowStar)
}
