package mealweek

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestOfBucketBoundaries(t *testing.T) {
	cases := []struct {
		day      int
		wantWeek int
	}{
		{1, 1}, {7, 1},
		{8, 2}, {14, 2},
		{15, 3}, {21, 3},
		{22, 4}, {28, 4},
		{29, 5}, {31, 5},
	}
	for _, tc := range cases {
		w := Of(date(2025, 1, tc.day))
		assert.Equal(t, tc.wantWeek, w.Week, "day %d", tc.day)
	}
}

func TestBoundsClampsToEndOfMonth(t *testing.T) {
	// April has 30 days — week 5 is just the 29th and 30th.
	w, err := Bounds(2025, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 4, 29), w.Start)
	assert.Equal(t, date(2025, 4, 30), w.End)

	// February 2025 has 28 days — week 4 ends exactly on the 28th.
	w, err = Bounds(2025, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, date(2025, 2, 28), w.End)
}

func TestNoWeekFiveInShortFebruary(t *testing.T) {
	assert.Equal(t, 4, Count(2025, 2))

	_, err := Bounds(2025, 2, 5)
	assert.ErrorIs(t, err, ErrInvalidWeek)

	// Leap February has 29 days and therefore a one-day week 5.
	assert.Equal(t, 5, Count(2024, 2))
	w, err := Bounds(2024, 2, 5)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), w.Start)
	assert.Equal(t, date(2024, 2, 29), w.End)
}

func TestPreviousAcrossMonthBorder(t *testing.T) {
	// Week 1 of March 2025 looks back to week 4 of February (28 days).
	w, err := Bounds(2025, 3, 1)
	require.NoError(t, err)
	p := w.Previous()
	assert.Equal(t, 2025, p.Year)
	assert.Equal(t, 2, p.Month)
	assert.Equal(t, 4, p.Week)

	// Week 1 of February 2025 looks back to week 5 of January (31 days).
	w, err = Bounds(2025, 2, 1)
	require.NoError(t, err)
	p = w.Previous()
	assert.Equal(t, 1, p.Month)
	assert.Equal(t, 5, p.Week)
}

func TestPreviousAcrossYearBorder(t *testing.T) {
	w, err := Bounds(2025, 1, 1)
	require.NoError(t, err)
	p := w.Previous()
	assert.Equal(t, 2024, p.Year)
	assert.Equal(t, 12, p.Month)
	assert.Equal(t, 5, p.Week)
}

func TestNextIsInverseOfPrevious(t *testing.T) {
	w := Of(date(2025, 6, 30)) // week 5 of June
	n := w.Next()
	assert.Equal(t, 7, n.Month)
	assert.Equal(t, 1, n.Week)
	assert.Equal(t, w, n.Previous())
}

func TestRangeEnumeration(t *testing.T) {
	weeks := Range(date(2025, 2, 20), date(2025, 3, 10))
	require.Len(t, weeks, 4) // Feb w3, Feb w4, Mar w1, Mar w2
	assert.Equal(t, 3, weeks[0].Week)
	assert.Equal(t, 2, weeks[0].Month)
	assert.Equal(t, 2, weeks[3].Week)
	assert.Equal(t, 3, weeks[3].Month)

	assert.Nil(t, Range(date(2025, 3, 10), date(2025, 2, 20)))
}

func TestTruncateNormalizesToUTCMidnight(t *testing.T) {
	loc := time.FixedZone("BST", 6*3600)
	got := Truncate(time.Date(2025, 5, 14, 23, 45, 0, 0, loc))
	assert.Equal(t, date(2025, 5, 14), got)
}
