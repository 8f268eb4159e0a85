// Package mealweek partitions calendar months into the fixed week buckets
// used for meal billing: days 1-7, 8-14, 15-21, 22-28 and 29-end of month.
// These are billing buckets, NOT ISO weeks — week 5 only exists in months
// with 29 or more days, and the last bucket is clamped to the month's end.
package mealweek

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWeek is returned when a (year, month, week) triple names a
// bucket the month does not have, e.g. week 5 of a 28-day February.
var ErrInvalidWeek = errors.New("invalid week for month")

// Week identifies one bucket together with its resolved date range.
// Start and End are UTC midnights; End is the last day inside the bucket.
type Week struct {
	Year  int
	Month int
	Week  int
	Start time.Time
	End   time.Time
}

// DaysIn returns the number of days in the given month.
func DaysIn(year, month int) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Count returns how many week buckets the month has: 5 when the month has
// at least 29 days, otherwise 4.
func Count(year, month int) int {
	if DaysIn(year, month) >= 29 {
		return 5
	}
	return 4
}

// Bounds resolves (year, month, week) into a Week with its date range, or
// ErrInvalidWeek when the bucket does not exist in that month.
func Bounds(year, month, week int) (Week, error) {
	if month < 1 || month > 12 {
		return Week{}, fmt.Errorf("%w: month %d", ErrInvalidWeek, month)
	}
	if week < 1 || week > Count(year, month) {
		return Week{}, fmt.Errorf("%w: week %d of %d-%02d", ErrInvalidWeek, week, year, month)
	}

	startDay := (week-1)*7 + 1
	endDay := week * 7
	if last := DaysIn(year, month); endDay > last {
		endDay = last
	}

	return Week{
		Year:  year,
		Month: month,
		Week:  week,
		Start: time.Date(year, time.Month(month), startDay, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.Month(month), endDay, 0, 0, 0, 0, time.UTC),
	}, nil
}

// Of returns the bucket containing t. Valid for any date, so no error.
func Of(t time.Time) Week {
	week := (t.Day()-1)/7 + 1
	if week > 5 {
		week = 5
	}
	w, _ := Bounds(t.Year(), int(t.Month()), week)
	return w
}

// Previous returns the chronologically preceding bucket. Week 1 looks back
// to the LAST bucket of the previous month, which is week 4 or 5 depending
// on that month's length; January looks back into the previous year.
func (w Week) Previous() Week {
	if w.Week > 1 {
		p, _ := Bounds(w.Year, w.Month, w.Week-1)
		return p
	}
	year, month := w.Year, w.Month-1
	if month < 1 {
		year, month = year-1, 12
	}
	p, _ := Bounds(year, month, Count(year, month))
	return p
}

// Next returns the chronologically following bucket.
func (w Week) Next() Week {
	if w.Week < Count(w.Year, w.Month) {
		n, _ := Bounds(w.Year, w.Month, w.Week+1)
		return n
	}
	year, month := w.Year, w.Month+1
	if month > 12 {
		year, month = year+1, 1
	}
	n, _ := Bounds(year, month, 1)
	return n
}

// After reports whether w comes strictly after o.
func (w Week) After(o Week) bool {
	if w.Year != o.Year {
		return w.Year > o.Year
	}
	if w.Month != o.Month {
		return w.Month > o.Month
	}
	return w.Week > o.Week
}

// Range enumerates every bucket from the one containing `from` through the
// one containing `to`, in chronological order. Empty when from is after to.
func Range(from, to time.Time) []Week {
	if from.After(to) {
		return nil
	}
	var weeks []Week
	last := Of(to)
	for w := Of(from); !w.After(last); w = w.Next() {
		weeks = append(weeks, w)
	}
	return weeks
}

// Truncate normalizes t to a UTC midnight so dates compare and bucket
// consistently regardless of the wall-clock time they were recorded with.
func Truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
