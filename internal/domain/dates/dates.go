// Package dates holds the calendar arithmetic shared by the reproduction and
// alerting services. All day math runs on calendar dates pinned to midnight UTC
// so results do not depend on the wall-clock time or DST of the caller.
package dates

import "time"

// Layout is the wire format used for calendar dates.
const Layout = "2006-01-02"

// Day truncates t to its calendar date (as seen in t's own location) at
// midnight UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the calendar date of now.
func Today(now time.Time) time.Time {
	return Day(now)
}

// AddDays returns the calendar date n days after t.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// AddMonths increments the month field of t's calendar date by n. Overflowing
// days roll into the following month (Jan 31 + 1 month = Mar 3 or Mar 2).
func AddMonths(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, n, 0)
}

// DaysBetween returns the signed number of whole calendar days from a to b.
// It is negative when b precedes a.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// Later returns whichever of a and b is later.
func Later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// WeekStart returns the Sunday on or before t's calendar date.
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// MonthStart returns the first day of t's calendar month.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in t's calendar month.
func DaysInMonth(t time.Time) int {
	return MonthStart(t).AddDate(0, 1, -1).Day()
}

// Midday renders the calendar date of d at 12:00 in loc. Buckets are emitted at
// midday so serializing them through any UTC offset keeps the same date.
func Midday(d time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, loc)
}

// Parse reads a YYYY-MM-DD date (longer timestamps are truncated to their date
// part).
func Parse(value string) (time.Time, error) {
	if len(value) > len(Layout) {
		value = value[:len(Layout)]
	}
	t, err := time.Parse(Layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// DaysUntil is DaysBetween(now, t) wrapped for optional dates.
func DaysUntil(now time.Time, t *time.Time) *int {
	if t == nil {
		return nil
	}
	n := DaysBetween(now, *t)
	return &n
}

// Ptr returns a pointer to a copy of t.
func Ptr(t time.Time) *time.Time {
	return &t
}
