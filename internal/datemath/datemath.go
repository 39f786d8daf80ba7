// Package datemath holds the calendar arithmetic shared by range resolution,
// navigation and seed generation. All functions keep the input's location;
// nothing here converts to UTC.
package datemath

import "time"

// DateKeyLayout is the canonical "YYYY-MM-DD" layout.
const DateKeyLayout = "2006-01-02"

const endOfDayNanos = 999_000_000

// StartOfDay returns 00:00:00.000 of d's calendar day.
func StartOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// EndOfDay returns 23:59:59.999 of d's calendar day.
func EndOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, endOfDayNanos, d.Location())
}

// WeekStart returns Monday 00:00 of the ISO week containing d. A Sunday
// belongs to the week that ends on it.
func WeekStart(d time.Time) time.Time {
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return time.Date(d.Year(), d.Month(), d.Day()-offset, 0, 0, 0, 0, d.Location())
}

// WeekEnd returns Sunday 23:59:59.999 of the ISO week containing d.
func WeekEnd(d time.Time) time.Time {
	return EndOfDay(AddDays(WeekStart(d), 6))
}

// WeekNumber returns the ISO-8601 week number of d.
func WeekNumber(d time.Time) int {
	_, week := d.ISOWeek()
	return week
}

// WeekYear returns the ISO-8601 week-numbering year of d, i.e. the year of
// the Thursday in d's week.
func WeekYear(d time.Time) int {
	year, _ := d.ISOWeek()
	return year
}

// WeekDates returns the seven day starts Monday..Sunday of d's week.
func WeekDates(d time.Time) []time.Time {
	start := WeekStart(d)
	out := make([]time.Time, 7)
	for i := range out {
		out[i] = AddDays(start, i)
	}
	return out
}

// MonthStart returns 00:00 on the first day of d's month.
func MonthStart(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// MonthEnd returns 23:59:59.999 on the last day of d's month.
func MonthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), DaysInMonth(d.Year(), d.Month()), 23, 59, 59, endOfDayNanos, d.Location())
}

// YearStart returns Jan 1 00:00 of d's year.
func YearStart(d time.Time) time.Time {
	return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
}

// YearEnd returns Dec 31 23:59:59.999 of d's year.
func YearEnd(d time.Time) time.Time {
	return time.Date(d.Year(), time.December, 31, 23, 59, 59, endOfDayNanos, d.Location())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day 0 of the next month normalizes to the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddDays moves d by n calendar days, keeping the wall-clock time. Going
// through time.Date keeps DST transitions from shifting the hour.
func AddDays(d time.Time, n int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day()+n, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// AddMonths moves d by n calendar months. When the target month is shorter
// the day of month is clamped, so Jan 31 + 1 month is the last day of
// February rather than early March.
func AddMonths(d time.Time, n int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
	day := d.Day()
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// AddYears moves d by n years, clamping Feb 29 to Feb 28 in common years.
func AddYears(d time.Time, n int) time.Time {
	return AddMonths(d, 12*n)
}

// DateKey formats d as "YYYY-MM-DD" using d's own calendar fields.
func DateKey(d time.Time) string {
	return d.Format(DateKeyLayout)
}

// ParseDateKey parses "YYYY-MM-DD" as midnight in loc.
func ParseDateKey(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateKeyLayout, s, loc)
}

// SameDay reports whether a and b fall on the same calendar day in their
// respective locations.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
