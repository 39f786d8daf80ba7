package datemath

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 30, 0, 0, time.UTC)
}

func TestWeekStartIsMondayAndBrackets(t *testing.T) {
	oslo, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)

	start := time.Date(2024, time.December, 20, 0, 0, 0, 0, oslo)
	for i := 0; i < 800; i++ {
		d := AddDays(start, i).Add(time.Duration(i%24) * time.Hour)

		ws := WeekStart(d)
		we := WeekEnd(d)
		assert.Equal(t, time.Monday, ws.Weekday(), "week start of %s", d)
		assert.Equal(t, time.Sunday, we.Weekday(), "week end of %s", d)
		assert.False(t, d.Before(ws), "%s before week start %s", d, ws)
		assert.False(t, d.After(we), "%s after week end %s", d, we)
		assert.Equal(t, 0, ws.Hour())
		assert.Equal(t, WeekNumber(d), WeekNumber(ws), "week number moved for %s", d)
	}
}

func TestWeekStartSundayMovesBack(t *testing.T) {
	sunday := date(2025, time.January, 19)
	ws := WeekStart(sunday)
	assert.Equal(t, "2025-01-13", DateKey(ws))
}

func TestWeekNumber(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{date(2025, time.January, 15), 3},
		{date(2024, time.December, 30), 1}, // belongs to 2025-W01
		{date(2021, time.January, 3), 53},  // belongs to 2020-W53
		{date(2026, time.December, 31), 53},
		{date(2023, time.January, 1), 52},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, WeekNumber(tc.in), DateKey(tc.in))
	}
	assert.Equal(t, 2025, WeekYear(date(2024, time.December, 30)))
}

func TestMonthAndYearBoundaries(t *testing.T) {
	d := date(2024, time.February, 10)

	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), MonthStart(d))
	assert.Equal(t, time.Date(2024, time.February, 29, 23, 59, 59, 999_000_000, time.UTC), MonthEnd(d))
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), YearStart(d))
	assert.Equal(t, time.Date(2024, time.December, 31, 23, 59, 59, 999_000_000, time.UTC), YearEnd(d))
}

func TestAddMonthsClampsDay(t *testing.T) {
	assert.Equal(t, "2025-02-28", DateKey(AddMonths(date(2025, time.January, 31), 1)))
	assert.Equal(t, "2024-02-29", DateKey(AddMonths(date(2024, time.January, 31), 1)))
	assert.Equal(t, "2024-11-30", DateKey(AddMonths(date(2024, time.December, 31), -1)))
	assert.Equal(t, "2026-01-15", DateKey(AddMonths(date(2025, time.December, 15), 1)))
	assert.Equal(t, "2025-02-28", DateKey(AddYears(date(2024, time.February, 29), 1)))
}

func TestDateKeyUsesOwnLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 22:30 local on Jan 14 is already Jan 15 in UTC.
	d := time.Date(2025, time.January, 14, 22, 30, 0, 0, ny)
	assert.Equal(t, "2025-01-14", DateKey(d))

	parsed, err := ParseDateKey("2025-01-14", ny)
	require.NoError(t, err)
	assert.True(t, SameDay(parsed, d))
}

func TestWeekDates(t *testing.T) {
	days := WeekDates(date(2025, time.January, 15))
	require.Len(t, days, 7)
	assert.Equal(t, "2025-01-13", DateKey(days[0]))
	assert.Equal(t, "2025-01-19", DateKey(days[6]))
}
