package viewrange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingcal/internal/datemath"
	"trainingcal/internal/model"
)

func TestResolveWeek(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.Local)

	r := Resolve(model.ViewWeek, anchor)

	require.True(t, r.Valid())
	assert.Equal(t, time.Date(2025, time.January, 13, 0, 0, 0, 0, time.Local), r.Start)
	assert.Equal(t, time.Date(2025, time.January, 19, 23, 59, 59, 999_000_000, time.Local), r.End)
	assert.Equal(t, 3, r.WeekNumber)
	assert.Equal(t, "January", r.MonthName)
	assert.Equal(t, 2025, r.Year)
	require.Len(t, r.WeekDates, 7)
	assert.Equal(t, "2025-01-13", datemath.DateKey(r.WeekDates[0]))
	assert.Equal(t, "2025-01-13", r.StartKey())
	assert.Equal(t, "2025-01-19", r.EndKey())
}

func TestResolveAllViewsBracketAnchor(t *testing.T) {
	anchor := time.Date(2024, time.February, 29, 18, 45, 0, 0, time.UTC)
	tests := []struct {
		view      model.ViewMode
		wantStart string
		wantEnd   string
		wantDays  int
	}{
		{model.ViewDay, "2024-02-29", "2024-02-29", 1},
		{model.ViewWeek, "2024-02-26", "2024-03-03", 7},
		{model.ViewMonth, "2024-02-01", "2024-02-29", 29},
		{model.ViewYear, "2024-01-01", "2024-12-31", 366},
	}
	for _, tc := range tests {
		t.Run(string(tc.view), func(t *testing.T) {
			r := Resolve(tc.view, anchor)
			assert.Equal(t, tc.view, r.View)
			assert.Equal(t, tc.wantStart, r.StartKey())
			assert.Equal(t, tc.wantEnd, r.EndKey())
			assert.True(t, r.Contains(anchor))
			assert.Len(t, r.Days(), tc.wantDays)
		})
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	anchor := time.Date(2025, time.March, 30, 1, 30, 0, 0, time.UTC)
	for _, v := range []model.ViewMode{model.ViewDay, model.ViewWeek, model.ViewMonth, model.ViewYear} {
		assert.Equal(t, Resolve(v, anchor), Resolve(v, anchor))
	}
}

func TestResolveZeroAnchorIsInvalid(t *testing.T) {
	r := Resolve(model.ViewMonth, time.Time{})
	assert.False(t, r.Valid())
	assert.Nil(t, r.Days())
}

func TestResolveUnknownViewFallsBackToWeek(t *testing.T) {
	r := Resolve(model.ViewMode("fortnight"), time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, model.ViewWeek, r.View)
	assert.Equal(t, "2025-01-13", r.StartKey())
}

func TestTitles(t *testing.T) {
	anchor := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "15. January 2025", Title(model.ViewDay, anchor))
	assert.Equal(t, "January 2025", Title(model.ViewWeek, anchor))
	assert.Equal(t, "2025", Title(model.ViewYear, anchor))
	assert.Equal(t, "Wednesday", Subtitle(model.ViewDay, anchor))
	assert.Equal(t, "Week 3", Subtitle(model.ViewWeek, anchor))
	assert.Empty(t, Subtitle(model.ViewMonth, anchor))
}

func TestMonthGrid(t *testing.T) {
	grid := MonthGrid(time.Date(2025, time.February, 14, 0, 0, 0, 0, time.UTC))

	require.Len(t, grid, 6)
	assert.Equal(t, "2025-01-27", datemath.DateKey(grid[0][0]))
	assert.Equal(t, "2025-03-09", datemath.DateKey(grid[5][6]))
	for _, week := range grid {
		assert.Equal(t, time.Monday, week[0].Weekday())
	}
}
