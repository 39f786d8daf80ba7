package seed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingcal/internal/datemath"
	"trainingcal/internal/model"
)

func TestGenerateIsDeterministic(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := datemath.MonthEnd(start)

	a := Generate(start, end)
	b := Generate(start, end)

	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestGenerateFullWeek(t *testing.T) {
	start := time.Date(2025, time.January, 13, 0, 0, 0, 0, time.UTC)
	end := datemath.WeekEnd(start)

	events := Generate(start, end)

	require.Len(t, events, len(Template()))
	ids := make(map[string]bool)
	for _, e := range events {
		assert.False(t, ids[e.ID], "duplicate id %s", e.ID)
		ids[e.ID] = true
	}
	assert.True(t, ids["2025-w3-putting"])
	assert.True(t, ids["2025-w3-group-session"])

	byID := make(map[string]model.CalendarEvent)
	for _, e := range events {
		byID[e.ID] = e
	}
	assert.Equal(t, "2025-01-13", byID["2025-w3-group-session"].Date)
	assert.Equal(t, model.StatusCompleted, byID["2025-w3-group-session"].Status)
	assert.Equal(t, "2025-01-14", byID["2025-w3-putting"].Date)
	assert.Equal(t, model.StatusRecommended, byID["2025-w3-putting"].Status)
	assert.Equal(t, "2025-01-17", byID["2025-w3-testing"].Date)
	assert.Equal(t, model.CategoryTesting, byID["2025-w3-testing"].Category)
}

func TestGenerateStaysInsideRange(t *testing.T) {
	// Wednesday to the following Tuesday: partial weeks at both edges.
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.January, 21, 23, 59, 59, 0, time.UTC)

	events := Generate(start, end)

	require.NotEmpty(t, events)
	for _, e := range events {
		d, err := datemath.ParseDateKey(e.Date, time.UTC)
		require.NoError(t, err)
		assert.False(t, d.Before(datemath.StartOfDay(start)), "%s leaked before range", e.ID)
		assert.False(t, d.After(end), "%s leaked after range", e.ID)
	}
}

func TestGenerateIDsAcrossYearBoundary(t *testing.T) {
	start := time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)
	end := datemath.WeekEnd(start)

	events := Generate(start, end)

	require.NotEmpty(t, events)
	assert.Equal(t, "2025-w1-group-session", events[0].ID)
	assert.Equal(t, "2024-12-30", events[0].Date)
}

func TestGenerateSingleDay(t *testing.T) {
	thursday := time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)

	events := Generate(thursday, datemath.EndOfDay(thursday))

	require.Len(t, events, 2)
	assert.Equal(t, "2025-w3-short-game", events[0].ID)
	assert.Equal(t, "2025-w3-range-session", events[1].ID)
}

func TestGenerateInvalidRange(t *testing.T) {
	start := time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, Generate(start, start.Add(-time.Hour)))
	assert.Nil(t, Generate(time.Time{}, start))
}

func TestSeedEventsAreWellFormed(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range Generate(start, datemath.YearEnd(start)) {
		assert.Less(t, e.StartMinutes(), e.EndMinutes(), e.ID)
		assert.False(t, e.IsAllDay)
	}
}
