package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingcal/internal/model"
	"trainingcal/internal/seed"
)

var (
	weekStart = time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	weekEnd   = time.Date(2025, 1, 19, 23, 59, 59, int(999*time.Millisecond), time.UTC)
)

func staticService(evs []model.CalendarEvent, err error) Service {
	return ServiceFunc(func(context.Context, time.Time, time.Time) ([]model.CalendarEvent, error) {
		return evs, err
	})
}

func TestSourceFetchErrorFallsBackToSeed(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	src := NewSource(staticService(nil, boom), SourceOptions{})

	res := src.Fetch(context.Background(), weekStart, weekEnd)

	assert.True(t, res.IsSeedData)
	assert.Equal(t, seed.Generate(weekStart, weekEnd), res.Events)
	assert.ErrorIs(t, res.FetchErr, boom)
	assert.NotEmpty(t, res.Warning())
}

func TestSourceReportsFailedMember(t *testing.T) {
	restDown := staticService(nil, errors.New("event service: 503 Service Unavailable"))
	feed := staticService([]model.CalendarEvent{
		{ID: "ics-club-1", Date: "2025-01-15", Start: "18:00", End: "19:00", Status: model.StatusExternal},
	}, nil)
	src := NewSource(MultiService{restDown, feed}, SourceOptions{})

	res := src.Fetch(context.Background(), weekStart, weekEnd)

	assert.False(t, res.IsSeedData)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "ics-club-1", res.Events[0].ID)
	require.Error(t, res.FetchErr)
	assert.Contains(t, res.FetchErr.Error(), "503")
	assert.Equal(t, "Some calendars could not be loaded. Showing the sessions that were.", res.Warning())
}

func TestSourceFailedMemberAndNothingInRangeUsesSeed(t *testing.T) {
	restDown := staticService(nil, errors.New("connection refused"))
	feed := staticService([]model.CalendarEvent{
		{ID: "ics-club-1", Date: "2025-02-01", Start: "18:00", End: "19:00"},
	}, nil)
	src := NewSource(MultiService{restDown, feed}, SourceOptions{})

	res := src.Fetch(context.Background(), weekStart, weekEnd)

	assert.True(t, res.IsSeedData)
	assert.Equal(t, seed.Generate(weekStart, weekEnd), res.Events)
	assert.Error(t, res.FetchErr)
	assert.Equal(t, "Could not load your calendar. Showing a sample schedule.", res.Warning())
}

func TestSourceEmptyResultUsesSeed(t *testing.T) {
	for _, dev := range []bool{false, true} {
		src := NewSource(staticService(nil, nil), SourceOptions{DevMode: dev})
		res := src.Fetch(context.Background(), weekStart, weekEnd)

		assert.True(t, res.IsSeedData, "dev=%v", dev)
		assert.NoError(t, res.FetchErr)
		assert.Equal(t, seed.Generate(weekStart, weekEnd), res.Events)
	}
}

func TestSourceRealEventsPassThrough(t *testing.T) {
	fetched := []model.CalendarEvent{
		{ID: "r1", Date: "2025-01-14", Start: "08:00", End: "09:00", Status: model.StatusPlanned},
	}
	for _, dev := range []bool{false, true} {
		src := NewSource(staticService(fetched, nil), SourceOptions{DevMode: dev})
		res := src.Fetch(context.Background(), weekStart, weekEnd)

		assert.False(t, res.IsSeedData)
		assert.Equal(t, fetched, res.Events)
		assert.Empty(t, res.Warning())
		assert.Equal(t, dev, src.DevMode())
	}
}

func TestSourceDropsEventsOutsideRange(t *testing.T) {
	src := NewSource(staticService([]model.CalendarEvent{
		{ID: "before", Date: "2025-01-12", Start: "08:00", End: "09:00"},
		{ID: "inside", Date: "2025-01-19", Start: "08:00", End: "09:00"},
		{ID: "after", Date: "2025-01-20", Start: "08:00", End: "09:00"},
	}, nil), SourceOptions{})

	res := src.Fetch(context.Background(), weekStart, weekEnd)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "inside", res.Events[0].ID)
}

func TestSourceWithoutServiceUsesSeed(t *testing.T) {
	src := NewSource(nil, SourceOptions{})
	res := src.Fetch(context.Background(), weekStart, weekEnd)
	assert.True(t, res.IsSeedData)
	assert.NoError(t, res.FetchErr)
	assert.Len(t, res.Events, 7)
}

func TestSourceCustomGenerator(t *testing.T) {
	called := false
	src := NewSource(staticService(nil, errors.New("down")), SourceOptions{
		Generate: func(start, end time.Time) []model.CalendarEvent {
			called = true
			return nil
		},
	})
	res := src.Fetch(context.Background(), weekStart, weekEnd)
	assert.True(t, called)
	assert.True(t, res.IsSeedData)
}
