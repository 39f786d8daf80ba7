package viewstate

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingcal/internal/events"
	"trainingcal/internal/model"
)

var fixedNow = time.Date(2025, 1, 15, 14, 30, 0, 0, time.UTC)

func newController(t *testing.T, query string, fetcher Fetcher) (*Controller, *QueryStore) {
	t.Helper()
	values, err := url.ParseQuery(query)
	require.NoError(t, err)
	store := NewQueryStore(values)
	c := New(store, Options{
		Now:      func() time.Time { return fixedNow },
		Location: time.UTC,
		Fetcher:  fetcher,
	})
	return c, store
}

func TestInitialStateFromQuery(t *testing.T) {
	c, _ := newController(t, "view=month&date=2025-03-10", nil)
	assert.Equal(t, model.ViewMonth, c.View())
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), c.Anchor())
}

func TestInitialStateDefaults(t *testing.T) {
	tests := []struct {
		name, query string
	}{
		{"empty", ""},
		{"unknown view and bad date", "view=fortnight&date=2025-13-45"},
		{"garbage date", "date=yesterday"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newController(t, tc.query, nil)
			assert.Equal(t, model.ViewWeek, c.View())
			assert.Equal(t, "2025-01-15", c.State().Date)
		})
	}
}

func TestGoToNextMonthFromJan31LandsInFebruary(t *testing.T) {
	c, store := newController(t, "view=month&date=2025-01-31", nil)

	require.NoError(t, c.GoToNext())

	assert.Equal(t, time.February, c.Anchor().Month())
	assert.Equal(t, 2025, c.Anchor().Year())
	assert.Equal(t, "date=2025-02-28&view=month", store.Encode())
}

func TestStepsPerView(t *testing.T) {
	tests := []struct {
		view       model.ViewMode
		next, prev string
	}{
		{model.ViewDay, "2025-01-16", "2025-01-14"},
		{model.ViewWeek, "2025-01-22", "2025-01-08"},
		{model.ViewMonth, "2025-02-15", "2024-12-15"},
		{model.ViewYear, "2026-01-15", "2024-01-15"},
	}
	for _, tc := range tests {
		t.Run(string(tc.view), func(t *testing.T) {
			c, _ := newController(t, "view="+string(tc.view)+"&date=2025-01-15", nil)
			require.NoError(t, c.GoToNext())
			assert.Equal(t, tc.next, c.State().Date)
			require.NoError(t, c.GoToPrev())
			require.NoError(t, c.GoToPrev())
			assert.Equal(t, tc.prev, c.State().Date)
		})
	}
}

func TestLeapYearStep(t *testing.T) {
	c, _ := newController(t, "view=year&date=2024-02-29", nil)
	require.NoError(t, c.GoToNext())
	assert.Equal(t, "2025-02-28", c.State().Date)
}

func TestEveryTransitionWritesThrough(t *testing.T) {
	c, store := newController(t, "view=week&date=2025-01-15&tab=calendar", nil)

	steps := []func() error{
		func() error { return c.SetView(model.ViewDay) },
		func() error { return c.SetDate(time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)) },
		c.GoToNext,
		c.GoToPrev,
		c.GoToToday,
		func() error { return c.GoToMonth(time.October) },
		func() error { return c.SetView("bogus") },
	}
	for i, s := range steps {
		require.NoError(t, s(), "step %d", i)
		loaded, err := store.Load()
		require.NoError(t, err)
		assert.Equal(t, c.State(), loaded, "step %d", i)
	}

	assert.Equal(t, model.ViewWeek, c.View())
	assert.Equal(t, "2025-10-01", c.State().Date)
	assert.Contains(t, store.Encode(), "tab=calendar")
}

// flakyStore wraps a QueryStore and fails writes while broken is set.
type flakyStore struct {
	*QueryStore
	broken bool
}

func (f *flakyStore) Replace(st model.NavigationState) error {
	if f.broken {
		return errors.New("disk full")
	}
	return f.QueryStore.Replace(st)
}

func TestFailedWriteKeepsMemoryAndStoreEqual(t *testing.T) {
	values, err := url.ParseQuery("view=week&date=2025-01-15")
	require.NoError(t, err)
	store := &flakyStore{QueryStore: NewQueryStore(values)}
	c := New(store, Options{Now: func() time.Time { return fixedNow }, Location: time.UTC})

	store.broken = true
	assert.EqualError(t, c.GoToNext(), "write navigation state: disk full")
	assert.Error(t, c.SetView(model.ViewMonth))

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, stored, c.State())
	assert.Equal(t, model.NavigationState{View: model.ViewWeek, Date: "2025-01-15"}, c.State())

	store.broken = false
	require.NoError(t, c.GoToNext())
	stored, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, model.NavigationState{View: model.ViewWeek, Date: "2025-01-22"}, stored)
	assert.Equal(t, stored, c.State())
}

func TestSetDateRejectsZero(t *testing.T) {
	c, _ := newController(t, "date=2025-01-15", nil)
	assert.ErrorIs(t, c.SetDate(time.Time{}), ErrInvalidAnchor)
	assert.Equal(t, "2025-01-15", c.State().Date)
}

func TestGoToMonthKeepsYear(t *testing.T) {
	c, _ := newController(t, "view=day&date=2024-11-20", nil)
	require.NoError(t, c.GoToMonth(time.March))
	assert.Equal(t, model.NavigationState{View: model.ViewMonth, Date: "2024-03-01"}, c.State())
	assert.ErrorIs(t, c.GoToMonth(13), ErrInvalidMonth)
}

func TestApply(t *testing.T) {
	c, _ := newController(t, "view=week&date=2025-01-15", nil)

	require.NoError(t, c.Apply("view", "day"))
	require.NoError(t, c.Apply("next", ""))
	assert.Equal(t, "2025-01-16", c.State().Date)
	require.NoError(t, c.Apply("date", "2025-07-04"))
	require.NoError(t, c.Apply("month", "2"))
	assert.Equal(t, model.NavigationState{View: model.ViewMonth, Date: "2025-02-01"}, c.State())
	require.NoError(t, c.Apply("today", ""))
	assert.Equal(t, "2025-01-15", c.State().Date)

	assert.ErrorIs(t, c.Apply("date", "soon"), ErrInvalidAnchor)
	assert.ErrorIs(t, c.Apply("jump", ""), ErrUnknownAction)
	assert.ErrorIs(t, c.Apply("month", "may"), ErrInvalidMonth)
}

func TestRangeFollowsState(t *testing.T) {
	c, _ := newController(t, "view=week&date=2025-01-15", nil)
	r := c.Range()
	assert.Equal(t, "2025-01-13", r.StartKey())
	assert.Equal(t, "2025-01-19", r.EndKey())
	assert.Equal(t, 3, r.WeekNumber)
}

// gatedFetcher blocks each Fetch until the test releases it.
type gatedFetcher struct {
	started chan time.Time
	release chan events.Result
}

func (g *gatedFetcher) Fetch(ctx context.Context, start, end time.Time) events.Result {
	g.started <- start
	return <-g.release
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	g := &gatedFetcher{started: make(chan time.Time), release: make(chan events.Result)}
	c, _ := newController(t, "view=week&date=2025-01-15", g)

	first := events.Result{Events: []model.CalendarEvent{{ID: "week3"}}}
	go func() {
		<-g.started
		g.release <- first
	}()
	_, err := c.Refresh(context.Background())
	require.NoError(t, err)

	type refreshOut struct {
		res events.Result
		err error
	}
	done := make(chan refreshOut, 1)
	go func() {
		res, err := c.Refresh(context.Background())
		done <- refreshOut{res, err}
	}()

	<-g.started
	// Navigate while the week-4 fetch is still in flight.
	require.NoError(t, c.GoToNext())
	g.release <- events.Result{Events: []model.CalendarEvent{{ID: "late"}}}

	out := <-done
	assert.ErrorIs(t, out.err, ErrStaleResponse)

	loaded, rng, ok := c.Loaded()
	require.True(t, ok)
	assert.Equal(t, first, loaded)
	assert.Equal(t, "2025-01-13", rng.StartKey())
}

func TestRefreshLatestRequestWins(t *testing.T) {
	g := &gatedFetcher{started: make(chan time.Time, 2), release: make(chan events.Result)}
	c, _ := newController(t, "view=week&date=2025-01-15", g)

	errs := make(chan error, 2)
	go func() {
		_, err := c.Refresh(context.Background())
		errs <- err
	}()
	<-g.started
	go func() {
		_, err := c.Refresh(context.Background())
		errs <- err
	}()
	<-g.started

	g.release <- events.Result{Events: []model.CalendarEvent{{ID: "one"}}}
	g.release <- events.Result{Events: []model.CalendarEvent{{ID: "two"}}}

	var stale, ok int
	for i := 0; i < 2; i++ {
		if err := <-errs; errors.Is(err, ErrStaleResponse) {
			stale++
		} else if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, stale)
	assert.Equal(t, 1, ok)
}

func TestRefreshWithoutFetcher(t *testing.T) {
	c, _ := newController(t, "", nil)
	_, err := c.Refresh(context.Background())
	assert.ErrorIs(t, err, events.ErrNoService)
}

func TestAfterMutationRefetches(t *testing.T) {
	calls := 0
	f := fetcherFunc(func(ctx context.Context, start, end time.Time) events.Result {
		calls++
		return events.Result{IsSeedData: true}
	})
	c, _ := newController(t, "", f)

	_, err := c.AfterMutation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type fetcherFunc func(ctx context.Context, start, end time.Time) events.Result

func (f fetcherFunc) Fetch(ctx context.Context, start, end time.Time) events.Result {
	return f(ctx, start, end)
}
