package viewstate

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainingcal/internal/model"
)

func TestQueryStoreReplaceOverwrites(t *testing.T) {
	s := NewQueryStore(url.Values{"view": {"week", "day"}, "keep": {"1"}})

	require.NoError(t, s.Replace(model.NavigationState{View: model.ViewMonth, Date: "2025-02-01"}))
	require.NoError(t, s.Replace(model.NavigationState{View: model.ViewDay, Date: "2025-02-02"}))

	assert.Equal(t, "date=2025-02-02&keep=1&view=day", s.Encode())
}

func TestQueryStoreCopiesInput(t *testing.T) {
	in := url.Values{"view": {"year"}}
	s := NewQueryStore(in)
	require.NoError(t, s.Replace(model.NavigationState{View: model.ViewDay, Date: "2025-01-01"}))
	assert.Equal(t, "year", in.Get("view"))
}

func TestDiskStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir)

	empty, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, model.NavigationState{}, empty)

	want := model.NavigationState{View: model.ViewYear, Date: "2025-05-05"}
	require.NoError(t, s.Replace(want))

	got, err := NewDiskStore(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestControllerOverDiskStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	opts := Options{Now: func() time.Time { return fixedNow }, Location: time.UTC}

	c := New(NewDiskStore(dir), opts)
	require.NoError(t, c.SetView(model.ViewDay))
	require.NoError(t, c.GoToNext())

	restarted := New(NewDiskStore(dir), opts)
	assert.Equal(t, model.NavigationState{View: model.ViewDay, Date: "2025-01-16"}, restarted.State())
}
