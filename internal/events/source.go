package events

import (
	"context"
	"errors"
	"time"

	"trainingcal/internal/datemath"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
	"trainingcal/internal/seed"
)

// Result is what a Source hands to the view for one range.
type Result struct {
	Events []model.CalendarEvent `json:"events"`
	// IsSeedData is true when Events came from the seed generator.
	IsSeedData bool `json:"isSeedData"`
	// FetchErr is the non-fatal fetch failure behind a seed fallback, or the
	// failed members of a partially answered merge.
	FetchErr error `json:"-"`
}

// Warning is the user-facing note for a seed fallback, or "" when the
// events are real.
func (r Result) Warning() string {
	switch {
	case r.FetchErr != nil && r.IsSeedData:
		return "Could not load your calendar. Showing a sample schedule."
	case r.FetchErr != nil:
		return "Some calendars could not be loaded. Showing the sessions that were."
	case r.IsSeedData:
		return "No sessions scheduled yet. Showing a sample schedule."
	default:
		return ""
	}
}

// SourceOptions configures a Source.
type SourceOptions struct {
	// DevMode marks a development deployment. Real events win whenever the
	// service returns any; seed data still fills an empty result.
	DevMode bool
	// Generate overrides the seed generator; nil uses seed.Generate.
	Generate func(start, end time.Time) []model.CalendarEvent
}

// Source applies the seed substitution policy on top of a Service.
type Source struct {
	svc      Service
	devMode  bool
	generate func(start, end time.Time) []model.CalendarEvent
}

// NewSource wraps svc. A nil svc always yields seed data.
func NewSource(svc Service, opts SourceOptions) *Source {
	gen := opts.Generate
	if gen == nil {
		gen = seed.Generate
	}
	return &Source{svc: svc, devMode: opts.DevMode, generate: gen}
}

// DevMode reports the development flag the Source was built with.
func (s *Source) DevMode() bool { return s.devMode }

// Fetch returns the events for [start, end]:
//   - fetch failure: seed data, with the failure in FetchErr
//   - partial failure of a merge: the events that arrived, with the
//     failure in FetchErr (seed data if none are in range)
//   - empty success: seed data
//   - otherwise the real events
//
// It never returns an error of its own.
func (s *Source) Fetch(ctx context.Context, start, end time.Time) Result {
	rangeLog := []any{"start", datemath.DateKey(start), "end", datemath.DateKey(end), "dev_mode", s.devMode}

	if s.svc == nil {
		appLog.Debug("events: no service, using seed data", rangeLog...)
		return s.seedResult(start, end, nil)
	}

	fetched, err := s.svc.Events(ctx, start, end)
	var partial *PartialError
	if errors.As(err, &partial) {
		appLog.Warn("events: some sources failed", append(rangeLog, "err", err)...)
		if fetched = inRange(fetched, start, end); len(fetched) == 0 {
			return s.seedResult(start, end, err)
		}
		return Result{Events: fetched, FetchErr: err}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			appLog.Debug("events: fetch canceled", rangeLog...)
		} else {
			appLog.Warn("events: fetch failed, using seed data", append(rangeLog, "err", err)...)
		}
		return s.seedResult(start, end, err)
	}

	fetched = inRange(fetched, start, end)
	if len(fetched) == 0 {
		appLog.Info("events: empty result, using seed data", rangeLog...)
		return s.seedResult(start, end, nil)
	}

	return Result{Events: fetched}
}

func (s *Source) seedResult(start, end time.Time, fetchErr error) Result {
	return Result{
		Events:     s.generate(start, end),
		IsSeedData: true,
		FetchErr:   fetchErr,
	}
}

// inRange drops events whose date key lies outside [start, end]. Services
// may return a little extra around the edges.
func inRange(evs []model.CalendarEvent, start, end time.Time) []model.CalendarEvent {
	lo, hi := datemath.DateKey(start), datemath.DateKey(end)
	out := evs[:0:0]
	for _, ev := range evs {
		if ev.Date >= lo && ev.Date <= hi {
			out = append(out, ev)
		}
	}
	return out
}
