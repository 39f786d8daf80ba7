package events

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"

	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
)

// MultiService merges several services, e.g. the training service plus
// subscribed ICS feeds. When some members fail the merged events of the
// others come back together with a *PartialError.
type MultiService []Service

// PartialError reports the members that failed while others answered.
type PartialError struct {
	Failed int
	Total  int
	Err    error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("events: %d of %d sources failed: %v", e.Failed, e.Total, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

type memberResult struct {
	events []model.CalendarEvent
	err    error
}

func (m MultiService) Events(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	switch len(m) {
	case 0:
		return nil, ErrNoService
	case 1:
		return m[0].Events(ctx, start, end)
	}

	p := pool.NewWithResults[memberResult]()
	for _, svc := range m {
		svc := svc
		p.Go(func() memberResult {
			evs, err := svc.Events(ctx, start, end)
			return memberResult{events: evs, err: err}
		})
	}

	var (
		out  []model.CalendarEvent
		errs []error
	)
	for i, res := range p.Wait() {
		if res.err != nil {
			appLog.Warn("events: source failed", "member", i, "err", res.err)
			errs = append(errs, res.err)
			continue
		}
		out = append(out, res.events...)
	}
	if len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}

	sortEvents(out)
	out = dedupeIDs(out)
	if len(errs) > 0 {
		return out, &PartialError{Failed: len(errs), Total: len(m), Err: errors.Join(errs...)}
	}
	return out, nil
}

// dedupeIDs keeps ids unique across members by suffixing repeats.
func dedupeIDs(evs []model.CalendarEvent) []model.CalendarEvent {
	seen := make(map[string]int, len(evs))
	for i := range evs {
		id := evs[i].ID
		seen[id]++
		if n := seen[id]; n > 1 {
			evs[i].ID = id + "-" + strconv.Itoa(n)
		}
	}
	return evs
}
