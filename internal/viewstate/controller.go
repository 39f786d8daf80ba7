// Package viewstate owns the (view, anchor) pair behind the calendar and
// keeps it in step with an addressable store.
//
// Navigation is synchronous and always writes through to the store. Fetching
// events for the resolved range is the only blocking step; responses that
// belong to an older request are discarded so a slow fetch can never paint
// over a newer range.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"trainingcal/internal/datemath"
	"trainingcal/internal/events"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
	"trainingcal/internal/viewrange"
)

var (
	// ErrStaleResponse is returned by Refresh when navigation moved on while
	// the fetch was in flight. The response was not applied.
	ErrStaleResponse = errors.New("viewstate: stale fetch response discarded")
	// ErrInvalidAnchor is returned for a zero anchor date.
	ErrInvalidAnchor = errors.New("viewstate: invalid anchor date")
	// ErrUnknownAction is returned by Apply for an unrecognised action.
	ErrUnknownAction = errors.New("viewstate: unknown navigation action")
	// ErrInvalidMonth is returned for a month outside 1-12.
	ErrInvalidMonth = errors.New("viewstate: invalid month")
)

// Fetcher loads the events of a range. *events.Source satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, start, end time.Time) events.Result
}

// Options configures a Controller.
type Options struct {
	// Now is the clock; nil means time.Now.
	Now func() time.Time
	// Location is the display timezone; nil means time.Local.
	Location *time.Location
	// Fetcher loads events on Refresh. It may be nil for pure navigation.
	Fetcher Fetcher
}

// Controller is the navigable calendar state.
type Controller struct {
	mu     sync.Mutex
	store  Store
	now    func() time.Time
	loc    *time.Location
	source Fetcher

	view   model.ViewMode
	anchor time.Time

	// seq identifies the latest navigation or fetch request.
	seq       uint64
	loaded    events.Result
	loadedFor viewrange.Range
	hasLoaded bool
}

// New builds a Controller from whatever the store holds. A missing or
// unknown view becomes week; a missing or unparseable date becomes today.
func New(store Store, opts Options) *Controller {
	c := &Controller{
		store:  store,
		now:    opts.Now,
		loc:    opts.Location,
		source: opts.Fetcher,
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.loc == nil {
		c.loc = time.Local
	}

	st, err := store.Load()
	if err != nil {
		appLog.Warn("viewstate: store load failed, using defaults", "err", err)
	}
	c.view, c.anchor = c.parse(st)
	return c
}

func (c *Controller) parse(st model.NavigationState) (model.ViewMode, time.Time) {
	view, _ := model.ParseViewMode(string(st.View))
	anchor, err := datemath.ParseDateKey(st.Date, c.loc)
	if err != nil {
		anchor = datemath.StartOfDay(c.now().In(c.loc))
	}
	return view, anchor
}

// State is the store projection of the current state.
func (c *Controller) State() model.NavigationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() model.NavigationState {
	return model.NavigationState{View: c.view, Date: datemath.DateKey(c.anchor)}
}

func (c *Controller) View() model.ViewMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Anchor() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchor
}

// Range resolves the current (view, anchor).
func (c *Controller) Range() viewrange.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return viewrange.Resolve(c.view, c.anchor)
}

// SetView changes the view and keeps the anchor. Unknown views become week.
func (c *Controller) SetView(v model.ViewMode) error {
	if !v.Valid() {
		v = model.DefaultView
	}
	return c.transition(func() { c.view = v })
}

// SetDate moves the anchor and keeps the view.
func (c *Controller) SetDate(d time.Time) error {
	if d.IsZero() {
		return ErrInvalidAnchor
	}
	return c.transition(func() { c.anchor = datemath.StartOfDay(d.In(c.loc)) })
}

// GoToToday moves the anchor to the current day.
func (c *Controller) GoToToday() error {
	return c.transition(func() { c.anchor = datemath.StartOfDay(c.now().In(c.loc)) })
}

// GoToNext steps one view unit forward.
func (c *Controller) GoToNext() error {
	return c.transition(func() { c.anchor = step(c.view, c.anchor, 1) })
}

// GoToPrev steps one view unit back.
func (c *Controller) GoToPrev() error {
	return c.transition(func() { c.anchor = step(c.view, c.anchor, -1) })
}

// GoToMonth switches to the month view on the first of m in the anchor's
// year.
func (c *Controller) GoToMonth(m time.Month) error {
	if m < time.January || m > time.December {
		return fmt.Errorf("%w: %d", ErrInvalidMonth, m)
	}
	return c.transition(func() {
		c.view = model.ViewMonth
		c.anchor = time.Date(c.anchor.Year(), m, 1, 0, 0, 0, 0, c.loc)
	})
}

// step moves d by n view units. Month and year steps clamp the day of
// month, so Jan 31 + 1 month is Feb 28/29.
func step(view model.ViewMode, d time.Time, n int) time.Time {
	switch view {
	case model.ViewDay:
		return datemath.AddDays(d, n)
	case model.ViewMonth:
		return datemath.AddMonths(d, n)
	case model.ViewYear:
		return datemath.AddYears(d, n)
	default:
		return datemath.AddDays(d, 7*n)
	}
}

// transition applies mutate and writes the result to the store under the
// same lock, so store writes happen in navigation order. A failed write
// rolls the in-memory state back; memory and store stay equal.
func (c *Controller) transition(mutate func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prevView, prevAnchor, prevSeq := c.view, c.anchor, c.seq
	mutate()
	c.seq++ // any in-flight fetch now belongs to an old range
	st := c.stateLocked()

	if err := c.store.Replace(st); err != nil {
		c.view, c.anchor, c.seq = prevView, prevAnchor, prevSeq
		appLog.Error("viewstate: store write failed", err, "view", st.View, "date", st.Date)
		return fmt.Errorf("write navigation state: %w", err)
	}
	return nil
}

// Apply runs a named navigation action, as used by query-string and CLI
// front ends. value is the argument for view, date and month.
func (c *Controller) Apply(action, value string) error {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "next":
		return c.GoToNext()
	case "prev", "previous":
		return c.GoToPrev()
	case "today":
		return c.GoToToday()
	case "view":
		v, _ := model.ParseViewMode(value)
		return c.SetView(v)
	case "date":
		d, err := datemath.ParseDateKey(value, c.loc)
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidAnchor, value)
		}
		return c.SetDate(d)
	case "month":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMonth, value)
		}
		return c.GoToMonth(time.Month(n))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Refresh fetches events for the current range. If navigation happened
// while the fetch was in flight the result is dropped and ErrStaleResponse
// returned; the previously loaded events stay current.
func (c *Controller) Refresh(ctx context.Context) (events.Result, error) {
	if c.source == nil {
		return events.Result{}, events.ErrNoService
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	rng := viewrange.Resolve(c.view, c.anchor)
	c.mu.Unlock()

	res := c.source.Fetch(ctx, rng.Start, rng.End)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq {
		appLog.Debug("viewstate: discarding stale response", "seq", seq, "latest", c.seq, "range", rng.StartKey()+".."+rng.EndKey())
		return events.Result{}, ErrStaleResponse
	}
	c.loaded, c.loadedFor, c.hasLoaded = res, rng, true
	return res, nil
}

// AfterMutation re-fetches the current range once the event service has
// accepted a change. Nothing is patched locally.
func (c *Controller) AfterMutation(ctx context.Context) (events.Result, error) {
	return c.Refresh(ctx)
}

// Loaded returns the last applied fetch result and the range it belongs to.
// While a newer range is loading this is still the previous range's data.
func (c *Controller) Loaded() (events.Result, viewrange.Range, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded, c.loadedFor, c.hasLoaded
}
