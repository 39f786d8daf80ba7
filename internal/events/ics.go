package events

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/sourcegraph/conc/pool"

	"trainingcal/internal/datemath"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
)

// Feed is one subscribed ICS calendar.
type Feed struct {
	ID   string
	Name string
	URL  string
}

// FeedOptions configures a FeedService.
type FeedOptions struct {
	CacheDir string
	Timeout  time.Duration
	Location *time.Location
	// Workers bounds concurrent feed downloads. Zero means 4.
	Workers int
}

// FeedService reads subscribed ICS feeds and exposes their events with
// status external. Only the base instance of a recurring event is used.
type FeedService struct {
	feeds   []Feed
	client  *http.Client
	cache   *feedCache
	loc     *time.Location
	workers int
}

func NewFeedService(feeds []Feed, opts FeedOptions) *FeedService {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	return &FeedService{
		feeds:   feeds,
		client:  &http.Client{Timeout: timeout},
		cache:   newFeedCache(opts.CacheDir),
		loc:     loc,
		workers: workers,
	}
}

type feedOutcome struct {
	feed   Feed
	events []model.CalendarEvent
	err    error
}

// Events implements Service. A failing feed is logged and skipped; the call
// only fails when every feed failed.
func (s *FeedService) Events(ctx context.Context, start, end time.Time) ([]model.CalendarEvent, error) {
	if len(s.feeds) == 0 {
		return nil, nil
	}

	p := pool.NewWithResults[feedOutcome]().WithMaxGoroutines(s.workers)
	for _, feed := range s.feeds {
		feed := feed
		p.Go(func() feedOutcome {
			body, err := s.fetch(ctx, feed)
			if err != nil {
				return feedOutcome{feed: feed, err: err}
			}
			evs, err := ParseFeed(feed, body, s.loc)
			return feedOutcome{feed: feed, events: evs, err: err}
		})
	}

	var (
		out  []model.CalendarEvent
		errs []error
	)
	for _, res := range p.Wait() {
		if res.err != nil {
			appLog.Error("ics feed failed", res.err, "id", res.feed.ID, "url", redactURL(res.feed.URL))
			errs = append(errs, fmt.Errorf("feed %s: %w", res.feed.ID, res.err))
			continue
		}
		out = append(out, res.events...)
	}
	if len(errs) == len(s.feeds) {
		return nil, errors.Join(errs...)
	}

	out = inRange(out, start, end)
	sortEvents(out)
	return out, nil
}

// fetch downloads a feed honouring ETag/Last-Modified. On network errors
// or non-OK statuses the last cached body is reused when there is one.
func (s *FeedService) fetch(ctx context.Context, feed Feed) ([]byte, error) {
	if feed.URL == "" {
		return nil, errors.New("feed URL is empty")
	}

	meta, cached := s.cache.load(feed.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("ics fetch start", "id", feed.ID, "url", redactURL(feed.URL))

	resp, err := s.client.Do(req)
	if err != nil {
		if len(cached) > 0 {
			appLog.Warn("ics fetch network error, using cached body", "id", feed.ID, "url", redactURL(feed.URL), "err", err)
			return cached, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		fresh := feedMeta{
			URL:          feed.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := s.cache.save(fresh, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", feed.ID, "url", redactURL(feed.URL))
		}
		appLog.Info("ics fetch success", "id", feed.ID, "url", redactURL(feed.URL), "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return nil, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("ics not modified, using cache", "id", feed.ID)
		return cached, nil

	default:
		if len(cached) > 0 {
			appLog.Warn("ics fetch non-OK, using cached body", "id", feed.ID, "url", redactURL(feed.URL), "status", resp.StatusCode)
			return cached, nil
		}
		return nil, errors.New(resp.Status)
	}
}

// ParseFeed turns an ICS payload into external events in loc. Multi-day
// all-day events produce one event per day; timed events crossing midnight
// are cut at 24:00.
func ParseFeed(feed Feed, body []byte, loc *time.Location) ([]model.CalendarEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	var out []model.CalendarEvent
	for _, ve := range cal.Events() {
		evs, err := fromVEvent(feed, ve, loc)
		if err != nil {
			appLog.Debug("ics vevent skipped", "id", feed.ID, "reason", err.Error())
			continue
		}
		out = append(out, evs...)
	}

	appLog.Debug("ics parse completed", "id", feed.ID, "event_count", len(out))
	return out, nil
}

func fromVEvent(feed Feed, ve *ical.VEvent, loc *time.Location) ([]model.CalendarEvent, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, errors.New("missing UID")
	}
	if strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), "CANCELLED") {
		return nil, errors.New("cancelled")
	}
	if propValue(ve, ical.ComponentPropertyRrule) != "" {
		appLog.Debug("ics rrule ignored, using base instance", "id", feed.ID, "uid", uid)
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}

	base := model.CalendarEvent{
		Title:    propValue(ve, ical.ComponentPropertySummary),
		Location: propValue(ve, ical.ComponentPropertyLocation),
		Status:   model.StatusExternal,
		Category: model.ParseCategory(propValue(ve, ical.ComponentPropertyCategories)),
	}
	idPrefix := "ics-" + feed.ID + "-" + uid

	if isAllDay(ve) {
		// DATE values carry no zone; keep their calendar fields.
		first := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
		if last.After(first) {
			last = datemath.AddDays(last, -1) // DTEND is exclusive
		}
		var out []model.CalendarEvent
		for d := first; !d.After(last); d = datemath.AddDays(d, 1) {
			ev := base
			ev.ID = idPrefix + "-" + datemath.DateKey(d)
			ev.Date = datemath.DateKey(d)
			ev.IsAllDay = true
			out = append(out, ev)
		}
		return out, nil
	}

	start, end = start.In(loc), end.In(loc)
	ev := base
	ev.ID = idPrefix
	ev.Date = datemath.DateKey(start)
	startMin := start.Hour()*60 + start.Minute()
	endMin := endOfDayMinutes
	if datemath.SameDay(start, end) {
		endMin = end.Hour()*60 + end.Minute()
	}
	if endMin <= startMin {
		endMin = startMin + defaultDurationMinutes
		if endMin > endOfDayMinutes {
			endMin = endOfDayMinutes
		}
	}
	ev.Start = model.FormatClock(startMin)
	ev.End = model.FormatClock(endMin)
	return []model.CalendarEvent{ev}, nil
}

// isAllDay reports VALUE=DATE or a DTSTART without a time part.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

// sortEvents orders by date, then start time, then id.
func sortEvents(evs []model.CalendarEvent) {
	sort.SliceStable(evs, func(i, j int) bool {
		a, b := evs[i], evs[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartMinutes() != b.StartMinutes() {
			return a.StartMinutes() < b.StartMinutes()
		}
		return a.ID < b.ID
	})
}

// redactURL keeps only scheme and host of a feed URL for logging; private
// calendar URLs usually carry a token in the path or query.
func redactURL(u string) string {
	const redacted = "/...(redacted)"
	i := strings.Index(u, "://")
	if i < 0 {
		return "ics://...(redacted)"
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + redacted
}
