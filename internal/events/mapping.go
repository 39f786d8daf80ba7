package events

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"trainingcal/internal/datemath"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
)

// RawEvent is the wire shape returned by the event-fetch service. StartTime
// and EndTime are either "HH:MM" (with Date carrying the day) or full
// RFC 3339 timestamps.
type RawEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	SessionType string `json:"sessionType"`
	Status      string `json:"status"`
	Location    string `json:"location"`
}

// defaultDurationMinutes is used when the service sends no usable end time.
const defaultDurationMinutes = 60

const endOfDayMinutes = 24 * 60

// MapEvents converts a service batch into CalendarEvents in loc. Entries
// MapEvent rejects are dropped; ids are made unique within the batch.
func MapEvents(raw []RawEvent, loc *time.Location) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(raw))
	for _, r := range raw {
		ev, ok := MapEvent(r, loc)
		if !ok {
			appLog.Debug("events: dropping unusable entry", "id", r.ID, "title", r.Title)
			continue
		}
		out = append(out, ev)
	}
	return dedupeIDs(out)
}

// MapEvent converts one wire event. Unknown statuses become planned and
// unknown categories are left empty. An event with no start time is treated
// as all-day; a missing or non-positive end is replaced by start + 60 min.
// Entries with no usable date, or starting at 24:00, are rejected.
func MapEvent(r RawEvent, loc *time.Location) (model.CalendarEvent, bool) {
	if loc == nil {
		loc = time.Local
	}

	date, startMin, hasStart := parseWhen(r.Date, r.StartTime, loc)
	if date == "" {
		return model.CalendarEvent{}, false
	}
	if hasStart && startMin >= endOfDayMinutes {
		appLog.Debug("events: start at end of day, dropping", "id", r.ID, "date", date, "start", r.StartTime)
		return model.CalendarEvent{}, false
	}
	_, endMin, hasEnd := parseWhen(date, r.EndTime, loc)

	category := r.Type
	if category == "" {
		category = r.SessionType
	}

	ev := model.CalendarEvent{
		ID:       strings.TrimSpace(r.ID),
		Title:    strings.TrimSpace(r.Title),
		Date:     date,
		Status:   model.ParseStatus(r.Status),
		Category: model.ParseCategory(category),
		Location: strings.TrimSpace(r.Location),
	}

	if !hasStart {
		ev.IsAllDay = true
	} else {
		if !hasEnd || endMin <= startMin {
			endMin = startMin + defaultDurationMinutes
		}
		if endMin > endOfDayMinutes {
			endMin = endOfDayMinutes
		}
		ev.Start = model.FormatClock(startMin)
		ev.End = model.FormatClock(endMin)
	}

	if ev.ID == "" {
		ev.ID = fallbackID(ev)
	}
	return ev, true
}

// fallbackID derives a stable id from the event's content so re-fetches of
// the same upstream entry keep their identity.
func fallbackID(ev model.CalendarEvent) string {
	name := ev.Date + "|" + ev.Start + "|" + ev.End + "|" + ev.Title
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// parseWhen resolves a (date, time) pair into a date key and minutes after
// midnight. value may be "HH:MM", an RFC 3339 timestamp or empty.
func parseWhen(dateKey, value string, loc *time.Location) (string, int, bool) {
	value = strings.TrimSpace(value)
	dateKey = strings.TrimSpace(dateKey)
	if len(dateKey) > len(datemath.DateKeyLayout) {
		// Some endpoints send the date as a full timestamp.
		if t, err := time.Parse(time.RFC3339, dateKey); err == nil {
			dateKey = datemath.DateKey(t.In(loc))
		}
	}
	if _, err := datemath.ParseDateKey(dateKey, loc); err != nil {
		dateKey = ""
	}

	if value == "" {
		return dateKey, 0, false
	}
	if m, ok := model.ParseClock(value); ok {
		return dateKey, m, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		local := t.In(loc)
		if dateKey == "" {
			dateKey = datemath.DateKey(local)
		}
		return dateKey, local.Hour()*60 + local.Minute(), true
	}
	return dateKey, 0, false
}
