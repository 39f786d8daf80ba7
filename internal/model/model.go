package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ViewMode selects how an anchor date is expanded into a visible range and
// how far a next/prev step moves.
type ViewMode string

const (
	ViewDay   ViewMode = "day"
	ViewWeek  ViewMode = "week"
	ViewMonth ViewMode = "month"
	ViewYear  ViewMode = "year"
)

// DefaultView is used whenever the store holds no usable view.
const DefaultView = ViewWeek

// ParseViewMode maps a raw store value onto a ViewMode. The second return
// value is false for empty or unknown input.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(strings.ToLower(strings.TrimSpace(s))) {
	case ViewDay:
		return ViewDay, true
	case ViewWeek:
		return ViewWeek, true
	case ViewMonth:
		return ViewMonth, true
	case ViewYear:
		return ViewYear, true
	default:
		return DefaultView, false
	}
}

// Valid reports whether v is one of the four known views.
func (v ViewMode) Valid() bool {
	switch v {
	case ViewDay, ViewWeek, ViewMonth, ViewYear:
		return true
	default:
		return false
	}
}

// Status is the lifecycle state of a calendar event as shown to the user.
type Status string

const (
	StatusRecommended Status = "recommended"
	StatusPlanned     Status = "planned"
	StatusInProgress  Status = "in_progress"
	StatusCompleted   Status = "completed"
	StatusGhost       Status = "ghost"
	StatusExternal    Status = "external"
)

// ParseStatus normalizes a status string from the event service. Unknown or
// empty values become StatusPlanned.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "recommended":
		return StatusRecommended
	case "planned", "scheduled":
		return StatusPlanned
	case "in_progress", "in-progress", "inprogress", "active":
		return StatusInProgress
	case "completed", "done":
		return StatusCompleted
	case "ghost":
		return StatusGhost
	case "external":
		return StatusExternal
	default:
		return StatusPlanned
	}
}

// Category is the optional training category of an event. CategoryNone
// means the service did not send a category we recognise.
type Category string

const (
	CategoryNone       Category = ""
	CategoryTraining   Category = "training"
	CategoryTesting    Category = "testing"
	CategoryMental     Category = "mental"
	CategoryTournament Category = "tournament"
	CategoryCoach      Category = "coach"
)

// ParseCategory normalizes a type/sessionType string from the event service.
// Norwegian aliases used by the coaching backend are accepted.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "training", "trening", "teknikk", "golfslag", "slag", "spill", "fysisk", "session":
		return CategoryTraining
	case "testing", "test":
		return CategoryTesting
	case "mental":
		return CategoryMental
	case "tournament", "turnering", "konkurranse", "competition":
		return CategoryTournament
	case "coach", "coaching":
		return CategoryCoach
	default:
		return CategoryNone
	}
}

// CalendarEvent is one time-blocked entry on the calendar, either mapped
// from the event service or synthesized by the seed generator.
//
// Date is a "YYYY-MM-DD" key in the display timezone; Start and End are
// "HH:MM" wall-clock times on that date. Start < End unless IsAllDay.
type CalendarEvent struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Status   Status   `json:"status"`
	Category Category `json:"category,omitempty"`
	Location string   `json:"location,omitempty"`
	IsAllDay bool     `json:"isAllDay"`
}

// StartMinutes returns Start as minutes after midnight, or 0 if unparseable.
func (e CalendarEvent) StartMinutes() int {
	m, _ := ParseClock(e.Start)
	return m
}

// EndMinutes returns End as minutes after midnight, or 0 if unparseable.
func (e CalendarEvent) EndMinutes() int {
	m, _ := ParseClock(e.End)
	return m
}

// DurationMinutes is End - Start, clamped at zero.
func (e CalendarEvent) DurationMinutes() int {
	d := e.EndMinutes() - e.StartMinutes()
	if d < 0 {
		return 0
	}
	return d
}

// ParseClock parses "HH:MM" (24h) into minutes after midnight. "24:00" is
// accepted as end-of-day.
func ParseClock(s string) (int, bool) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	if h == 24 && m != 0 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// CalendarRange is the visible window derived from (View, Anchor).
// Start is 00:00:00.000 of the first day and End is 23:59:59.999 of the
// last day, both in the anchor's location.
type CalendarRange struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	View   ViewMode  `json:"view"`
	Anchor time.Time `json:"anchor"`
}

// Valid reports whether the range was resolved from a usable anchor.
func (r CalendarRange) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Contains reports whether t falls inside [Start, End].
func (r CalendarRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// NavigationState is what gets written to the addressable store.
type NavigationState struct {
	View ViewMode `json:"view"`
	Date string   `json:"date"`
}
