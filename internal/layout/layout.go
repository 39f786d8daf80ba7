// Package layout places one day's timed events into side-by-side columns.
//
// Events are merged greedily into overlap groups: anything starting before
// the running end of the current group joins it, so a chain A-B-C where only
// neighbours overlap still shares one group of three columns. That keeps the
// layout stable and cheap; it does not try to find the minimum column count.
package layout

import (
	"sort"

	"trainingcal/internal/model"
)

// Placement is one event with its horizontal slot inside its group.
type Placement struct {
	Event       model.CalendarEvent `json:"event"`
	ColumnIndex int                 `json:"columnIndex"`
	ColumnCount int                 `json:"columnCount"`
}

// OverlapGroup is a run of events whose intervals transitively intersect.
type OverlapGroup struct {
	Placements []Placement `json:"placements"`
	// Start and End span the whole group as "HH:MM".
	Start string `json:"start"`
	End   string `json:"end"`
}

// Layout groups events (already filtered to one day) and assigns columns.
// Ties on start time keep input order.
func Layout(events []model.CalendarEvent) []OverlapGroup {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]model.CalendarEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartMinutes() < sorted[j].StartMinutes()
	})

	var groups []OverlapGroup
	current := []model.CalendarEvent{sorted[0]}
	currentEnd := sorted[0].EndMinutes()

	for _, ev := range sorted[1:] {
		if ev.StartMinutes() < currentEnd {
			current = append(current, ev)
			if end := ev.EndMinutes(); end > currentEnd {
				currentEnd = end
			}
			continue
		}
		groups = append(groups, closeGroup(current, currentEnd))
		current = []model.CalendarEvent{ev}
		currentEnd = ev.EndMinutes()
	}
	groups = append(groups, closeGroup(current, currentEnd))

	return groups
}

func closeGroup(events []model.CalendarEvent, end int) OverlapGroup {
	g := OverlapGroup{
		Placements: make([]Placement, len(events)),
		Start:      model.FormatClock(events[0].StartMinutes()),
		End:        model.FormatClock(end),
	}
	for i, ev := range events {
		g.Placements[i] = Placement{Event: ev, ColumnIndex: i, ColumnCount: len(events)}
	}
	return g
}

// Day is the render-ready content of one calendar day.
type Day struct {
	Date   string                `json:"date"`
	AllDay []model.CalendarEvent `json:"allDay"`
	Groups []OverlapGroup        `json:"groups"`
	State  DayState              `json:"state"`
}

// LayoutDays buckets events by date and lays out each of the given dates.
// All-day events are listed separately and never take a column.
func LayoutDays(dates []string, events []model.CalendarEvent) []Day {
	byDate := GroupByDate(events)
	out := make([]Day, 0, len(dates))
	for _, date := range dates {
		dayEvents := byDate[date]
		timed, allDay := SplitAllDay(dayEvents)
		out = append(out, Day{
			Date:   date,
			AllDay: allDay,
			Groups: Layout(timed),
			State:  ClassifyDay(dayEvents),
		})
	}
	return out
}

// GroupByDate buckets events by their date key, keeping input order inside
// each bucket.
func GroupByDate(events []model.CalendarEvent) map[string][]model.CalendarEvent {
	out := make(map[string][]model.CalendarEvent)
	for _, ev := range events {
		out[ev.Date] = append(out[ev.Date], ev)
	}
	return out
}

// SplitAllDay separates timed events from all-day ones.
func SplitAllDay(events []model.CalendarEvent) (timed, allDay []model.CalendarEvent) {
	for _, ev := range events {
		if ev.IsAllDay {
			allDay = append(allDay, ev)
			continue
		}
		timed = append(timed, ev)
	}
	return timed, allDay
}
