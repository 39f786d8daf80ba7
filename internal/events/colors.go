package events

import (
	"sort"

	"trainingcal/internal/model"
)

// Color is the display colour of an event. Status wins over category.
func Color(ev model.CalendarEvent) string {
	switch ev.Status {
	case model.StatusRecommended:
		return "blue"
	case model.StatusCompleted:
		return "green"
	case model.StatusInProgress:
		return "amber"
	}
	switch ev.Category {
	case model.CategoryTesting:
		return "purple"
	case model.CategoryMental:
		return "pink"
	}
	return "gray"
}

// EventDates returns the distinct date keys that carry at least one event,
// sorted ascending. The mini month uses it to mark busy days.
func EventDates(events []model.CalendarEvent) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.Date == "" {
			continue
		}
		if _, ok := seen[ev.Date]; ok {
			continue
		}
		seen[ev.Date] = struct{}{}
		out = append(out, ev.Date)
	}
	sort.Strings(out)
	return out
}
