// Package seed produces the placeholder schedule shown when the event
// service has nothing for a range. Output depends only on the range, so
// repeated fetches of the same week yield the same ids and times.
package seed

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"trainingcal/internal/datemath"
	appLog "trainingcal/internal/log"
	"trainingcal/internal/model"
)

// Slot is one entry of the weekly template.
type Slot struct {
	Name     string
	Weekday  time.Weekday
	Start    string
	End      string
	Title    string
	Status   model.Status
	Category model.Category
	Location string
}

// weeklyTemplate is emitted once per ISO week. The two Thursday slots
// overlap on purpose so the side-by-side layout is visible without data.
var weeklyTemplate = []Slot{
	{Name: "group-session", Weekday: time.Monday, Start: "17:00", End: "18:30", Title: "Group session", Status: model.StatusCompleted, Category: model.CategoryTraining, Location: "Driving range"},
	{Name: "putting", Weekday: time.Tuesday, Start: "08:00", End: "09:30", Title: "Putting: distance control", Status: model.StatusRecommended, Category: model.CategoryTraining, Location: "Putting green"},
	{Name: "mental", Weekday: time.Tuesday, Start: "19:00", End: "19:45", Title: "Mental training", Status: model.StatusPlanned, Category: model.CategoryMental},
	{Name: "threshold", Weekday: time.Wednesday, Start: "16:00", End: "17:30", Title: "Threshold session", Status: model.StatusPlanned, Category: model.CategoryTraining, Location: "Gym"},
	{Name: "short-game", Weekday: time.Thursday, Start: "14:00", End: "15:30", Title: "Short game", Status: model.StatusPlanned, Category: model.CategoryTraining, Location: "Chipping area"},
	{Name: "range-session", Weekday: time.Thursday, Start: "15:00", End: "16:00", Title: "Range session", Status: model.StatusPlanned, Category: model.CategoryTraining, Location: "Driving range"},
	{Name: "testing", Weekday: time.Friday, Start: "10:00", End: "11:00", Title: "Testing: benchmark", Status: model.StatusPlanned, Category: model.CategoryTesting, Location: "Performance lab"},
}

// Template returns a copy of the weekly slot template.
func Template() []Slot {
	out := make([]Slot, len(weeklyTemplate))
	copy(out, weeklyTemplate)
	return out
}

// EventID builds the id of a seeded event. It is the only place seed ids are
// formed; year is the ISO week-numbering year so ids stay unique across the
// year boundary.
func EventID(year, week int, slot string) string {
	return fmt.Sprintf("%d-w%d-%s", year, week, slot)
}

// Generate returns the seeded events whose date falls in
// [rangeStart, rangeEnd], ordered by week and then by template order.
func Generate(rangeStart, rangeEnd time.Time) []model.CalendarEvent {
	if rangeStart.IsZero() || rangeEnd.IsZero() || rangeEnd.Before(rangeStart) {
		return nil
	}

	first := datemath.StartOfDay(rangeStart)
	events := make([]model.CalendarEvent, 0)

	for _, monday := range weekStarts(rangeStart, rangeEnd) {
		year, week := monday.ISOWeek()
		for _, s := range weeklyTemplate {
			day := datemath.AddDays(monday, dayOffset(s.Weekday))
			if day.Before(first) || day.After(rangeEnd) {
				continue
			}
			events = append(events, model.CalendarEvent{
				ID:       EventID(year, week, s.Name),
				Title:    s.Title,
				Date:     datemath.DateKey(day),
				Start:    s.Start,
				End:      s.End,
				Status:   s.Status,
				Category: s.Category,
				Location: s.Location,
			})
		}
	}
	return events
}

// weekStarts lists every ISO week Monday from WeekStart(rangeStart) up to
// rangeEnd using a weekly recurrence.
func weekStarts(rangeStart, rangeEnd time.Time) []time.Time {
	first := datemath.WeekStart(rangeStart)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.WEEKLY,
		Dtstart: first,
		Until:   rangeEnd,
	})
	if err != nil {
		appLog.Error("seed: weekly rule rejected, walking weeks directly", err,
			"range_start", datemath.DateKey(rangeStart),
			"range_end", datemath.DateKey(rangeEnd),
		)
		var out []time.Time
		for d := first; !d.After(rangeEnd); d = datemath.AddDays(d, 7) {
			out = append(out, d)
		}
		return out
	}

	// Normalize back to local midnight in case the rule stepped across a
	// DST change.
	starts := r.All()
	for i, t := range starts {
		t = t.In(first.Location())
		starts[i] = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, first.Location())
	}
	return starts
}

func dayOffset(wd time.Weekday) int {
	off := int(wd) - int(time.Monday)
	if off < 0 {
		off += 7
	}
	return off
}
