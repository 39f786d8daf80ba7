package events

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"trainingcal/internal/datemath"
	"trainingcal/internal/model"
)

const productID = "-//trainingcal//calendar export//EN"

// statusProperty carries the engine status through the export so a round
// trip through another calendar keeps it.
const statusProperty ical.ComponentProperty = "X-TRAININGCAL-STATUS"

// ExportICS renders events as a VCALENDAR document. Dates are interpreted
// in loc; timed events are written in UTC.
func ExportICS(name string, events []model.CalendarEvent, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.Local
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	if name != "" {
		cal.SetXWRCalName(name)
	}
	cal.SetXWRTimezone(loc.String())

	for _, ev := range events {
		day, err := datemath.ParseDateKey(ev.Date, loc)
		if err != nil {
			continue
		}

		ve := cal.AddEvent(ev.ID + "@trainingcal")
		ve.SetDtStampTime(now.UTC())
		ve.SetSummary(ev.Title)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Category != model.CategoryNone {
			ve.SetProperty(ical.ComponentPropertyCategories, string(ev.Category))
		}
		ve.SetProperty(ical.ComponentPropertyStatus, icsStatus(ev.Status))
		ve.SetProperty(statusProperty, string(ev.Status))

		if ev.IsAllDay {
			ve.SetAllDayStartAt(day)
			ve.SetAllDayEndAt(datemath.AddDays(day, 1))
			continue
		}
		ve.SetStartAt(day.Add(time.Duration(ev.StartMinutes()) * time.Minute))
		ve.SetEndAt(day.Add(time.Duration(ev.EndMinutes()) * time.Minute))
	}

	return cal.Serialize()
}

func icsStatus(s model.Status) string {
	switch s {
	case model.StatusRecommended, model.StatusGhost:
		return "TENTATIVE"
	default:
		return "CONFIRMED"
	}
}
