package web

import (
	"time"

	"trainingcal/internal/datemath"
	"trainingcal/internal/events"
	"trainingcal/internal/layout"
	"trainingcal/internal/model"
	"trainingcal/internal/viewrange"
)

// calendarResponse is the JSON shape of /api/calendar and
// /api/calendar/navigate.
type calendarResponse struct {
	View  model.ViewMode `json:"view"`
	Date  string         `json:"date"`
	Query string         `json:"query"`

	RangeStart time.Time  `json:"range_start"`
	RangeEnd   time.Time  `json:"range_end"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle"`
	WeekNumber int        `json:"week_number"`
	WeekDates  []string   `json:"week_dates"`
	MonthName  string     `json:"month_name"`
	Year       int        `json:"year"`
	MonthGrid  [][]string `json:"month_grid,omitempty"`

	Days       []dayDTO `json:"days"`
	EventDates []string `json:"event_dates"`
	NowOffset  *float64 `json:"now_offset,omitempty"`

	IsSeedData      bool   `json:"is_seed_data"`
	Warning         string `json:"warning,omitempty"`
	DisplayTimeZone string `json:"display_timezone"`

	// Notice explains navigation input that was ignored.
	Notice string `json:"notice,omitempty"`
}

type dayDTO struct {
	Date   string                `json:"date"`
	State  layout.DayState       `json:"state"`
	AllDay []model.CalendarEvent `json:"all_day"`
	Groups []groupDTO            `json:"groups"`
}

type groupDTO struct {
	Start      string         `json:"start"`
	End        string         `json:"end"`
	Placements []placementDTO `json:"placements"`
}

type placementDTO struct {
	layout.Placement
	Box   layout.Box `json:"box"`
	Color string     `json:"color"`
}

// buildCalendar renders a resolved range and its fetch result into the
// response body. now places the "now" line when today is in range.
func buildCalendar(rng viewrange.Range, res events.Result, query string, now time.Time, loc *time.Location) calendarResponse {
	axis := layout.WeekAxis
	if rng.View == model.ViewDay {
		axis = layout.DayAxis
	}

	keys := dateKeys(rng.Days())

	out := calendarResponse{
		View:            rng.View,
		Date:            datemath.DateKey(rng.Anchor),
		Query:           query,
		RangeStart:      rng.Start,
		RangeEnd:        rng.End,
		Title:           viewrange.Title(rng.View, rng.Anchor),
		Subtitle:        viewrange.Subtitle(rng.View, rng.Anchor),
		WeekNumber:      rng.WeekNumber,
		WeekDates:       dateKeys(rng.WeekDates),
		MonthName:       rng.MonthName,
		Year:            rng.Year,
		EventDates:      events.EventDates(res.Events),
		IsSeedData:      res.IsSeedData,
		Warning:         res.Warning(),
		DisplayTimeZone: loc.String(),
	}
	if rng.View == model.ViewMonth {
		for _, week := range viewrange.MonthGrid(rng.Anchor) {
			out.MonthGrid = append(out.MonthGrid, dateKeys(week))
		}
	}

	localNow := now.In(loc)
	if rng.Contains(localNow) {
		if off, ok := axis.NowOffset(localNow); ok {
			out.NowOffset = &off
		}
	}

	for _, day := range layout.LayoutDays(keys, res.Events) {
		dto := dayDTO{Date: day.Date, State: day.State, AllDay: day.AllDay, Groups: make([]groupDTO, 0, len(day.Groups))}
		if dto.AllDay == nil {
			dto.AllDay = []model.CalendarEvent{}
		}
		for _, g := range day.Groups {
			gd := groupDTO{Start: g.Start, End: g.End, Placements: make([]placementDTO, len(g.Placements))}
			for i, p := range g.Placements {
				gd.Placements[i] = placementDTO{Placement: p, Box: axis.Box(p), Color: events.Color(p.Event)}
			}
			dto.Groups = append(dto.Groups, gd)
		}
		out.Days = append(out.Days, dto)
	}
	if out.Days == nil {
		out.Days = []dayDTO{}
	}
	return out
}

func dateKeys(days []time.Time) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = datemath.DateKey(d)
	}
	return out
}
