package layout

import (
	"time"

	"trainingcal/internal/model"
)

// Axis describes the vertical time axis of a day column.
type Axis struct {
	StartHour     int
	EndHour       int
	HourHeight    float64 // px per hour
	MinHeight     float64 // px
	GutterPercent float64
}

var (
	// WeekAxis is the compact 05:00-23:00 axis of the week grid.
	WeekAxis = Axis{StartHour: 5, EndHour: 23, HourHeight: 60, MinHeight: 24, GutterPercent: 2}
	// DayAxis is the full-day axis of the day view.
	DayAxis = Axis{StartHour: 0, EndHour: 24, HourHeight: 60, MinHeight: 40, GutterPercent: 2}
)

// Box is the position of a placed event. Top/Height are px from the axis
// start; Left/Width are percentages of the lane width.
type Box struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}

// Box positions p on the axis. Column i of n starts at i/n of the lane.
func (a Axis) Box(p Placement) Box {
	startOffset := p.Event.StartMinutes() - a.StartHour*60
	duration := p.Event.DurationMinutes()

	height := float64(duration) / 60 * a.HourHeight
	if height < a.MinHeight {
		height = a.MinHeight
	}

	count := p.ColumnCount
	if count < 1 {
		count = 1
	}
	share := 100 / float64(count)
	width := share - a.GutterPercent
	if width < 0 {
		width = 0
	}

	return Box{
		Top:    float64(startOffset) / 60 * a.HourHeight,
		Height: height,
		Left:   float64(p.ColumnIndex) * share,
		Width:  width,
	}
}

// NowOffset returns the px offset of the "now" line for t, and false when t
// is outside the axis hours.
func (a Axis) NowOffset(t time.Time) (float64, bool) {
	h, m := t.Hour(), t.Minute()
	if h < a.StartHour || h > a.EndHour {
		return 0, false
	}
	return float64((h-a.StartHour)*60+m) / 60 * a.HourHeight, true
}

// DayState summarizes what a day's events mean for the day view header.
type DayState string

const (
	DayDefault                 DayState = "default"
	DayRecommendedScheduled    DayState = "recommended_scheduled"
	DayRecommendedNotScheduled DayState = "recommended_not_scheduled"
	DayNoRecommendation        DayState = "no_recommendation"
	DayCollision               DayState = "collision"
	DayInProgress              DayState = "in_progress"
	DayCompleted               DayState = "completed"
)

// ClassifyDay picks the DayState for one day's events. An in-progress
// session wins over everything else, then a fully completed day.
func ClassifyDay(events []model.CalendarEvent) DayState {
	var recommended *model.CalendarEvent
	allCompleted := len(events) > 0
	for i := range events {
		ev := &events[i]
		if ev.Status == model.StatusInProgress {
			return DayInProgress
		}
		if ev.Status != model.StatusCompleted {
			allCompleted = false
		}
		if recommended == nil && ev.Status == model.StatusRecommended {
			recommended = ev
		}
	}

	switch {
	case allCompleted:
		return DayCompleted
	case recommended == nil && len(events) > 0:
		return DayDefault
	case recommended == nil:
		return DayNoRecommendation
	case recommended.IsAllDay || recommended.Start == "":
		return DayRecommendedNotScheduled
	}

	for _, ev := range events {
		if ev.ID == recommended.ID || ev.IsAllDay {
			continue
		}
		if ev.StartMinutes() < recommended.EndMinutes() && ev.EndMinutes() > recommended.StartMinutes() {
			return DayCollision
		}
	}
	return DayRecommendedScheduled
}
