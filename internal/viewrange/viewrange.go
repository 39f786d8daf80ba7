// Package viewrange turns a (view, anchor) pair into the concrete range the
// calendar shows, plus the display facts renderers need.
package viewrange

import (
	"fmt"
	"time"

	"trainingcal/internal/datemath"
	"trainingcal/internal/model"
)

// Range is a resolved CalendarRange together with the derived display facts.
type Range struct {
	model.CalendarRange

	// WeekNumber is the ISO week of the anchor.
	WeekNumber int `json:"weekNumber"`
	// WeekDates are the seven days (Monday first) of the anchor's week.
	WeekDates []time.Time `json:"weekDates"`
	// MonthName is the English name of the anchor's month.
	MonthName string `json:"monthName"`
	Year      int    `json:"year"`
}

// Resolve computes the range for view around anchor. The result depends only
// on its inputs. A zero anchor yields a Range whose Valid() is false.
// Unknown views resolve as week.
func Resolve(view model.ViewMode, anchor time.Time) Range {
	if !view.Valid() {
		view = model.DefaultView
	}
	if anchor.IsZero() {
		return Range{CalendarRange: model.CalendarRange{View: view}}
	}

	var start, end time.Time
	switch view {
	case model.ViewDay:
		start, end = datemath.StartOfDay(anchor), datemath.EndOfDay(anchor)
	case model.ViewMonth:
		start, end = datemath.MonthStart(anchor), datemath.MonthEnd(anchor)
	case model.ViewYear:
		start, end = datemath.YearStart(anchor), datemath.YearEnd(anchor)
	default:
		start, end = datemath.WeekStart(anchor), datemath.WeekEnd(anchor)
	}

	return Range{
		CalendarRange: model.CalendarRange{
			Start:  start,
			End:    end,
			View:   view,
			Anchor: anchor,
		},
		WeekNumber: datemath.WeekNumber(anchor),
		WeekDates:  datemath.WeekDates(anchor),
		MonthName:  anchor.Month().String(),
		Year:       anchor.Year(),
	}
}

// Days returns the start of every calendar day in the range, in order.
func (r Range) Days() []time.Time {
	if !r.Valid() {
		return nil
	}
	var out []time.Time
	for d := r.Start; !d.After(r.End); d = datemath.AddDays(d, 1) {
		out = append(out, d)
	}
	return out
}

// StartKey and EndKey are the range bounds as date keys, the form the event
// service expects.
func (r Range) StartKey() string { return datemath.DateKey(r.Start) }
func (r Range) EndKey() string   { return datemath.DateKey(r.End) }

// Title is the header line for the view: "15. January 2025" for day,
// "January 2025" for week and month, "2025" for year.
func Title(view model.ViewMode, anchor time.Time) string {
	if anchor.IsZero() {
		return ""
	}
	switch view {
	case model.ViewDay:
		return fmt.Sprintf("%d. %s %d", anchor.Day(), anchor.Month(), anchor.Year())
	case model.ViewYear:
		return fmt.Sprintf("%d", anchor.Year())
	default:
		return fmt.Sprintf("%s %d", anchor.Month(), anchor.Year())
	}
}

// Subtitle is the weekday name for day view and "Week N" for week view.
// Month and year views have no subtitle.
func Subtitle(view model.ViewMode, anchor time.Time) string {
	if anchor.IsZero() {
		return ""
	}
	switch view {
	case model.ViewDay:
		return anchor.Weekday().String()
	case model.ViewWeek:
		return fmt.Sprintf("Week %d", datemath.WeekNumber(anchor))
	default:
		return ""
	}
}

// MonthGrid returns six Monday-first weeks covering the anchor's month, as
// used by the month view and the mini calendar. Leading and trailing days
// belong to the neighbouring months.
func MonthGrid(anchor time.Time) [][]time.Time {
	if anchor.IsZero() {
		return nil
	}
	first := datemath.WeekStart(datemath.MonthStart(anchor))
	grid := make([][]time.Time, 6)
	for w := range grid {
		grid[w] = make([]time.Time, 7)
		for d := range grid[w] {
			grid[w][d] = datemath.AddDays(first, w*7+d)
		}
	}
	return grid
}
