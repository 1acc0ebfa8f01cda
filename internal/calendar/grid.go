package calendar

import (
	"time"

	"maintcal/internal/model"
)

// Load classifies a day's committed hours against the daily ceiling.
type Load string

const (
	LoadEmpty      Load = "empty"
	LoadNormal     Load = "normal"
	LoadBusy       Load = "busy"
	LoadOverloaded Load = "overloaded"
)

// Classify maps hours to a Load: empty, <=70% normal, <=100% busy, else
// overloaded.
func Classify(hours, ceiling float64) Load {
	if hours <= 0 {
		return LoadEmpty
	}
	if ceiling <= 0 {
		return LoadOverloaded
	}
	ratio := hours / ceiling
	switch {
	case ratio <= 0.7:
		return LoadNormal
	case ratio <= 1.0:
		return LoadBusy
	default:
		return LoadOverloaded
	}
}

// CapacityStatus classifies the load of day d.
func (c *Calendar) CapacityStatus(d time.Time) Load {
	return Classify(c.HoursOnDay(d), c.dailyCeiling)
}

// Cell is one day in a month grid.
type Cell struct {
	Date    time.Time     `json:"date"`
	InMonth bool          `json:"in_month"`
	Events  []model.Event `json:"events"`
	Hours   float64       `json:"hours"`
	Load    Load          `json:"load"`
}

// MonthGrid is a month laid out as full weeks.
type MonthGrid struct {
	Month     model.YearMonth `json:"month"`
	WeekStart time.Weekday    `json:"week_start"`
	Weeks     [][]Cell        `json:"weeks"`
	Hours     float64         `json:"hours"`
}

// MonthGrid lays out ym as rows of seven days starting on weekStart,
// padding with days of the neighbouring months.
func (c *Calendar) MonthGrid(ym model.YearMonth, weekStart time.Weekday) MonthGrid {
	first := ym.First()
	last := first.AddDate(0, 1, -1)

	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7
	gridStart := first.AddDate(0, 0, -offset)
	trailing := (int(weekStart) + 6 - int(last.Weekday()) + 7) % 7
	gridEnd := last.AddDate(0, 0, trailing)

	byDay := make(map[time.Time][]model.Event)
	for _, e := range c.EventsBetween(gridStart, gridEnd) {
		byDay[e.Date] = append(byDay[e.Date], e)
	}

	grid := MonthGrid{Month: ym, WeekStart: weekStart}
	var week []Cell
	for d := gridStart; !d.After(gridEnd); d = d.AddDate(0, 0, 1) {
		events := byDay[d]
		if events == nil {
			events = []model.Event{}
		}
		var hours float64
		for _, e := range events {
			hours += e.TotalHours()
		}
		inMonth := model.MonthOf(d) == ym
		if inMonth {
			grid.Hours += hours
		}
		week = append(week, Cell{
			Date:    d,
			InMonth: inMonth,
			Events:  events,
			Hours:   hours,
			Load:    Classify(hours, c.dailyCeiling),
		})
		if len(week) == 7 {
			grid.Weeks = append(grid.Weeks, week)
			week = nil
		}
	}
	return grid
}
