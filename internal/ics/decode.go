package ics

import (
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	appLog "maintcal/internal/log"
	"maintcal/internal/model"
	"maintcal/internal/normalize"
)

const defaultMaxOccurrencesPerEvent = 400

// DecodeOptions controls recurrence expansion on import.
type DecodeOptions struct {
	// From / To bound the occurrences produced from RRULE events. A zero To
	// means one year after From.
	From time.Time
	To   time.Time

	// MaxOccurrencesPerEvent caps expansion of a single recurring VEVENT.
	MaxOccurrencesPerEvent int
}

// DecodeResult holds imported events and what was left out.
type DecodeResult struct {
	Events []model.Event
	// Truncated lists UIDs whose expansion hit MaxOccurrencesPerEvent.
	Truncated []string
	// Skipped counts VEVENTs that could not be read.
	Skipped int
}

// Decode reads an iCalendar document into events. Calendars written by Encode
// round-trip exactly; foreign calendars are mapped best-effort: all-day
// semantics, RRULE/EXDATE expansion within the window, priority from
// PRIORITY or the category label.
func Decode(r io.Reader, opts DecodeOptions) (DecodeResult, error) {
	var res DecodeResult

	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return res, errors.Wrap(err, "parse ics")
	}
	if opts.MaxOccurrencesPerEvent <= 0 {
		opts.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	opts.From = model.Day(opts.From)
	if opts.To.IsZero() {
		opts.To = opts.From.AddDate(1, 0, 0)
	}
	opts.To = model.Day(opts.To)

	for _, ve := range cal.Events() {
		base, err := decodeVEvent(ve)
		if err != nil {
			res.Skipped++
			appLog.Error("ics vevent decode failed", err)
			continue
		}

		rp := ve.GetProperty(ical.ComponentPropertyRrule)
		if rp == nil || rp.Value == "" {
			res.Events = append(res.Events, base)
			continue
		}

		dates, truncated, err := expand(base.Date, rp.Value, exDates(ve), opts)
		if err != nil {
			res.Skipped++
			appLog.Error("ics rrule expansion failed", err, "uid", base.ID, "rrule", rp.Value)
			continue
		}
		if truncated {
			res.Truncated = append(res.Truncated, base.ID)
		}
		for _, d := range dates {
			occ := base.Clone()
			occ.ID = base.ID + "-" + d.Format("20060102")
			occ.Date = d
			res.Events = append(res.Events, occ)
		}
	}

	appLog.Info("ics decode completed", "event_count", len(res.Events), "skipped", res.Skipped, "truncated", len(res.Truncated))
	return res, nil
}

func decodeVEvent(ve *ical.VEvent) (model.Event, error) {
	var e model.Event

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return e, errors.New("missing UID")
	}
	e.ID = strings.TrimSuffix(uid, uidDomain)

	start, err := ve.GetAllDayStartAt()
	if err != nil {
		return e, errors.Wrapf(err, "uid %s: DTSTART", uid)
	}
	e.Date = model.Day(start)

	e.Name = propValue(ve, ical.ComponentPropertySummary)
	e.RequirementCode = propValue(ve, propRequirement)
	e.MaintenanceType = propValue(ve, propMaintType)
	if e.MaintenanceType == "" {
		e.MaintenanceType = propValue(ve, ical.ComponentPropertyCategories)
	}
	e.AssignedTechnician = propValue(ve, propTechnician)

	e.HoursPerUnit = normalize.DefaultDurationHours
	if h, err := strconv.ParseFloat(propValue(ve, propHoursPerUnit), 64); err == nil && h > 0 {
		e.HoursPerUnit = h
	} else if h := timedHours(ve); h > 0 {
		e.HoursPerUnit = h
	}

	e.UnitCount = 1
	if n, err := strconv.Atoi(propValue(ve, propUnitCount)); err == nil && n > 0 {
		e.UnitCount = n
	}
	var labels []string
	if raw := propValue(ve, propUnitLabels); raw != "" {
		labels = strings.Split(raw, ";")
	}
	e.UnitLabels = model.Requirement{Name: e.Name, EquipmentCount: e.UnitCount, UnitLabels: labels}.Labels()

	e.Status = model.Status(propValue(ve, propStatus))
	if !e.Status.Valid() {
		e.Status = model.StatusScheduled
		if strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), string(ical.ObjectStatusTentative)) {
			e.Status = model.StatusPending
		}
	}

	e.Priority = model.Priority(propValue(ve, propPriority))
	if !e.Priority.Valid() {
		if n, err := strconv.Atoi(propValue(ve, ical.ComponentPropertyPriority)); err == nil && n > 0 {
			e.Priority = priorityFromICS(n)
		} else {
			e.Priority = normalize.Priority(e.MaintenanceType)
		}
	}

	desc := propValue(ve, ical.ComponentPropertyDescription)
	if ve.GetProperty(propStatus) != nil {
		if i := strings.Index(desc, notesMarker); i >= 0 {
			e.Notes = desc[i+len(notesMarker):]
		}
	} else {
		e.Notes = desc
	}
	return e, nil
}

// timedHours returns DTEND-DTSTART in hours for events with a time of day.
func timedHours(ve *ical.VEvent) float64 {
	dt := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dt == nil || !strings.Contains(dt.Value, "T") {
		return 0
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return 0
	}
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

func exDates(ve *ical.VEvent) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if len(part) < 8 {
				continue
			}
			if t, err := time.Parse("20060102", part[:8]); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// expand enumerates the days of rawRule starting at start inside the window,
// minus exdates. The second result reports whether the cap cut it short.
func expand(start time.Time, rawRule string, exdates []time.Time, opts DecodeOptions) ([]time.Time, bool, error) {
	r, err := rrule.StrToRRule(rawRule)
	if err != nil {
		return nil, false, err
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exdates {
		set.ExDate(model.Day(ex))
	}

	occ := set.Between(opts.From, opts.To, true)
	truncated := false
	if len(occ) > opts.MaxOccurrencesPerEvent {
		occ = occ[:opts.MaxOccurrencesPerEvent]
		truncated = true
	}
	out := make([]time.Time, len(occ))
	for i, t := range occ {
		out[i] = model.Day(t)
	}
	return out, truncated, nil
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return prop.Value
	}
	return ""
}
