package ics

import (
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"maintcal/internal/model"
)

// Extension properties carrying the fields ICS has no slot for. Import reads
// them back so an exported calendar round-trips. Values are TEXT and escaped
// by the encoder.
const (
	propRequirement  ical.ComponentProperty = "X-MAINTCAL-REQUIREMENT"
	propMaintType    ical.ComponentProperty = "X-MAINTCAL-MAINTENANCE-TYPE"
	propHoursPerUnit ical.ComponentProperty = "X-MAINTCAL-HOURS-PER-UNIT"
	propUnitCount    ical.ComponentProperty = "X-MAINTCAL-UNIT-COUNT"
	propUnitLabels   ical.ComponentProperty = "X-MAINTCAL-UNIT-LABELS"
	propStatus       ical.ComponentProperty = "X-MAINTCAL-STATUS"
	propPriority     ical.ComponentProperty = "X-MAINTCAL-PRIORITY"
	propTechnician   ical.ComponentProperty = "X-MAINTCAL-TECHNICIAN"
)

const uidDomain = "@maintcal"

// EncodeOptions controls calendar-level metadata of an export.
type EncodeOptions struct {
	Name     string
	Timezone string
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Encode renders events as an iCalendar document of all-day VEVENTs.
func Encode(events []model.Event, opts EncodeOptions) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//maintcal//maintenance calendar//EN")
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if opts.Timezone != "" {
		cal.SetXWRTimezone(opts.Timezone)
	}
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, e := range events {
		ve := cal.AddEvent(e.ID + uidDomain)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetAllDayStartAt(e.Date)
		ve.SetAllDayEndAt(e.Date.AddDate(0, 0, 1))
		ve.SetSummary(e.Name)
		ve.SetDescription(describe(e))
		if e.MaintenanceType != "" {
			ve.SetProperty(ical.ComponentPropertyCategories, e.MaintenanceType)
		}
		ve.SetStatus(icsStatus(e.Status))
		ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(icsPriority(e.Priority)))

		ve.SetProperty(propRequirement, e.RequirementCode)
		ve.SetProperty(propMaintType, e.MaintenanceType)
		ve.SetProperty(propHoursPerUnit, strconv.FormatFloat(e.HoursPerUnit, 'f', -1, 64))
		ve.SetProperty(propUnitCount, strconv.Itoa(e.UnitCount))
		ve.SetProperty(propUnitLabels, strings.Join(e.UnitLabels, ";"))
		ve.SetProperty(propStatus, string(e.Status))
		ve.SetProperty(propPriority, string(e.Priority))
		if e.AssignedTechnician != "" {
			ve.SetProperty(propTechnician, e.AssignedTechnician)
		}
	}
	return cal.Serialize()
}

// describe is the human-readable body shown by calendar clients. Notes go
// last so import can recover them.
func describe(e model.Event) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(e.UnitCount))
	b.WriteString(" x ")
	b.WriteString(strconv.FormatFloat(e.HoursPerUnit, 'f', -1, 64))
	b.WriteString("h = ")
	b.WriteString(strconv.FormatFloat(e.TotalHours(), 'f', -1, 64))
	b.WriteString("h\n")
	if len(e.UnitLabels) > 0 {
		b.WriteString(strings.Join(e.UnitLabels, ", "))
		b.WriteString("\n")
	}
	if e.AssignedTechnician != "" {
		b.WriteString("Technician: ")
		b.WriteString(e.AssignedTechnician)
		b.WriteString("\n")
	}
	if e.Notes != "" {
		b.WriteString(notesMarker)
		b.WriteString(e.Notes)
	}
	return b.String()
}

const notesMarker = "Notes: "

// RFC 5545 priority: 1 highest, 9 lowest.
func icsPriority(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 1
	case model.PriorityHigh:
		return 3
	case model.PriorityMedium:
		return 5
	}
	return 9
}

func priorityFromICS(n int) model.Priority {
	switch {
	case n >= 1 && n <= 2:
		return model.PriorityCritical
	case n >= 3 && n <= 4:
		return model.PriorityHigh
	case n >= 5 && n <= 6:
		return model.PriorityMedium
	}
	return model.PriorityLow
}

func icsStatus(s model.Status) ical.ObjectStatus {
	if s == model.StatusPending {
		return ical.ObjectStatusTentative
	}
	return ical.ObjectStatusConfirmed
}
