package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintcal/internal/model"
)

func day(s string) time.Time {
	d, err := model.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleEvents() []model.Event {
	return []model.Event{
		{
			ID: "a1", RequirementCode: "VENT", Name: "Ventilador, UCI; cama 3", MaintenanceType: "Preventivo",
			Date: day("2024-01-08"), HoursPerUnit: 2.5, UnitCount: 2, UnitLabels: []string{"SN-1", "SN-2"},
			Status: model.StatusScheduled, Priority: model.PriorityMedium,
			AssignedTechnician: "María", Notes: "Revisar filtros,\nválvulas; y sensores",
		},
		{
			ID: "b2", RequirementCode: "RX", Name: "Rayos X", MaintenanceType: "correctivo",
			Date: day("2024-02-05"), HoursPerUnit: 8, UnitCount: 1, UnitLabels: []string{"Rayos X 1/1"},
			Status: model.StatusPending, Priority: model.PriorityCritical,
		},
	}
}

func TestEncodeAllDayEvents(t *testing.T) {
	out := Encode(sampleEvents(), EncodeOptions{Name: "Mantenimiento", Timezone: "UTC", Now: day("2024-01-01")})

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "X-WR-CALNAME:Mantenimiento")
	assert.Contains(t, out, "UID:a1@maintcal")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240108")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240109")
	assert.Contains(t, out, "STATUS:TENTATIVE")
	assert.Contains(t, out, "PRIORITY:1")
	assert.Contains(t, out, "X-MAINTCAL-UNIT-COUNT:2")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	events := sampleEvents()
	out := Encode(events, EncodeOptions{Now: day("2024-01-01")})

	res, err := Decode(strings.NewReader(out), DecodeOptions{From: day("2024-01-01")})
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, events, res.Events)
}

func foreignCalendar() string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:weekly-1",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;VALUE=DATE:20240101",
		"SUMMARY:Inspección autoclave",
		"CATEGORIES:calibración",
		"RRULE:FREQ=WEEKLY;COUNT=5",
		"EXDATE;VALUE=DATE:20240115",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:timed-1",
		"DTSTAMP:20240101T000000Z",
		"DTSTART:20240110T090000Z",
		"DTEND:20240110T123000Z",
		"SUMMARY:Compresor",
		"PRIORITY:1",
		"STATUS:TENTATIVE",
		`DESCRIPTION:Cambiar filtro\, revisar presión`,
		"END:VEVENT",
		"BEGIN:VEVENT",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;VALUE=DATE:20240110",
		"SUMMARY:no uid",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func TestDecodeForeignCalendar(t *testing.T) {
	res, err := Decode(strings.NewReader(foreignCalendar()), DecodeOptions{From: day("2024-01-01")})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.Empty(t, res.Truncated)
	require.Len(t, res.Events, 5)

	var weekly []model.Event
	var timed model.Event
	for _, e := range res.Events {
		if strings.HasPrefix(e.ID, "weekly-1-") {
			weekly = append(weekly, e)
		} else {
			timed = e
		}
	}

	require.Len(t, weekly, 4)
	assert.Equal(t, []time.Time{day("2024-01-01"), day("2024-01-08"), day("2024-01-22"), day("2024-01-29")},
		[]time.Time{weekly[0].Date, weekly[1].Date, weekly[2].Date, weekly[3].Date})
	assert.Equal(t, "weekly-1-20240108", weekly[1].ID)
	assert.Equal(t, model.PriorityHigh, weekly[0].Priority)
	assert.Equal(t, "calibración", weekly[0].MaintenanceType)
	assert.InDelta(t, 2.0, weekly[0].HoursPerUnit, 1e-9)
	assert.Equal(t, model.StatusScheduled, weekly[0].Status)
	assert.Equal(t, []string{"Inspección autoclave 1/1"}, weekly[0].UnitLabels)

	assert.Equal(t, "timed-1", timed.ID)
	assert.Equal(t, day("2024-01-10"), timed.Date)
	assert.InDelta(t, 3.5, timed.HoursPerUnit, 1e-9)
	assert.Equal(t, model.PriorityCritical, timed.Priority)
	assert.Equal(t, model.StatusPending, timed.Status)
	assert.Equal(t, "Cambiar filtro, revisar presión", timed.Notes)
}

func TestDecodeCapsRecurrence(t *testing.T) {
	res, err := Decode(strings.NewReader(foreignCalendar()), DecodeOptions{From: day("2024-01-01"), MaxOccurrencesPerEvent: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"weekly-1"}, res.Truncated)
	assert.Len(t, res.Events, 3)
}

func TestDecodeWindow(t *testing.T) {
	res, err := Decode(strings.NewReader(foreignCalendar()), DecodeOptions{From: day("2024-01-09"), To: day("2024-01-25")})
	require.NoError(t, err)
	// The window bounds recurring events only; timed-1 is kept as is.
	require.Len(t, res.Events, 2)
	assert.Equal(t, day("2024-01-22"), res.Events[0].Date)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("not a calendar"), DecodeOptions{})
	assert.Error(t, err)
}
