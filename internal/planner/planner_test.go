package planner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintcal/internal/config"
	"maintcal/internal/model"
)

func newTestPlanner(t *testing.T) *Planner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Requirements = filepath.Join(cfg.DataDir, "requirements.yaml")
	return New(cfg).WithClock(func() time.Time {
		return time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)
	})
}

func requirements() []model.Requirement {
	return []model.Requirement{
		{Code: "R1", Name: "Ventilador", EquipmentCount: 2, FrequencyText: "mensual", MaintenanceTypeText: "preventivo", DurationText: "4h"},
	}
}

func TestGenerateReplacesCalendar(t *testing.T) {
	p := newTestPlanner(t)

	_, err := p.Last()
	assert.ErrorIs(t, err, ErrNoGeneration)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	gen, err := p.Generate(context.Background(), GenerateRequest{Start: start, Requirements: requirements()})
	require.NoError(t, err)
	assert.Equal(t, TriggerManual, gen.Trigger)
	assert.Len(t, gen.Result.Events, 11)
	assert.Equal(t, 11, p.Calendar().Len())
	assert.InDelta(t, 24.0, p.Calendar().DailyCeiling(), 1e-9)

	// Jan 1 precedes the clock's day and is already completed.
	first := p.Calendar().Events()[0]
	assert.Equal(t, start, first.Date)
	assert.Equal(t, model.StatusCompleted, first.Status)

	last, err := p.Last()
	require.NoError(t, err)
	assert.Equal(t, gen.Result.HorizonEnd, last.Result.HorizonEnd)

	assert.FileExists(t, filepath.Join(p.Config().DataDir, "calendar.ics"))
	assert.FileExists(t, filepath.Join(p.Config().DataDir, "calendar.xlsx"))

	// Manual edits are discarded by the next generation.
	require.NoError(t, p.Calendar().DeleteEvent(first.ID))
	_, err = p.Generate(context.Background(), GenerateRequest{Start: start, Requirements: requirements()})
	require.NoError(t, err)
	assert.Equal(t, 11, p.Calendar().Len())
}

func TestGenerateDefaultsStartToToday(t *testing.T) {
	p := newTestPlanner(t)
	gen, err := p.Generate(context.Background(), GenerateRequest{Requirements: requirements()})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), gen.Result.HorizonStart)
}

func TestGenerateLoadsConfiguredSource(t *testing.T) {
	p := newTestPlanner(t)
	require.NoError(t, os.WriteFile(p.Config().Requirements, []byte(`
- code: MON
  name: Monitor
  equipment_count: 1
  frequency: trimestral
  maintenance_type: preventivo
  duration: 1h
`), 0o600))

	gen, err := p.Generate(context.Background(), GenerateRequest{Trigger: TriggerCLI})
	require.NoError(t, err)
	require.Len(t, gen.Requirements, 1)
	assert.NotEmpty(t, gen.Result.Events)
	assert.Equal(t, TriggerCLI, gen.Trigger)
}

func TestGenerateFailsWithoutSource(t *testing.T) {
	p := newTestPlanner(t)
	_, err := p.Generate(context.Background(), GenerateRequest{})
	assert.Error(t, err)
	_, err = p.Last()
	assert.ErrorIs(t, err, ErrNoGeneration)
}

func TestExportImportICS(t *testing.T) {
	p := newTestPlanner(t)
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	_, err := p.Generate(context.Background(), GenerateRequest{Start: start, Requirements: requirements()})
	require.NoError(t, err)

	exported := p.ExportICS()
	assert.Equal(t, 11, strings.Count(exported, "BEGIN:VEVENT"))
	before := p.Calendar().Events()

	res, err := p.ImportICS(strings.NewReader(exported), true)
	require.NoError(t, err)
	assert.Len(t, res.Events, 11)
	assert.Equal(t, before, p.Calendar().Events())

	extra := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//test//EN",
		"BEGIN:VEVENT",
		"UID:extra-1",
		"DTSTAMP:20240101T000000Z",
		"DTSTART;VALUE=DATE:20240301",
		"SUMMARY:Compresor",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n") + "\r\n"
	_, err = p.ImportICS(strings.NewReader(extra), false)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Calendar().Len())
	_, err = p.Calendar().Get("extra-1")
	assert.NoError(t, err)
}

func TestExportXLSX(t *testing.T) {
	p := newTestPlanner(t)
	_, err := p.Generate(context.Background(), GenerateRequest{Requirements: requirements()})
	require.NoError(t, err)
	book, err := p.ExportXLSX()
	require.NoError(t, err)
	assert.NotEmpty(t, book)
}

func TestStartCron(t *testing.T) {
	p := newTestPlanner(t)
	require.NoError(t, p.StartCron(context.Background()))
	p.StopCron()

	p.Config().RegenerateCron = "every tuesday"
	assert.Error(t, p.StartCron(context.Background()))

	p.Config().RegenerateCron = "0 3 1 * *"
	require.NoError(t, p.StartCron(context.Background()))
	p.StopCron()
}
