package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"maintcal/internal/model"
)

func TestEventsWorkbook(t *testing.T) {
	jan := time.Date(2024, time.January, 8, 0, 0, 0, 0, time.UTC)
	events := []model.Event{
		{ID: "1", RequirementCode: "VENT", Name: "Ventilador", MaintenanceType: "preventivo", Date: jan,
			HoursPerUnit: 2.5, UnitCount: 2, UnitLabels: []string{"SN-1", "SN-2"},
			Status: model.StatusScheduled, Priority: model.PriorityMedium, AssignedTechnician: "Ana"},
		{ID: "2", RequirementCode: "RX", Name: "Rayos X", MaintenanceType: "correctivo", Date: jan.AddDate(0, 0, 1),
			HoursPerUnit: 8, UnitCount: 1, UnitLabels: []string{"Rayos X 1/1"},
			Status: model.StatusPending, Priority: model.PriorityCritical, Notes: "urgente"},
		{ID: "3", RequirementCode: "VENT", Name: "Ventilador", Date: jan.AddDate(0, 1, 0),
			HoursPerUnit: 1, UnitCount: 1, UnitLabels: []string{"SN-1"},
			Status: model.StatusScheduled, Priority: model.PriorityLow},
	}

	data, err := EventsWorkbook(events, Summary{MonthlyLimit: 16})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{EventsSheet, SummarySheet}, f.GetSheetList())
	assert.Equal(t, EventsSheet, f.GetSheetName(f.GetActiveSheetIndex()), "opens on the events sheet")

	rows, err := f.GetRows(EventsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.GreaterOrEqual(t, len(rows[1]), 11)
	require.Len(t, rows[2], 12)
	assert.Equal(t, EventsHeader, rows[0])
	assert.Equal(t, []string{"2024-01-08", "VENT", "Ventilador", "preventivo", "2", "SN-1; SN-2", "2.5", "5", "scheduled", "medium", "Ana"}, rows[1][:11])
	assert.Equal(t, "urgente", rows[2][11])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, []string{"2024-01", "2", "13", "16"}, summary[1])
	assert.Equal(t, []string{"2024-02", "1", "1", "16"}, summary[2])
}

func TestEventsWorkbookEmpty(t *testing.T) {
	data, err := EventsWorkbook(nil, Summary{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(EventsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
