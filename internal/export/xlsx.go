package export

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"maintcal/internal/model"
)

const (
	EventsSheet  = "Events"
	SummarySheet = "Monthly Summary"
)

// EventsHeader is the header row of the events sheet.
var EventsHeader = []string{
	"Date",
	"Code",
	"Name",
	"Maintenance Type",
	"Units",
	"Unit Labels",
	"Hours per Unit",
	"Total Hours",
	"Status",
	"Priority",
	"Technician",
	"Notes",
}

// SummaryHeader is the header row of the monthly summary sheet.
var SummaryHeader = []string{"Month", "Events", "Hours", "Limit"}

// Summary carries the figures of the monthly sheet.
type Summary struct {
	// MonthlyLimit is written next to each month when positive.
	MonthlyLimit float64
}

// EventsWorkbook renders events as an XLSX workbook with an events sheet and
// a monthly summary sheet.
func EventsWorkbook(events []model.Event, summary Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(EventsSheet); err != nil {
		return nil, errors.Wrap(err, "create events sheet")
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, errors.Wrap(err, "create summary sheet")
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, errors.Wrap(err, "delete default sheet")
	}
	// Indices shift when Sheet1 is removed.
	index, err := f.GetSheetIndex(EventsSheet)
	if err != nil {
		return nil, errors.Wrap(err, "locate events sheet")
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create header style")
	}

	if err := writeHeader(f, EventsSheet, EventsHeader, headerStyle); err != nil {
		return nil, err
	}
	if err := writeHeader(f, SummarySheet, SummaryHeader, headerStyle); err != nil {
		return nil, err
	}

	columnWidths := []float64{12, 10, 28, 18, 8, 30, 14, 12, 12, 10, 18, 40}
	if err := setWidths(f, EventsSheet, columnWidths); err != nil {
		return nil, err
	}
	if err := setWidths(f, SummarySheet, []float64{12, 10, 10, 10}); err != nil {
		return nil, err
	}

	for i, e := range events {
		row := []any{
			e.Date.Format(model.DayLayout),
			e.RequirementCode,
			e.Name,
			e.MaintenanceType,
			e.UnitCount,
			strings.Join(e.UnitLabels, "; "),
			e.HoursPerUnit,
			e.TotalHours(),
			string(e.Status),
			string(e.Priority),
			e.AssignedTechnician,
			e.Notes,
		}
		if err := setRow(f, EventsSheet, i+2, row); err != nil {
			return nil, err
		}
	}

	type monthTotal struct {
		events int
		hours  float64
	}
	totals := map[model.YearMonth]*monthTotal{}
	for _, e := range events {
		ym := model.MonthOf(e.Date)
		if totals[ym] == nil {
			totals[ym] = &monthTotal{}
		}
		totals[ym].events++
		totals[ym].hours += e.TotalHours()
	}
	months := make([]model.YearMonth, 0, len(totals))
	for ym := range totals {
		months = append(months, ym)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	for i, ym := range months {
		row := []any{ym.String(), totals[ym].events, totals[ym].hours}
		if summary.MonthlyLimit > 0 {
			row = append(row, summary.MonthlyLimit)
		}
		if err := setRow(f, SummarySheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []string, style int) error {
	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return errors.Wrap(err, "convert coordinates")
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrapf(err, "set header cell %s", cell)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return errors.Wrap(err, "set header style")
		}
	}
	return nil
}

func setWidths(f *excelize.File, sheet string, widths []float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return errors.Wrap(err, "convert column number")
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return errors.Wrap(err, "set column width")
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "convert coordinates")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write row %d", row)
	}
	return nil
}
