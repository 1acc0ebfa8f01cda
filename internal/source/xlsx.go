package source

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"maintcal/internal/model"
)

type column int

const (
	colCode column = iota
	colName
	colCount
	colFrequency
	colType
	colDuration
	colLabels
)

// headerAliases maps a lower-cased, trimmed header cell to a column. Matching
// is exact; unknown headers are ignored.
var headerAliases = map[string]column{
	"code":   colCode,
	"codigo": colCode,
	"código": colCode,

	"name":         colName,
	"equipment":    colName,
	"equipo":       colName,
	"denomination": colName,
	"denominacion": colName,
	"denominación": colName,

	"equipment_count": colCount,
	"count":           colCount,
	"quantity":        colCount,
	"cantidad":        colCount,

	"frequency":  colFrequency,
	"frecuencia": colFrequency,

	"maintenance_type":      colType,
	"maintenance type":      colType,
	"tipo":                  colType,
	"tipo de mantenimiento": colType,
	"tipo_mantenimiento":    colType,

	"duration": colDuration,
	"duracion": colDuration,
	"duración": colDuration,

	"unit_labels": colLabels,
	"unit labels": colLabels,
	"serials":     colLabels,
	"series":      colLabels,
}

// TemplateHeader is the header row written by RequirementTemplate.
var TemplateHeader = []string{"Code", "Name", "Quantity", "Frequency", "Maintenance Type", "Duration", "Unit Labels"}

// DecodeXLSX reads requirements from the first sheet of a workbook. Row 1 is
// the header; blank rows are skipped. Unit labels are separated by ';'.
// A missing code becomes "R<row>", a blank quantity becomes 1.
func DecodeXLSX(r io.Reader) ([]model.Requirement, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet is empty")
	}

	index := map[column]int{}
	for i, h := range rows[0] {
		if c, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	for _, required := range []column{colName, colFrequency} {
		if _, ok := index[required]; !ok {
			return nil, errors.Errorf("missing required column for %s", required)
		}
	}

	var out []model.Requirement
	for n, row := range rows[1:] {
		rowNum := n + 2
		cell := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if isBlank(row) {
			continue
		}

		req := model.Requirement{
			Code:                cell(colCode),
			Name:                cell(colName),
			FrequencyText:       cell(colFrequency),
			MaintenanceTypeText: cell(colType),
			DurationText:        cell(colDuration),
			EquipmentCount:      1,
		}
		if req.Code == "" {
			req.Code = fmt.Sprintf("R%d", rowNum)
		}
		if raw := cell(colCount); raw != "" {
			f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d: invalid quantity %q", rowNum, raw)
			}
			req.EquipmentCount = int(f)
		}
		if raw := cell(colLabels); raw != "" {
			for _, l := range strings.Split(raw, ";") {
				if l = strings.TrimSpace(l); l != "" {
					req.UnitLabels = append(req.UnitLabels, l)
				}
			}
		}
		out = append(out, req)
	}
	return out, nil
}

// RequirementTemplate returns an empty workbook with the import header.
func RequirementTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Requirements"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if err := f.SetSheetRow(sheet, "A1", &TemplateHeader); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func (c column) String() string {
	switch c {
	case colCode:
		return "code"
	case colName:
		return "name"
	case colCount:
		return "quantity"
	case colFrequency:
		return "frequency"
	case colType:
		return "maintenance type"
	case colDuration:
		return "duration"
	case colLabels:
		return "unit labels"
	}
	return "unknown"
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
