package schedule

import (
	"github.com/samber/lo"

	"maintcal/internal/model"
	"maintcal/internal/normalize"
)

// Demand is the yearly workload implied by one requirement.
type Demand struct {
	Code               string  `json:"code"`
	FrequencyDays      int     `json:"frequency_days"`
	HoursPerUnit       float64 `json:"hours_per_unit"`
	EquipmentCount     int     `json:"equipment_count"`
	OccurrencesPerYear int     `json:"occurrences_per_year"`
	AnnualHours        float64 `json:"annual_hours"`
}

// EstimateDemand computes floor(365/interval) * hours * units for r.
func EstimateDemand(r model.Requirement, opts Options) Demand {
	opts = opts.normalized()
	freq := normalize.FrequencyWithDefault(r.FrequencyText, opts.DefaultFrequencyDays)
	dur := normalize.DurationWithDefault(r.DurationText, opts.DefaultDurationHours)
	units := unitCount(r)

	occ := 365 / freq.Days
	return Demand{
		Code:               r.Code,
		FrequencyDays:      freq.Days,
		HoursPerUnit:       dur.Hours,
		EquipmentCount:     units,
		OccurrencesPerYear: occ,
		AnnualHours:        float64(occ) * dur.Hours * float64(units),
	}
}

// TargetMonthlyHours is the annual demand of all requirements spread evenly
// over twelve months.
func TargetMonthlyHours(reqs []model.Requirement, opts Options) float64 {
	total := lo.SumBy(reqs, func(r model.Requirement) float64 {
		return EstimateDemand(r, opts).AnnualHours
	})
	return total / 12
}

func unitCount(r model.Requirement) int {
	if r.EquipmentCount < 1 {
		return 1
	}
	return r.EquipmentCount
}
