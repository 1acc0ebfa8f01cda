package schedule

import (
	"time"

	"maintcal/internal/model"
	"maintcal/internal/normalize"
)

const (
	defaultTechnicians        = 3
	defaultHoursPerTechnician = 8.0
	defaultMaxProbeDays       = 60
	defaultMonthlyOverage     = 0.2
	defaultMaxOccurrences     = 15
	defaultSeedOffsetDays     = 2
)

// Options holds the policy constants of the scheduler. Zero values are
// replaced by defaults in normalized().
type Options struct {
	// Daily capacity ceiling is Technicians * HoursPerTechnician.
	Technicians        int
	HoursPerTechnician float64

	// MaxProbeDays bounds how far the allocator searches forward.
	MaxProbeDays int

	// MonthlyOverage is the tolerance above the monthly target (0.2 = 120%).
	// Negative disables the tolerance; zero means default.
	MonthlyOverage float64

	// MaxOccurrences caps the occurrences walked per requirement.
	MaxOccurrences int

	// SeedOffsetDays staggers each requirement's first occurrence by
	// index * SeedOffsetDays.
	SeedOffsetDays int

	DefaultFrequencyDays int
	DefaultDurationHours float64

	// Holidays are extra non-working days for the allocator.
	Holidays []time.Time
}

func DefaultOptions() Options {
	return Options{
		Technicians:          defaultTechnicians,
		HoursPerTechnician:   defaultHoursPerTechnician,
		MaxProbeDays:         defaultMaxProbeDays,
		MonthlyOverage:       defaultMonthlyOverage,
		MaxOccurrences:       defaultMaxOccurrences,
		SeedOffsetDays:       defaultSeedOffsetDays,
		DefaultFrequencyDays: normalize.DefaultFrequencyDays,
		DefaultDurationHours: normalize.DefaultDurationHours,
	}
}

func (o Options) normalized() Options {
	if o.Technicians <= 0 {
		o.Technicians = defaultTechnicians
	}
	if o.HoursPerTechnician <= 0 {
		o.HoursPerTechnician = defaultHoursPerTechnician
	}
	if o.MaxProbeDays <= 0 {
		o.MaxProbeDays = defaultMaxProbeDays
	}
	if o.MonthlyOverage == 0 {
		o.MonthlyOverage = defaultMonthlyOverage
	}
	if o.MonthlyOverage < 0 {
		o.MonthlyOverage = 0
	}
	if o.MaxOccurrences <= 0 {
		o.MaxOccurrences = defaultMaxOccurrences
	}
	if o.SeedOffsetDays < 0 {
		o.SeedOffsetDays = 0
	}
	if o.DefaultFrequencyDays <= 0 {
		o.DefaultFrequencyDays = normalize.DefaultFrequencyDays
	}
	if o.DefaultDurationHours <= 0 {
		o.DefaultDurationHours = normalize.DefaultDurationHours
	}
	return o
}

// DailyCeiling is the maximum technician-hours schedulable on one day.
func (o Options) DailyCeiling() float64 {
	n := o.normalized()
	return float64(n.Technicians) * n.HoursPerTechnician
}

// MonthlyLimit is the acceptance threshold for a month bucket.
func (o Options) MonthlyLimit(target float64) float64 {
	return target * (1 + o.normalized().MonthlyOverage)
}

func (o Options) holidaySet() map[time.Time]struct{} {
	set := make(map[time.Time]struct{}, len(o.Holidays))
	for _, h := range o.Holidays {
		set[model.Day(h)] = struct{}{}
	}
	return set
}
