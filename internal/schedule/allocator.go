package schedule

import (
	"time"

	"github.com/samber/lo"

	"maintcal/internal/model"
)

// Allocator finds the nearest working day with enough spare capacity.
type Allocator struct {
	dailyCeiling float64
	maxProbeDays int
	holidays     map[time.Time]struct{}
}

func NewAllocator(opts Options) *Allocator {
	opts = opts.normalized()
	return &Allocator{
		dailyCeiling: opts.DailyCeiling(),
		maxProbeDays: opts.MaxProbeDays,
		holidays:     opts.holidaySet(),
	}
}

// DailyCeiling returns the per-day hour capacity.
func (a *Allocator) DailyCeiling() float64 { return a.dailyCeiling }

// IsWorkday reports whether events may be placed on d.
func (a *Allocator) IsWorkday(d time.Time) bool {
	d = model.Day(d)
	if model.IsWeekend(d) {
		return false
	}
	_, holiday := a.holidays[d]
	return !holiday
}

// FindSlot probes desired, desired+1, ... for up to maxProbeDays calendar days
// and returns the first workday whose committed hours plus requiredHours fit
// under the ceiling.
//
// When no day in the window fits, desired is returned unchanged with
// ok == false: capacity is allowed to overflow rather than pushing the visit
// arbitrarily far out. existing is only read.
func (a *Allocator) FindSlot(desired time.Time, existing []model.Event, requiredHours float64) (time.Time, bool) {
	desired = model.Day(desired)
	for i := 0; i < a.maxProbeDays; i++ {
		candidate := desired.AddDate(0, 0, i)
		if !a.IsWorkday(candidate) {
			continue
		}
		if usedHours(existing, candidate)+requiredHours <= a.dailyCeiling {
			return candidate, true
		}
	}
	return desired, false
}

func usedHours(events []model.Event, day time.Time) float64 {
	return lo.SumBy(events, func(e model.Event) float64 {
		if !e.Date.Equal(day) {
			return 0
		}
		return e.TotalHours()
	})
}
