package schedule

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "maintcal/internal/log"
	"maintcal/internal/model"
	"maintcal/internal/normalize"
)

// Skip records a due occurrence dropped because its month was already at the
// monthly limit. Skipped occurrences are not deferred.
type Skip struct {
	RequirementCode string          `json:"requirement_code"`
	Due             time.Time       `json:"due"`
	Month           model.YearMonth `json:"month"`
	Hours           float64         `json:"hours"`
	BucketHours     float64         `json:"bucket_hours"`
}

// Result is the output of one distribution run.
type Result struct {
	Events []model.Event `json:"events"`

	HorizonStart time.Time `json:"horizon_start"`
	HorizonEnd   time.Time `json:"horizon_end"`

	TargetMonthlyHours float64 `json:"target_monthly_hours"`
	MonthlyLimit       float64 `json:"monthly_limit"`

	// MonthHours are the acceptance buckets, keyed by the month of the due
	// date (not of the allocator-resolved date).
	MonthHours map[model.YearMonth]float64 `json:"month_hours"`

	Skipped []Skip `json:"skipped,omitempty"`

	// Overflows counts accepted occurrences for which the allocator found
	// no day with spare capacity and fell back to the due date.
	Overflows int `json:"overflows"`

	// Truncated lists requirement codes whose cadence was cut by the
	// occurrence cap before reaching the horizon end.
	Truncated []string `json:"truncated,omitempty"`
}

// Distributor expands requirements into a year of events, keeping each
// month within a band around the average monthly load.
type Distributor struct {
	opts  Options
	alloc *Allocator
	now   func() time.Time
	newID func() string
}

func NewDistributor(opts Options) *Distributor {
	opts = opts.normalized()
	return &Distributor{
		opts:  opts,
		alloc: NewAllocator(opts),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// WithClock overrides the clock used to mark past events completed.
func (d *Distributor) WithClock(now func() time.Time) *Distributor {
	d.now = now
	return d
}

// Allocator exposes the capacity allocator used by d.
func (d *Distributor) Allocator() *Allocator { return d.alloc }

// Distribute schedules reqs over [start, end]. A zero end means one year
// after start. Requirements are processed in input order and each is walked
// chronologically; there is no backtracking across requirements.
func (d *Distributor) Distribute(reqs []model.Requirement, start, end time.Time) Result {
	start = model.Day(start)
	if end.IsZero() {
		end = start.AddDate(1, 0, 0)
	}
	end = model.Day(end)

	target := TargetMonthlyHours(reqs, d.opts)
	limit := d.opts.MonthlyLimit(target)
	today := model.Day(d.now())

	res := Result{
		HorizonStart:       start,
		HorizonEnd:         end,
		TargetMonthlyHours: target,
		MonthlyLimit:       limit,
		MonthHours:         make(map[model.YearMonth]float64),
	}
	for _, ym := range model.MonthsBetween(start, end) {
		res.MonthHours[ym] = 0
	}

	events := make([]model.Event, 0)

	for idx, req := range reqs {
		interval := normalize.FrequencyWithDefault(req.FrequencyText, d.opts.DefaultFrequencyDays).Days
		unitHours := normalize.DurationWithDefault(req.DurationText, d.opts.DefaultDurationHours).Hours
		priority := normalize.Priority(req.MaintenanceTypeText)
		units := unitCount(req)
		hoursNeeded := unitHours * float64(units)

		seed := start.AddDate(0, 0, idx*d.opts.SeedOffsetDays)
		dues := cadence(seed, end, interval, d.opts.MaxOccurrences)
		if len(dues) == d.opts.MaxOccurrences && !dues[len(dues)-1].AddDate(0, 0, interval).After(end) {
			res.Truncated = append(res.Truncated, req.Code)
			appLog.Debug("distribute: occurrence cap reached",
				"code", req.Code,
				"cap", d.opts.MaxOccurrences,
				"interval_days", interval,
			)
		}

		for _, due := range dues {
			month := model.MonthOf(due)
			if res.MonthHours[month]+hoursNeeded > limit {
				res.Skipped = append(res.Skipped, Skip{
					RequirementCode: req.Code,
					Due:             due,
					Month:           month,
					Hours:           hoursNeeded,
					BucketHours:     res.MonthHours[month],
				})
				continue
			}

			day, ok := d.alloc.FindSlot(due, events, hoursNeeded)
			if !ok {
				res.Overflows++
			}
			events = append(events, d.newEvent(req, day, unitHours, units, priority, today))
			res.MonthHours[month] += hoursNeeded
		}
	}

	slices.SortStableFunc(events, func(a, b model.Event) int {
		return a.Date.Compare(b.Date)
	})
	res.Events = events

	appLog.Info("distribute completed",
		"requirements", len(reqs),
		"events", len(events),
		"skipped", len(res.Skipped),
		"overflows", res.Overflows,
		"target_monthly_hours", target,
	)
	return res
}

func (d *Distributor) newEvent(req model.Requirement, day time.Time, unitHours float64, units int, priority model.Priority, today time.Time) model.Event {
	status := model.StatusScheduled
	if day.Before(today) {
		status = model.StatusCompleted
	}
	return model.Event{
		ID:              d.newID(),
		RequirementCode: req.Code,
		Name:            req.Name,
		MaintenanceType: req.MaintenanceTypeText,
		Date:            day,
		HoursPerUnit:    unitHours,
		UnitCount:       units,
		UnitLabels:      req.Labels(),
		Status:          status,
		Priority:        priority,
	}
}

// cadence lists seed, seed+interval, ... up to end inclusive, at most limit
// entries.
func cadence(seed, end time.Time, interval, limit int) []time.Time {
	if seed.After(end) {
		return nil
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: interval,
		Count:    limit,
		Dtstart:  seed,
		Until:    end,
	})
	if err != nil {
		appLog.Error("distribute: building cadence rule failed; stepping manually", err, "interval_days", interval)
		var out []time.Time
		for cur := seed; !cur.After(end) && len(out) < limit; cur = cur.AddDate(0, 0, interval) {
			out = append(out, cur)
		}
		return out
	}
	out := r.All()
	for i := range out {
		out[i] = model.Day(out[i])
	}
	return out
}
