package calendar

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"maintcal/internal/model"
)

var (
	ErrEventNotFound     = errors.New("event not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidPriority   = errors.New("invalid priority")
)

// Calendar holds the authoritative event list for the visible horizon.
// Every aggregate is recomputed from the list on demand; no counters are
// cached, so manual edits are always reflected.
type Calendar struct {
	mu           sync.RWMutex
	events       []model.Event
	dailyCeiling float64
	newID        func() string
}

// New creates an empty calendar with the given daily hour ceiling, used only
// for capacity classification.
func New(dailyCeiling float64) *Calendar {
	return &Calendar{
		dailyCeiling: dailyCeiling,
		newID:        uuid.NewString,
	}
}

// DailyCeiling returns the per-day capacity used for classification.
func (c *Calendar) DailyCeiling() float64 {
	return c.dailyCeiling
}

// Replace swaps in a freshly generated event list.
func (c *Calendar) Replace(events []model.Event) {
	cp := make([]model.Event, 0, len(events))
	for _, e := range events {
		e = e.Clone()
		e.Date = model.Day(e.Date)
		cp = append(cp, e)
	}
	sortByDate(cp)

	c.mu.Lock()
	c.events = cp
	c.mu.Unlock()
}

// Merge overwrites held events that share an id with one in events and
// appends the rest, under a single lock. It returns the resulting count.
func (c *Calendar) Merge(events []model.Event) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos := make(map[string]int, len(c.events))
	for i, e := range c.events {
		pos[e.ID] = i
	}
	for _, e := range events {
		e = e.Clone()
		e.Date = model.Day(e.Date)
		if i, ok := pos[e.ID]; ok {
			c.events[i] = e
			continue
		}
		pos[e.ID] = len(c.events)
		c.events = append(c.events, e)
	}
	sortByDate(c.events)
	return len(c.events)
}

// Events returns a copy of every event, sorted by date.
func (c *Calendar) Events() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(c.events)
}

// Len returns the number of held events.
func (c *Calendar) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.events)
}

// Get returns the event with the given id.
func (c *Calendar) Get(id string) (model.Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := c.indexOf(id)
	if i < 0 {
		return model.Event{}, ErrEventNotFound
	}
	return c.events[i].Clone(), nil
}

// EventsBetween returns events whose date lies in [from, to]. A zero bound is
// open.
func (c *Calendar) EventsBetween(from, to time.Time) []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := lo.Filter(c.events, func(e model.Event, _ int) bool {
		if !from.IsZero() && e.Date.Before(model.Day(from)) {
			return false
		}
		if !to.IsZero() && e.Date.After(model.Day(to)) {
			return false
		}
		return true
	})
	return cloneAll(out)
}

func (c *Calendar) EventsOnDay(d time.Time) []model.Event {
	d = model.Day(d)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneAll(lo.Filter(c.events, func(e model.Event, _ int) bool {
		return e.Date.Equal(d)
	}))
}

func (c *Calendar) HoursOnDay(d time.Time) float64 {
	d = model.Day(d)
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sumHours(c.events, func(e model.Event) bool { return e.Date.Equal(d) })
}

func (c *Calendar) HoursInMonth(ym model.YearMonth) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sumHours(c.events, func(e model.Event) bool { return model.MonthOf(e.Date) == ym })
}

// HoursInYear sums every held event; the calendar spans one generated year.
func (c *Calendar) HoursInYear() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sumHours(c.events, func(model.Event) bool { return true })
}

// MonthlyHours groups total hours by month for every month that has events.
func (c *Calendar) MonthlyHours() map[model.YearMonth]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[model.YearMonth]float64)
	for _, e := range c.events {
		out[model.MonthOf(e.Date)] += e.TotalHours()
	}
	return out
}

// AddEvent inserts a manually created event. No capacity check is made.
func (c *Calendar) AddEvent(in EventInput) (model.Event, error) {
	e, err := in.build()
	if err != nil {
		return model.Event{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e.ID = c.newID()
	c.events = append(c.events, e)
	sortByDate(c.events)
	return e.Clone(), nil
}

// UpdateEvent applies patch to the event. A status in the patch is a manual
// override and skips the workflow check.
func (c *Calendar) UpdateEvent(id string, patch Patch) (model.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return model.Event{}, ErrEventNotFound
	}
	updated, err := patch.apply(c.events[i])
	if err != nil {
		return model.Event{}, err
	}
	c.events[i] = updated
	if patch.Date != nil {
		sortByDate(c.events)
	}
	return updated.Clone(), nil
}

func (c *Calendar) DeleteEvent(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return ErrEventNotFound
	}
	c.events = slices.Delete(c.events, i, i+1)
	return nil
}

// MoveEvent changes only the date of an event.
func (c *Calendar) MoveEvent(id string, d time.Time) (model.Event, error) {
	return c.UpdateEvent(id, Patch{Date: &d})
}

// SetStatus moves an event through the status workflow, rejecting
// transitions the workflow does not allow.
func (c *Calendar) SetStatus(id string, s model.Status) (model.Event, error) {
	if !s.Valid() {
		return model.Event{}, ErrInvalidStatus
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return model.Event{}, ErrEventNotFound
	}
	if !c.events[i].Status.CanTransition(s) {
		return model.Event{}, ErrInvalidTransition
	}
	c.events[i].Status = s
	return c.events[i].Clone(), nil
}

func (c *Calendar) indexOf(id string) int {
	return slices.IndexFunc(c.events, func(e model.Event) bool { return e.ID == id })
}

func sumHours(events []model.Event, keep func(model.Event) bool) float64 {
	return lo.SumBy(events, func(e model.Event) float64 {
		if !keep(e) {
			return 0
		}
		return e.TotalHours()
	})
}

func sortByDate(events []model.Event) {
	slices.SortStableFunc(events, func(a, b model.Event) int {
		return a.Date.Compare(b.Date)
	})
}

func cloneAll(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, e := range events {
		out[i] = e.Clone()
	}
	return out
}
