package calendar

import (
	"time"

	"maintcal/internal/model"
	"maintcal/internal/normalize"
)

// EventInput is the data for a manually added event. Zero values are
// defaulted: one unit, 2 hours per unit, status scheduled, priority from the
// maintenance type.
type EventInput struct {
	RequirementCode    string
	Name               string
	MaintenanceType    string
	Date               time.Time
	HoursPerUnit       float64
	UnitCount          int
	UnitLabels         []string
	Status             model.Status
	Priority           model.Priority
	AssignedTechnician string
	Notes              string
}

func (in EventInput) build() (model.Event, error) {
	e := model.Event{
		RequirementCode:    in.RequirementCode,
		Name:               in.Name,
		MaintenanceType:    in.MaintenanceType,
		Date:               model.Day(in.Date),
		HoursPerUnit:       in.HoursPerUnit,
		UnitCount:          in.UnitCount,
		Status:             in.Status,
		Priority:           in.Priority,
		AssignedTechnician: in.AssignedTechnician,
		Notes:              in.Notes,
	}
	if e.HoursPerUnit <= 0 {
		e.HoursPerUnit = normalize.DefaultDurationHours
	}
	if e.UnitCount < 1 {
		e.UnitCount = 1
	}
	if e.Status == "" {
		e.Status = model.StatusScheduled
	}
	if !e.Status.Valid() {
		return model.Event{}, ErrInvalidStatus
	}
	if e.Priority == "" {
		e.Priority = normalize.Priority(e.MaintenanceType)
	}
	if !e.Priority.Valid() {
		return model.Event{}, ErrInvalidPriority
	}
	e.UnitLabels = labelsFor(e.Name, e.UnitCount, in.UnitLabels)
	return e, nil
}

// Patch is a partial manual edit. Nil fields are left untouched.
type Patch struct {
	Name               *string
	MaintenanceType    *string
	Date               *time.Time
	HoursPerUnit       *float64
	UnitCount          *int
	UnitLabels         []string
	Status             *model.Status
	Priority           *model.Priority
	AssignedTechnician *string
	Notes              *string
}

func (p Patch) apply(e model.Event) (model.Event, error) {
	e = e.Clone()
	if p.Status != nil {
		if !p.Status.Valid() {
			return model.Event{}, ErrInvalidStatus
		}
		e.Status = *p.Status
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return model.Event{}, ErrInvalidPriority
		}
		e.Priority = *p.Priority
	}
	if p.Name != nil {
		e.Name = *p.Name
	}
	if p.MaintenanceType != nil {
		e.MaintenanceType = *p.MaintenanceType
	}
	if p.Date != nil {
		e.Date = model.Day(*p.Date)
	}
	if p.HoursPerUnit != nil && *p.HoursPerUnit > 0 {
		e.HoursPerUnit = *p.HoursPerUnit
	}
	if p.UnitCount != nil && *p.UnitCount >= 1 {
		e.UnitCount = *p.UnitCount
	}
	if p.AssignedTechnician != nil {
		e.AssignedTechnician = *p.AssignedTechnician
	}
	if p.Notes != nil {
		e.Notes = *p.Notes
	}
	labels := e.UnitLabels
	if p.UnitLabels != nil {
		labels = p.UnitLabels
	}
	e.UnitLabels = labelsFor(e.Name, e.UnitCount, labels)
	return e, nil
}

// labelsFor keeps labels when they match count, otherwise synthesizes them.
func labelsFor(name string, count int, labels []string) []string {
	return model.Requirement{Name: name, EquipmentCount: count, UnitLabels: labels}.Labels()
}
