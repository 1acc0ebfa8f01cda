package model

import (
	"fmt"
	"time"
)

// Requirement describes the maintenance policy of one equipment denomination
// before it is expanded into concrete events.
type Requirement struct {
	Code           string `yaml:"code" json:"code" validate:"required"`
	Name           string `yaml:"name" json:"name" validate:"required"`
	EquipmentCount int    `yaml:"equipment_count" json:"equipment_count" validate:"min=1"`

	// Free-text source fields; normalized by internal/normalize.
	FrequencyText       string `yaml:"frequency" json:"frequency"`
	MaintenanceTypeText string `yaml:"maintenance_type" json:"maintenance_type"`
	DurationText        string `yaml:"duration,omitempty" json:"duration,omitempty"`

	// UnitLabels optionally names each physical unit (serial numbers, tags).
	// Ignored unless len(UnitLabels) == EquipmentCount.
	UnitLabels []string `yaml:"unit_labels,omitempty" json:"unit_labels,omitempty"`
}

// Labels returns one display label per unit of the denomination.
func (r Requirement) Labels() []string {
	n := r.EquipmentCount
	if n < 1 {
		n = 1
	}
	if len(r.UnitLabels) == n {
		out := make([]string, n)
		copy(out, r.UnitLabels)
		return out
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d/%d", r.Name, i+1, n)
	}
	return out
}

// Status is the lifecycle state of a scheduled event.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusPending    Status = "pending"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusPending:
		return true
	}
	return false
}

// CanTransition reports whether the workflow allows moving from s to next.
// Manual edits bypass this check.
//
//	{scheduled, pending} <-> in-progress <-> completed
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	switch s {
	case StatusScheduled, StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusScheduled || next == StatusPending || next == StatusCompleted
	case StatusCompleted:
		return next == StatusInProgress
	}
	return false
}

// Priority is the urgency tier derived from the maintenance type.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Event is a single scheduled maintenance visit covering one or more units
// of a denomination on one calendar day.
type Event struct {
	ID              string `json:"id"`
	RequirementCode string `json:"requirement_code"`
	Name            string `json:"name"`
	MaintenanceType string `json:"maintenance_type"`

	// Date is a calendar day at midnight UTC (see Day).
	Date time.Time `json:"date"`

	HoursPerUnit float64  `json:"hours_per_unit"`
	UnitCount    int      `json:"unit_count"`
	UnitLabels   []string `json:"unit_labels"`

	Status             Status   `json:"status"`
	Priority           Priority `json:"priority"`
	AssignedTechnician string   `json:"assigned_technician,omitempty"`
	Notes              string   `json:"notes,omitempty"`
}

// TotalHours is the capacity-accounting unit: hours per unit times units.
func (e Event) TotalHours() float64 {
	return e.HoursPerUnit * float64(e.UnitCount)
}

// Clone returns a copy that shares no slices with e.
func (e Event) Clone() Event {
	if e.UnitLabels != nil {
		labels := make([]string, len(e.UnitLabels))
		copy(labels, e.UnitLabels)
		e.UnitLabels = labels
	}
	return e
}
