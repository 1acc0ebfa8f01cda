package web

import (
	"net/http"
	"time"

	"maintcal/internal/calendar"
	"maintcal/internal/metrics"
	"maintcal/internal/model"
)

type eventRequest struct {
	RequirementCode    string   `json:"requirement_code"`
	Name               string   `json:"name" validate:"required"`
	MaintenanceType    string   `json:"maintenance_type"`
	Date               string   `json:"date" validate:"required,datetime=2006-01-02"`
	HoursPerUnit       float64  `json:"hours_per_unit" validate:"gte=0"`
	UnitCount          int      `json:"unit_count" validate:"gte=0"`
	UnitLabels         []string `json:"unit_labels"`
	Status             string   `json:"status" validate:"omitempty,oneof=scheduled in-progress completed pending"`
	Priority           string   `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssignedTechnician string   `json:"assigned_technician"`
	Notes              string   `json:"notes"`
}

type patchRequest struct {
	Name               *string  `json:"name" validate:"omitempty,min=1"`
	MaintenanceType    *string  `json:"maintenance_type"`
	Date               *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	HoursPerUnit       *float64 `json:"hours_per_unit" validate:"omitempty,gt=0"`
	UnitCount          *int     `json:"unit_count" validate:"omitempty,gte=1"`
	UnitLabels         []string `json:"unit_labels"`
	Status             *string  `json:"status" validate:"omitempty,oneof=scheduled in-progress completed pending"`
	Priority           *string  `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	AssignedTechnician *string  `json:"assigned_technician"`
	Notes              *string  `json:"notes"`
}

type moveRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type eventsResponse struct {
	Events []model.Event `json:"events"`
	Count  int           `json:"count"`
	Hours  float64       `json:"hours"`
}

// handleListEvents returns events, optionally bounded by ?from= and ?to=
// (YYYY-MM-DD, inclusive).
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := optionalDay(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from: "+err.Error())
		return
	}
	to, err := optionalDay(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to: "+err.Error())
		return
	}

	events := s.planner.Calendar().EventsBetween(from, to)
	var hours float64
	for _, e := range events {
		hours += e.TotalHours()
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events, Count: len(events), Hours: hours})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := s.decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := model.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}

	e, err := s.planner.Calendar().AddEvent(calendar.EventInput{
		RequirementCode:    req.RequirementCode,
		Name:               req.Name,
		MaintenanceType:    req.MaintenanceType,
		Date:               date,
		HoursPerUnit:       req.HoursPerUnit,
		UnitCount:          req.UnitCount,
		UnitLabels:         req.UnitLabels,
		Status:             model.Status(req.Status),
		Priority:           model.Priority(req.Priority),
		AssignedTechnician: req.AssignedTechnician,
		Notes:              req.Notes,
	})
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	metrics.CalendarMutations.WithLabelValues("add").Inc()
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := s.planner.Calendar().Get(r.PathValue("id"))
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// handlePatchEvent applies a manual edit. A status here bypasses the
// workflow; use /status for checked transitions.
func (s *Server) handlePatchEvent(w http.ResponseWriter, r *http.Request) {
	var req patchRequest
	if err := s.decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	patch := calendar.Patch{
		Name:               req.Name,
		MaintenanceType:    req.MaintenanceType,
		HoursPerUnit:       req.HoursPerUnit,
		UnitCount:          req.UnitCount,
		UnitLabels:         req.UnitLabels,
		AssignedTechnician: req.AssignedTechnician,
		Notes:              req.Notes,
	}
	if req.Date != nil {
		d, err := model.ParseDay(*req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
			return
		}
		patch.Date = &d
	}
	if req.Status != nil {
		st := model.Status(*req.Status)
		patch.Status = &st
	}
	if req.Priority != nil {
		p := model.Priority(*req.Priority)
		patch.Priority = &p
	}

	e, err := s.planner.Calendar().UpdateEvent(r.PathValue("id"), patch)
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	metrics.CalendarMutations.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.planner.Calendar().DeleteEvent(r.PathValue("id")); err != nil {
		writeCalendarError(w, err)
		return
	}
	metrics.CalendarMutations.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveEvent changes only the date. Capacity is not re-validated.
func (s *Server) handleMoveEvent(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := s.decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := model.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}
	e, err := s.planner.Calendar().MoveEvent(r.PathValue("id"), d)
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	metrics.CalendarMutations.WithLabelValues("move").Inc()
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := s.decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e, err := s.planner.Calendar().SetStatus(r.PathValue("id"), model.Status(req.Status))
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	metrics.CalendarMutations.WithLabelValues("status").Inc()
	writeJSON(w, http.StatusOK, e)
}

func optionalDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return model.ParseDay(s)
}
