package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/samber/lo"

	"maintcal/internal/calendar"
	"maintcal/internal/model"
	"maintcal/internal/normalize"
	"maintcal/internal/planner"
	"maintcal/internal/schedule"
	"maintcal/internal/source"
)

type generateRequest struct {
	// Start of the horizon (YYYY-MM-DD); empty means today.
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	// Requirements to schedule; empty means the configured source.
	Requirements []model.Requirement `json:"requirements" validate:"omitempty,dive"`
}

type generateResponse struct {
	GeneratedAt        time.Time       `json:"generated_at"`
	Trigger            string          `json:"trigger"`
	HorizonStart       time.Time       `json:"horizon_start"`
	HorizonEnd         time.Time       `json:"horizon_end"`
	Requirements       int             `json:"requirements"`
	Events             int             `json:"events"`
	TargetMonthlyHours float64         `json:"target_monthly_hours"`
	MonthlyLimit       float64         `json:"monthly_limit"`
	Skipped            []schedule.Skip `json:"skipped"`
	Overflows          int             `json:"overflows"`
	Truncated          []string        `json:"truncated"`
}

func newGenerateResponse(gen planner.Generation) generateResponse {
	res := gen.Result
	return generateResponse{
		GeneratedAt:        gen.GeneratedAt,
		Trigger:            gen.Trigger,
		HorizonStart:       res.HorizonStart,
		HorizonEnd:         res.HorizonEnd,
		Requirements:       len(gen.Requirements),
		Events:             len(res.Events),
		TargetMonthlyHours: res.TargetMonthlyHours,
		MonthlyLimit:       res.MonthlyLimit,
		Skipped:            lo.Ternary(res.Skipped == nil, []schedule.Skip{}, res.Skipped),
		Overflows:          res.Overflows,
		Truncated:          lo.Ternary(res.Truncated == nil, []string{}, res.Truncated),
	}
}

// handleGenerate regenerates the calendar, discarding manual edits.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := s.decodeJSON(r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := optionalDay(req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start: "+err.Error())
		return
	}

	var reqs []model.Requirement
	if len(req.Requirements) > 0 {
		reqs = req.Requirements
	}
	gen, err := s.planner.Generate(r.Context(), planner.GenerateRequest{
		Start:        start,
		Requirements: reqs,
		Trigger:      planner.TriggerManual,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, newGenerateResponse(gen))
}

type dayResponse struct {
	Date    time.Time     `json:"date"`
	Events  []model.Event `json:"events"`
	Hours   float64       `json:"hours"`
	Ceiling float64       `json:"ceiling"`
	Load    calendar.Load `json:"load"`
	Workday bool          `json:"workday"`
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	d, err := model.ParseDay(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: "+err.Error())
		return
	}
	cal := s.planner.Calendar()
	alloc := schedule.NewAllocator(s.planner.Options())
	writeJSON(w, http.StatusOK, dayResponse{
		Date:    d,
		Events:  cal.EventsOnDay(d),
		Hours:   cal.HoursOnDay(d),
		Ceiling: cal.DailyCeiling(),
		Load:    cal.CapacityStatus(d),
		Workday: alloc.IsWorkday(d),
	})
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	ym, err := model.ParseYearMonth(r.PathValue("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid month: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.planner.Calendar().MonthGrid(ym, s.cfg.FirstWeekday()))
}

type monthSummary struct {
	Month  model.YearMonth `json:"month"`
	Events int             `json:"events"`
	Hours  float64         `json:"hours"`
}

type summaryResponse struct {
	Events         int                    `json:"events"`
	HoursInYear    float64                `json:"hours_in_year"`
	DailyCeiling   float64                `json:"daily_ceiling"`
	Months         []monthSummary         `json:"months"`
	ByStatus       map[model.Status]int   `json:"by_status"`
	ByPriority     map[model.Priority]int `json:"by_priority"`
	OverloadedDays []time.Time            `json:"overloaded_days"`
	LastGeneration *generateResponse      `json:"last_generation,omitempty"`
}

// handleSummary reports live aggregates of the calendar, recomputed on each
// request so manual edits are reflected.
func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	cal := s.planner.Calendar()
	events := cal.Events()

	resp := summaryResponse{
		Events:         len(events),
		HoursInYear:    cal.HoursInYear(),
		DailyCeiling:   cal.DailyCeiling(),
		Months:         []monthSummary{},
		ByStatus:       make(map[model.Status]int),
		ByPriority:     make(map[model.Priority]int),
		OverloadedDays: []time.Time{},
	}

	for _, e := range events {
		resp.ByStatus[e.Status]++
		resp.ByPriority[e.Priority]++
	}

	byMonth := lo.GroupBy(events, func(e model.Event) model.YearMonth { return model.MonthOf(e.Date) })
	for ym, monthEvents := range byMonth {
		resp.Months = append(resp.Months, monthSummary{
			Month:  ym,
			Events: len(monthEvents),
			Hours:  cal.HoursInMonth(ym),
		})
	}
	sort.Slice(resp.Months, func(i, j int) bool { return resp.Months[i].Month.Before(resp.Months[j].Month) })

	for _, d := range lo.Uniq(lo.Map(events, func(e model.Event, _ int) time.Time { return e.Date })) {
		if cal.CapacityStatus(d) == calendar.LoadOverloaded {
			resp.OverloadedDays = append(resp.OverloadedDays, d)
		}
	}

	if gen, err := s.planner.Last(); err == nil {
		g := newGenerateResponse(gen)
		resp.LastGeneration = &g
	}
	writeJSON(w, http.StatusOK, resp)
}

type normalizeRequest struct {
	Requirements []model.Requirement `json:"requirements" validate:"required,min=1"`
}

type normalizeResult struct {
	Code      string                    `json:"code"`
	Frequency normalize.FrequencyResult `json:"frequency"`
	Duration  normalize.DurationResult  `json:"duration"`
	Priority  model.Priority            `json:"priority"`
	Demand    schedule.Demand           `json:"demand"`
}

type normalizeResponse struct {
	Results            []normalizeResult `json:"results"`
	TargetMonthlyHours float64           `json:"target_monthly_hours"`
	MonthlyLimit       float64           `json:"monthly_limit"`
}

// handleNormalize reports how each free-text field was interpreted and which
// rule fired, without touching the calendar.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := s.decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts := s.planner.Options()
	target := schedule.TargetMonthlyHours(req.Requirements, opts)
	resp := normalizeResponse{
		TargetMonthlyHours: target,
		MonthlyLimit:       opts.MonthlyLimit(target),
	}
	for _, rq := range req.Requirements {
		resp.Results = append(resp.Results, normalizeResult{
			Code:      rq.Code,
			Frequency: normalize.FrequencyWithDefault(rq.FrequencyText, opts.DefaultFrequencyDays),
			Duration:  normalize.DurationWithDefault(rq.DurationText, opts.DefaultDurationHours),
			Priority:  normalize.Priority(rq.MaintenanceTypeText),
			Demand:    schedule.EstimateDemand(rq, opts),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRequirementTemplate(w http.ResponseWriter, _ *http.Request) {
	data, err := source.RequirementTemplate()
	if err != nil {
		writeCalendarError(w, err)
		return
	}
	writeAttachment(w, "requirements.xlsx", xlsxContentType, data)
}
