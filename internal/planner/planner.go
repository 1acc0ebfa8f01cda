package planner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"maintcal/internal/calendar"
	"maintcal/internal/config"
	"maintcal/internal/export"
	"maintcal/internal/ics"
	appLog "maintcal/internal/log"
	"maintcal/internal/metrics"
	"maintcal/internal/model"
	"maintcal/internal/schedule"
	"maintcal/internal/source"
)

// Triggers recorded in metrics and logs.
const (
	TriggerManual  = "manual"
	TriggerCron    = "cron"
	TriggerStartup = "startup"
	TriggerCLI     = "cli"
)

var ErrNoGeneration = errors.New("calendar has not been generated yet")

// GenerateRequest describes one generation run.
type GenerateRequest struct {
	// Start of the one-year horizon; zero means today in the configured zone.
	Start time.Time
	// Requirements to schedule; nil means load them from the configured
	// source.
	Requirements []model.Requirement
	Trigger      string
}

// Generation is the outcome of the last run.
type Generation struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	Trigger      string              `json:"trigger"`
	Requirements []model.Requirement `json:"requirements"`
	Result       schedule.Result     `json:"result"`
}

// Planner owns the live calendar and regenerates it from requirements.
// Generations are serialized; the calendar itself is safe for concurrent
// readers and manual edits.
type Planner struct {
	cfg    *config.Config
	opts   schedule.Options
	loader *source.Loader
	cal    *calendar.Calendar
	now    func() time.Time

	genMu sync.Mutex
	mu    sync.RWMutex
	last  *Generation

	cron *cron.Cron
}

// New builds a Planner from cfg.
func New(cfg *config.Config) *Planner {
	opts := cfg.ScheduleOptions()
	return &Planner{
		cfg:    cfg,
		opts:   opts,
		loader: source.NewLoader(filepath.Join(cfg.DataDir, "fetch-cache")),
		cal:    calendar.New(opts.DailyCeiling()),
		now:    time.Now,
	}
}

// WithClock overrides the clock, for tests.
func (p *Planner) WithClock(now func() time.Time) *Planner {
	p.now = now
	return p
}

func (p *Planner) Calendar() *calendar.Calendar { return p.cal }

func (p *Planner) Options() schedule.Options { return p.opts }

func (p *Planner) Config() *config.Config { return p.cfg }

// Today is the current day in the configured zone.
func (p *Planner) Today() time.Time {
	return model.Day(p.now().In(p.cfg.Location()))
}

// LoadRequirements reads the configured requirement source.
func (p *Planner) LoadRequirements(ctx context.Context) ([]model.Requirement, error) {
	return p.loader.Load(ctx, p.cfg.Requirements)
}

// Generate runs the distributor and replaces the calendar with its output.
// Manual edits made since the previous run are discarded.
func (p *Planner) Generate(ctx context.Context, req GenerateRequest) (Generation, error) {
	p.genMu.Lock()
	defer p.genMu.Unlock()

	if req.Trigger == "" {
		req.Trigger = TriggerManual
	}
	started := time.Now()

	reqs := req.Requirements
	if reqs == nil {
		var err error
		reqs, err = p.LoadRequirements(ctx)
		if err != nil {
			metrics.GenerateRuns.WithLabelValues(req.Trigger, "error").Inc()
			return Generation{}, errors.Wrap(err, "load requirements")
		}
	}

	start := model.Day(req.Start)
	if req.Start.IsZero() {
		start = p.Today()
	}

	loc := p.cfg.Location()
	res := schedule.NewDistributor(p.opts).
		WithClock(func() time.Time { return p.now().In(loc) }).
		Distribute(reqs, start, time.Time{})

	p.cal.Replace(res.Events)

	gen := Generation{
		GeneratedAt:  p.now().UTC(),
		Trigger:      req.Trigger,
		Requirements: slices.Clone(reqs),
		Result:       res,
	}
	p.mu.Lock()
	p.last = &gen
	p.mu.Unlock()

	elapsed := time.Since(started)
	metrics.GenerateDuration.Observe(elapsed.Seconds())
	metrics.GenerateRuns.WithLabelValues(req.Trigger, "ok").Inc()
	metrics.GeneratedEvents.Set(float64(len(res.Events)))
	metrics.SkippedOccurrences.Set(float64(len(res.Skipped)))
	metrics.CapacityOverflows.Set(float64(res.Overflows))
	metrics.TruncatedRequirements.Set(float64(len(res.Truncated)))
	metrics.MonthlyTargetHours.Set(res.TargetMonthlyHours)

	appLog.Info("calendar generated",
		"trigger", req.Trigger,
		"start", start.Format(model.DayLayout),
		"requirements", len(reqs),
		"events", len(res.Events),
		"skipped", len(res.Skipped),
		"overflows", res.Overflows,
		"truncated", len(res.Truncated),
		"elapsed", elapsed.String(),
	)

	if err := p.writeArtifacts(); err != nil {
		appLog.Error("failed to write calendar artifacts", err, "data_dir", p.cfg.DataDir)
	}
	return gen, nil
}

// Last returns the most recent generation.
func (p *Planner) Last() (Generation, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Generation{}, ErrNoGeneration
	}
	return *p.last, nil
}

// ExportICS renders the live calendar as iCalendar.
func (p *Planner) ExportICS() string {
	return ics.Encode(p.cal.Events(), ics.EncodeOptions{
		Name:     "Maintenance",
		Timezone: p.cfg.Timezone,
		Now:      p.now(),
	})
}

// ExportXLSX renders the live calendar as a workbook.
func (p *Planner) ExportXLSX() ([]byte, error) {
	var limit float64
	if gen, err := p.Last(); err == nil {
		limit = gen.Result.MonthlyLimit
	}
	return export.EventsWorkbook(p.cal.Events(), export.Summary{MonthlyLimit: limit})
}

// ImportICS reads events from an iCalendar document. With replace the
// calendar is swapped for the imported events, otherwise they are merged,
// overwriting events with the same id.
func (p *Planner) ImportICS(r io.Reader, replace bool) (ics.DecodeResult, error) {
	p.genMu.Lock()
	defer p.genMu.Unlock()

	from := p.Today()
	if gen, err := p.Last(); err == nil {
		from = gen.Result.HorizonStart
	}
	res, err := ics.Decode(r, ics.DecodeOptions{From: from, MaxOccurrencesPerEvent: p.opts.MaxOccurrences})
	if err != nil {
		return res, err
	}

	if replace {
		p.cal.Replace(res.Events)
	} else {
		p.cal.Merge(res.Events)
	}
	metrics.CalendarMutations.WithLabelValues("import").Inc()
	appLog.Info("calendar imported", "events", len(res.Events), "replace", replace, "skipped", res.Skipped)
	return res, nil
}

// writeArtifacts stores calendar.ics and calendar.xlsx under DataDir.
func (p *Planner) writeArtifacts() error {
	if p.cfg.DataDir == "" {
		return nil
	}
	if err := os.MkdirAll(p.cfg.DataDir, 0o700); err != nil {
		return errors.Wrap(err, "create data dir")
	}
	if err := writeFileAtomic(filepath.Join(p.cfg.DataDir, "calendar.ics"), []byte(p.ExportICS())); err != nil {
		return err
	}
	book, err := p.ExportXLSX()
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(p.cfg.DataDir, "calendar.xlsx"), book)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".maintcal-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return errors.Wrapf(os.Rename(tmpName, path), "replace %s", path)
}
