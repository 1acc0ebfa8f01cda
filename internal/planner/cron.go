package planner

import (
	"context"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	appLog "maintcal/internal/log"
)

// StartCron schedules regeneration on cfg.RegenerateCron. It is a no-op when
// the expression is empty. Runs still going when the next tick fires are
// skipped.
func (p *Planner) StartCron(ctx context.Context) error {
	expr := p.cfg.RegenerateCron
	if expr == "" {
		appLog.Info("scheduled regeneration disabled")
		return nil
	}

	c := cron.New(
		cron.WithLocation(p.cfg.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	_, err := c.AddFunc(expr, func() {
		if _, err := p.Generate(ctx, GenerateRequest{Trigger: TriggerCron}); err != nil {
			appLog.Error("scheduled regeneration failed", err)
		}
	})
	if err != nil {
		return errors.Wrapf(err, "invalid regenerate cron %q", expr)
	}

	p.mu.Lock()
	p.cron = c
	p.mu.Unlock()

	c.Start()
	appLog.Info("scheduled regeneration enabled", "cron", expr, "timezone", p.cfg.Timezone)
	return nil
}

// StopCron stops the cron scheduler and waits for a running job to finish.
func (p *Planner) StopCron() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
