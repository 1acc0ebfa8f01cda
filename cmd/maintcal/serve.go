package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	appLog "maintcal/internal/log"
	"maintcal/internal/planner"
	"maintcal/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and scheduled regeneration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "HTTP listen address (overrides config if set)",
			},
			&cli.BoolFlag{
				Name:  "no-initial",
				Usage: "skip generating the calendar at startup",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if l := c.String("listen"); l != "" {
		cfg.Listen = l
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	p := planner.New(cfg)
	if !c.Bool("no-initial") {
		if _, err := p.Generate(ctx, planner.GenerateRequest{Trigger: planner.TriggerStartup}); err != nil {
			appLog.Error("initial generation failed; serving an empty calendar", err)
		}
	}

	if err := p.StartCron(ctx); err != nil {
		return err
	}
	defer p.StopCron()

	err = web.NewServer(cfg, p).Serve(ctx)
	appLog.Info("maintcal exiting")
	return err
}
