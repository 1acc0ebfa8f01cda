package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"maintcal/internal/model"
	"maintcal/internal/planner"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate the calendar once and write it to disk",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "requirements",
				Usage: "requirement source (file path or URL); overrides config",
			},
			&cli.StringFlag{
				Name:  "start",
				Usage: "first day of the horizon, YYYY-MM-DD (default today)",
			},
			&cli.StringFlag{
				Name:  "ics",
				Usage: "also write the iCalendar export to this path",
			},
			&cli.StringFlag{
				Name:  "xlsx",
				Usage: "also write the spreadsheet export to this path",
			},
		},
		Action: runGenerate,
	}
}

func runGenerate(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if src := c.String("requirements"); src != "" {
		cfg.Requirements = src
	}

	req := planner.GenerateRequest{Trigger: planner.TriggerCLI}
	if s := c.String("start"); s != "" {
		if req.Start, err = model.ParseDay(s); err != nil {
			return errors.Wrap(err, "invalid --start")
		}
	}

	p := planner.New(cfg)
	gen, err := p.Generate(c.Context, req)
	if err != nil {
		return err
	}

	if path := c.String("ics"); path != "" {
		if err := os.WriteFile(path, []byte(p.ExportICS()), 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}
	if path := c.String("xlsx"); path != "" {
		book, err := p.ExportXLSX()
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, book, 0o644); err != nil {
			return errors.Wrapf(err, "write %s", path)
		}
	}

	res := gen.Result
	fmt.Fprintf(c.App.Writer, "%d events from %d requirements (%s to %s)\n",
		len(res.Events), len(gen.Requirements),
		res.HorizonStart.Format(model.DayLayout), res.HorizonEnd.Format(model.DayLayout))
	fmt.Fprintf(c.App.Writer, "monthly target %.1fh, limit %.1fh, skipped %d, overflows %d, truncated %d\n",
		res.TargetMonthlyHours, res.MonthlyLimit, len(res.Skipped), res.Overflows, len(res.Truncated))
	return nil
}
