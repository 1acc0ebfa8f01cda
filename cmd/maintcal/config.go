package main

import (
	"github.com/urfave/cli/v2"

	"maintcal/internal/config"
	appLog "maintcal/internal/log"
)

// loadConfig reads the config file, applies environment overrides, validates
// the result and configures logging from it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg, c.String("env-file")); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	appLog.Configure(appLog.ParseLevel(cfg.LogLevel), cfg.LogJSON)

	appLog.Info("effective config",
		"config_path", path,
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"requirements", cfg.Requirements,
		"data_dir", cfg.DataDir,
		"regenerate", cfg.RegenerateCron,
		"technicians", cfg.Scheduling.Technicians,
		"hours_per_technician", cfg.Scheduling.HoursPerTechnician,
		"holidays", len(cfg.Scheduling.Holidays),
		"basic_auth", cfg.BasicAuth != nil,
	)
	return cfg, nil
}
