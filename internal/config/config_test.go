package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadNormalizesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
week_start: Sunday
scheduling:
  technicians: 5
  holidays: ["2024-12-25"]
basic_auth:
  username: ""
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "sunday", cfg.WeekStart)
	assert.Equal(t, time.Sunday, cfg.FirstWeekday())
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Nil(t, cfg.BasicAuth)

	opts := cfg.ScheduleOptions()
	assert.Equal(t, 5, opts.Technicians)
	assert.InDelta(t, 40.0, opts.DailyCeiling(), 1e-9)
	assert.Equal(t, 60, opts.MaxProbeDays)
	require.Len(t, opts.Holidays, 1)
	assert.Equal(t, time.December, opts.Holidays[0].Month())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegenerateCron = "not a cron"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Timezone = "Mars/Olympus"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Scheduling.Holidays = []string{"25/12/2024"}
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Scheduling.HoursPerTechnician = 30
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.RegenerateCron = "0 3 1 * *"
	assert.NoError(t, cfg.Validate())
}

func TestZeroOverageMeansNoTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduling.MonthlyOverage = 0
	assert.InDelta(t, 10.0, cfg.ScheduleOptions().MonthlyLimit(10), 1e-9)

	assert.InDelta(t, 12.0, DefaultConfig().ScheduleOptions().MonthlyLimit(10), 1e-9)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("MAINTCAL_LISTEN", "0.0.0.0:8181")
	t.Setenv("MAINTCAL_SCHEDULING_TECHNICIANS", "4")
	t.Setenv("MAINTCAL_SCHEDULING_HOLIDAYS", "2024-01-01,2024-12-25")
	t.Setenv("MAINTCAL_BASIC_AUTH_USERNAME", "admin")
	t.Setenv("MAINTCAL_BASIC_AUTH_PASSWORD", "secret")

	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("MAINTCAL_TEST_DOTENV_TIMEZONE=Europe/Madrid\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MAINTCAL_TEST_DOTENV_TIMEZONE") })

	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/maintcal"
	require.NoError(t, ApplyEnv(cfg, dotenv))

	assert.Equal(t, "0.0.0.0:8181", cfg.Listen)
	assert.Equal(t, 4, cfg.Scheduling.Technicians)
	assert.Equal(t, []string{"2024-01-01", "2024-12-25"}, cfg.Scheduling.Holidays)
	assert.Equal(t, "/var/lib/maintcal", cfg.DataDir, "unset variables keep file values")
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
	assert.Equal(t, "secret", cfg.BasicAuth.Password)
	assert.Equal(t, "Europe/Madrid", os.Getenv("MAINTCAL_TEST_DOTENV_TIMEZONE"))
}

func TestApplyEnvRejectsBadValue(t *testing.T) {
	t.Setenv("MAINTCAL_SCHEDULING_TECHNICIANS", "three")
	assert.Error(t, ApplyEnv(DefaultConfig(), ""))
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.RegenerateCron = "0 3 1 * *"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}
