package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "maintcal/internal/log"
	"maintcal/internal/model"
	"maintcal/internal/schedule"
)

// EnvPrefix is the prefix of environment overrides, e.g. MAINTCAL_LISTEN.
const EnvPrefix = "maintcal"

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"-"`
}

// SchedulingConfig carries the scheduler policy constants.
type SchedulingConfig struct {
	Technicians        int     `yaml:"technicians" json:"technicians" envconfig:"TECHNICIANS" validate:"gte=1"`
	HoursPerTechnician float64 `yaml:"hours_per_technician" json:"hours_per_technician" envconfig:"HOURS_PER_TECHNICIAN" validate:"gt=0,lte=24"`

	// MaxProbeDays bounds the forward search for a day with spare capacity.
	MaxProbeDays int `yaml:"max_probe_days" json:"max_probe_days" envconfig:"MAX_PROBE_DAYS" validate:"gte=1"`

	// MonthlyOverage is the tolerance over the monthly target (0.2 = 120%).
	MonthlyOverage float64 `yaml:"monthly_overage" json:"monthly_overage" envconfig:"MONTHLY_OVERAGE" validate:"gte=0"`

	MaxOccurrences       int     `yaml:"max_occurrences" json:"max_occurrences" envconfig:"MAX_OCCURRENCES" validate:"gte=1"`
	SeedOffsetDays       int     `yaml:"seed_offset_days" json:"seed_offset_days" envconfig:"SEED_OFFSET_DAYS" validate:"gte=0"`
	DefaultFrequencyDays int     `yaml:"default_frequency_days" json:"default_frequency_days" envconfig:"DEFAULT_FREQUENCY_DAYS" validate:"gte=1"`
	DefaultDurationHours float64 `yaml:"default_duration_hours" json:"default_duration_hours" envconfig:"DEFAULT_DURATION_HOURS" validate:"gt=0"`

	// Holidays are extra non-working days, formatted YYYY-MM-DD.
	Holidays []string `yaml:"holidays" json:"holidays" envconfig:"HOLIDAYS"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" envconfig:"LISTEN"`

	// Timezone is the IANA zone used to decide which day "today" is.
	Timezone string `yaml:"timezone" json:"timezone" envconfig:"TIMEZONE"`

	// WeekStart controls the first column of month grids:
	//   - "monday" (default)
	//   - "sunday"
	WeekStart string `yaml:"week_start" json:"week_start" envconfig:"WEEK_START"`

	// RegenerateCron is a cron spec (e.g. "0 3 1 * *") for periodic
	// regeneration. Empty disables it, since regeneration discards manual
	// edits.
	RegenerateCron string `yaml:"regenerate" json:"regenerate" envconfig:"REGENERATE"`

	// Requirements is a local path or http(s) URL of the requirement list
	// (.yaml, .yml, .json or .xlsx).
	Requirements string `yaml:"requirements" json:"requirements" envconfig:"REQUIREMENTS"`

	// DataDir holds the fetch cache and generated exports.
	DataDir string `yaml:"data_dir" json:"data_dir" envconfig:"DATA_DIR"`

	LogLevel string `yaml:"log_level" json:"log_level" envconfig:"LOG_LEVEL"`
	LogJSON  bool   `yaml:"log_json" json:"log_json" envconfig:"LOG_JSON"`

	Scheduling SchedulingConfig `yaml:"scheduling" json:"scheduling" envconfig:"SCHEDULING"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health and /metrics.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" ignored:"true"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	opts := schedule.DefaultOptions()
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "UTC",
		WeekStart:    "monday",
		Requirements: "requirements.yaml",
		DataDir:      "data",
		LogLevel:     "info",
		Scheduling: SchedulingConfig{
			Technicians:          opts.Technicians,
			HoursPerTechnician:   opts.HoursPerTechnician,
			MaxProbeDays:         opts.MaxProbeDays,
			MonthlyOverage:       opts.MonthlyOverage,
			MaxOccurrences:       opts.MaxOccurrences,
			SeedOffsetDays:       opts.SeedOffsetDays,
			DefaultFrequencyDays: opts.DefaultFrequencyDays,
			DefaultDurationHours: opts.DefaultDurationHours,
			Holidays:             []string{},
		},
	}
}

// Normalize fills in missing/zero values so that partially-filled configs
// still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	switch strings.ToLower(c.WeekStart) {
	case "monday", "sunday":
		c.WeekStart = strings.ToLower(c.WeekStart)
	default:
		c.WeekStart = def.WeekStart
	}
	if c.Requirements == "" {
		c.Requirements = def.Requirements
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}

	s := &c.Scheduling
	if s.Technicians <= 0 {
		s.Technicians = def.Scheduling.Technicians
	}
	if s.HoursPerTechnician <= 0 {
		s.HoursPerTechnician = def.Scheduling.HoursPerTechnician
	}
	if s.MaxProbeDays <= 0 {
		s.MaxProbeDays = def.Scheduling.MaxProbeDays
	}
	if s.MonthlyOverage < 0 {
		s.MonthlyOverage = def.Scheduling.MonthlyOverage
	}
	if s.MaxOccurrences <= 0 {
		s.MaxOccurrences = def.Scheduling.MaxOccurrences
	}
	if s.SeedOffsetDays < 0 {
		s.SeedOffsetDays = def.Scheduling.SeedOffsetDays
	}
	if s.DefaultFrequencyDays <= 0 {
		s.DefaultFrequencyDays = def.Scheduling.DefaultFrequencyDays
	}
	if s.DefaultDurationHours <= 0 {
		s.DefaultDurationHours = def.Scheduling.DefaultDurationHours
	}
	if s.Holidays == nil {
		s.Holidays = []string{}
	}

	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		c.BasicAuth = nil
	}
}

var validate = validator.New()

// Validate reports values Normalize cannot repair.
func (c *Config) Validate() error {
	if err := validate.Struct(c.Scheduling); err != nil {
		return errors.Wrap(err, "invalid scheduling config")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return errors.Wrapf(err, "invalid timezone %q", c.Timezone)
	}
	if c.RegenerateCron != "" {
		if _, err := cron.ParseStandard(c.RegenerateCron); err != nil {
			return errors.Wrapf(err, "invalid regenerate cron %q", c.RegenerateCron)
		}
	}
	for _, h := range c.Scheduling.Holidays {
		if _, err := model.ParseDay(h); err != nil {
			return errors.Wrapf(err, "invalid holiday %q", h)
		}
	}
	return nil
}

// Location returns the configured zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FirstWeekday maps WeekStart to a time.Weekday.
func (c *Config) FirstWeekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// ScheduleOptions converts the scheduling section into scheduler options.
// Unparseable holidays are skipped; Validate reports them.
func (c *Config) ScheduleOptions() schedule.Options {
	s := c.Scheduling
	opts := schedule.Options{
		Technicians:          s.Technicians,
		HoursPerTechnician:   s.HoursPerTechnician,
		MaxProbeDays:         s.MaxProbeDays,
		MonthlyOverage:       s.MonthlyOverage,
		MaxOccurrences:       s.MaxOccurrences,
		SeedOffsetDays:       s.SeedOffsetDays,
		DefaultFrequencyDays: s.DefaultFrequencyDays,
		DefaultDurationHours: s.DefaultDurationHours,
	}
	// A configured zero overage means "no tolerance", not "default".
	if s.MonthlyOverage == 0 {
		opts.MonthlyOverage = -1
	}
	for _, h := range s.Holidays {
		if d, err := model.ParseDay(h); err == nil {
			opts.Holidays = append(opts.Holidays, d)
		}
	}
	return opts
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600 perms
//     and returned.
//   - If the file exists, it is unmarshalled and normalized.
//
// Environment overrides are not applied here; see ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.Normalize()

	return cfg, nil
}

type basicAuthEnv struct {
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
}

// ApplyEnv loads dotenvPath (if present) into the process environment and
// overrides cfg with MAINTCAL_* variables, e.g. MAINTCAL_LISTEN or
// MAINTCAL_SCHEDULING_TECHNICIANS. Unset variables leave cfg untouched.
func ApplyEnv(cfg *Config, dotenvPath string) error {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("failed to load .env file", "path", dotenvPath, "err", err.Error())
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return errors.Wrap(err, "apply environment overrides")
	}

	var auth basicAuthEnv
	if err := envconfig.Process(EnvPrefix+"_basic_auth", &auth); err != nil {
		return errors.Wrap(err, "apply basic auth overrides")
	}
	if auth.Username != "" {
		cfg.BasicAuth = &BasicAuthConfig{Username: auth.Username, Password: auth.Password}
	}

	cfg.Normalize()
	return nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrapf(err, "create config dir %s", dir)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	tmp, err := os.CreateTemp(dir, ".maintcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return errors.Wrapf(os.Rename(tmpName, path), "replace %s", path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
