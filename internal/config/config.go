package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/config"

	"github.com/julianstephens/cadence/internal/constants"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Reminder ReminderConfig `yaml:"reminder"`
}

type StorageConfig struct {
	Backend string `yaml:"backend"` // json, sqlite, postgres or memory
	Path    string `yaml:"path"`    // file path for json/sqlite
	DSN     string `yaml:"dsn"`     // connection string for postgres

	// DSNFromEnv marks a DSN supplied through CADENCE_DB_CONNECTION, which may
	// carry a password because it never touches the config file.
	DSNFromEnv bool `yaml:"-"`
}

type LogConfig struct {
	Debug bool   `yaml:"debug"`
	Dir   string `yaml:"dir"`
}

type ReminderConfig struct {
	CheckInterval   string `yaml:"check_interval"`
	ThrottleMinutes int    `yaml:"throttle_minutes"`
	SnoozeMinutes   int    `yaml:"snooze_minutes"`
}

// Defaults returns the built-in configuration rooted at configDir.
func Defaults(configDir string) Config {
	return Config{
		Storage: StorageConfig{
			Backend: constants.BackendSQLite,
			Path:    filepath.Join(configDir, constants.AppName+".db"),
		},
		Log: LogConfig{
			Dir: filepath.Join(configDir, "logs"),
		},
		Reminder: ReminderConfig{
			CheckInterval:   constants.DefaultReminderCheckInterval.String(),
			ThrottleMinutes: constants.DefaultReminderThrottleMin,
			SnoozeMinutes:   constants.DefaultPostponeMin,
		},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	path, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	opts := []config.YAMLOption{
		config.Static(Defaults(filepath.Dir(path))),
		config.Expand(os.LookupEnv),
	}
	if _, err := os.Stat(path); err == nil {
		opts = append(opts, config.File(path))
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create config provider: %w", err)
	}

	var cfg Config
	if err := provider.Get(config.Root).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("failed to populate config: %w", err)
	}

	cfg.overrideFromEnv()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables if present
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("CADENCE_STORAGE_BACKEND"); val != "" {
		c.Storage.Backend = val
	}
	if val := os.Getenv("CADENCE_STORAGE_PATH"); val != "" {
		c.Storage.Path = val
	}
	if val := os.Getenv("CADENCE_DB_CONNECTION"); val != "" {
		c.Storage.DSN = val
		c.Storage.DSNFromEnv = true
	}
	if val := os.Getenv("CADENCE_DEBUG"); val != "" {
		if debug, err := strconv.ParseBool(val); err == nil {
			c.Log.Debug = debug
		}
	}
	if val := os.Getenv("CADENCE_REMINDER_THROTTLE_MINUTES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Reminder.ThrottleMinutes = n
		}
	}
}

func (c *Config) normalize() error {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	switch c.Storage.Backend {
	case constants.BackendJSON, constants.BackendSQLite, constants.BackendPostgres, constants.BackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}

	var err error
	if c.Storage.Path, err = ExpandHome(c.Storage.Path); err != nil {
		return err
	}
	if c.Log.Dir, err = ExpandHome(c.Log.Dir); err != nil {
		return err
	}

	if _, err := c.Reminder.Interval(); err != nil {
		return err
	}
	if c.Reminder.ThrottleMinutes < 0 {
		c.Reminder.ThrottleMinutes = 0
	}
	if c.Reminder.SnoozeMinutes < constants.MinPostponeMinutes {
		c.Reminder.SnoozeMinutes = constants.DefaultPostponeMin
	}
	return nil
}

// Interval parses CheckInterval.
func (r ReminderConfig) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(r.CheckInterval)
	if err != nil {
		return 0, fmt.Errorf("invalid reminder check_interval %q: %w", r.CheckInterval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("reminder check_interval must be positive, got %s", d)
	}
	return d, nil
}

// Throttle returns the minimum gap between two reminders for the same habit.
func (r ReminderConfig) Throttle() time.Duration {
	return time.Duration(r.ThrottleMinutes) * time.Minute
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
