// Package config loads appblock settings from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides (APPBLOCK_MONITOR_COOLDOWN=10s).
const EnvPrefix = "APPBLOCK"

// Config holds all application configuration.
type Config struct {
	// Monitor configuration
	Monitor MonitorConfig `mapstructure:"monitor"`

	// Blocking notice shown on intervention
	Notice NoticeConfig `mapstructure:"notice"`

	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// DataDir holds the encrypted settings database and its key.
	DataDir string `mapstructure:"data_dir"`

	// MetricsAddr enables the Prometheus endpoint when non-empty.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// MonitorConfig holds the polling loop configuration.
type MonitorConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`      // How often to tick
	ObservationWindow time.Duration `mapstructure:"observation_window"` // Trailing window per sample
	Cooldown          time.Duration `mapstructure:"cooldown"`           // Minimum gap between interventions
	Policies          []string      `mapstructure:"policies"`           // Built-in policy IDs
	Targets           []string      `mapstructure:"targets"`            // Extra application identifiers
}

// NoticeConfig holds the blocking surface settings.
type NoticeConfig struct {
	Surface string `mapstructure:"surface"` // "dialog" or "log"
	Title   string `mapstructure:"title"`
	Message string `mapstructure:"message"`
	Button  string `mapstructure:"button"`
}

// LogConfig holds daemon log file rotation settings.
type LogConfig struct {
	Path       string `mapstructure:"path"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Surfaces
const (
	SurfaceDialog = "dialog"
	SurfaceLog    = "log"
)

// Default returns a Config with sensible default values.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Monitor: MonitorConfig{
			PollInterval:      time.Second,
			ObservationWindow: 60 * time.Second,
			Cooldown:          5 * time.Second,
			Policies:          []string{"steam", "dota2"},
		},
		Notice: NoticeConfig{
			Surface: SurfaceDialog,
			Title:   "App Blocked!",
			Message: "This app has been blocked to help you maintain your goals.",
			Button:  "I Understand",
		},
		Log: LogConfig{
			Path:       "/var/tmp/appblock.log",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		DataDir: filepath.Join(home, ".appblock"),
	}
}

// Load reads configuration. path may be empty, in which case
// $APPBLOCK_CONFIG and then <data_dir>/config.yaml are tried; a missing
// file is not an error when it was not named explicitly.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPrefix + "_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = filepath.Join(v.GetString("data_dir"), "config.yaml")
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), !explicit && errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so env overrides and Unmarshal see them.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("monitor.poll_interval", d.Monitor.PollInterval)
	v.SetDefault("monitor.observation_window", d.Monitor.ObservationWindow)
	v.SetDefault("monitor.cooldown", d.Monitor.Cooldown)
	v.SetDefault("monitor.policies", d.Monitor.Policies)
	v.SetDefault("monitor.targets", d.Monitor.Targets)

	v.SetDefault("notice.surface", d.Notice.Surface)
	v.SetDefault("notice.title", d.Notice.Title)
	v.SetDefault("notice.message", d.Notice.Message)
	v.SetDefault("notice.button", d.Notice.Button)

	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.max_size_mb", d.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age_days", d.Log.MaxAgeDays)
	v.SetDefault("log.compress", d.Log.Compress)

	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}

// Validate checks the configuration for values the monitor cannot run with.
func Validate(cfg *Config) error {
	m := cfg.Monitor
	if m.PollInterval <= 0 {
		return fmt.Errorf("monitor.poll_interval must be positive")
	}
	if m.ObservationWindow <= 0 {
		return fmt.Errorf("monitor.observation_window must be positive")
	}
	if m.ObservationWindow < m.PollInterval {
		return fmt.Errorf("monitor.observation_window (%s) must not be shorter than monitor.poll_interval (%s)",
			m.ObservationWindow, m.PollInterval)
	}
	if m.Cooldown < 0 {
		return fmt.Errorf("monitor.cooldown must be non-negative")
	}
	switch cfg.Notice.Surface {
	case SurfaceDialog, SurfaceLog:
	default:
		return fmt.Errorf("notice.surface must be %q or %q, got %q", SurfaceDialog, SurfaceLog, cfg.Notice.Surface)
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}
