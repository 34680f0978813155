package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ysakai/filedrop/internal/common"
)

// SettleConfig controls the size-stability probe.
type SettleConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

// RedmineConfig holds the tracker connection settings. Username and password
// are optional; without them the watcher runs but cannot fetch titles.
type RedmineConfig struct {
	Host     string
	Username string
	Password string
}

// LoggingConfig holds the slog settings.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig locates the move journal.
type DatabaseConfig struct {
	Path string
}

// NotifyConfig toggles desktop notifications.
type NotifyConfig struct {
	Enabled bool
}

// Config is the application configuration with typed, validated fields.
type Config struct {
	WatchFolder string
	BaseRoot    string
	TrustedHost string
	Database    DatabaseConfig
	Logging     LoggingConfig
	Redmine     RedmineConfig
	Settle      SettleConfig
	Notify      NotifyConfig
}

// Default returns the configuration defaults applied before reading the
// config file.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		WatchFolder: filepath.Join(home, "Downloads"),
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".local", "share", "filedrop", "filedrop.db"),
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Settle:  SettleConfig{Interval: 500 * time.Millisecond, MaxAttempts: 10},
		Notify:  NotifyConfig{Enabled: true},
	}
}

// Load assembles the configuration from viper (config file, environment,
// bound flags), applies defaults, expands paths, and validates the result.
func Load() (Config, error) {
	cfg := Default()

	if v := viper.GetString("watch_folder"); v != "" {
		cfg.WatchFolder = v
	}
	cfg.BaseRoot = viper.GetString("base_root")
	cfg.TrustedHost = viper.GetString("trusted_host")
	if v := viper.GetString("database.path"); v != "" {
		cfg.Database.Path = v
	}
	if v := viper.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		cfg.Logging.Format = v
	}
	cfg.Redmine.Host = viper.GetString("redmine.host")
	cfg.Redmine.Username = viper.GetString("redmine.username")
	cfg.Redmine.Password = viper.GetString("redmine.password")
	if viper.IsSet("settle.interval") {
		cfg.Settle.Interval = viper.GetDuration("settle.interval")
	}
	if viper.IsSet("settle.max_attempts") {
		cfg.Settle.MaxAttempts = viper.GetInt("settle.max_attempts")
	}
	if viper.IsSet("notify.enabled") {
		cfg.Notify.Enabled = viper.GetBool("notify.enabled")
	}

	// The trusted host defaults to the tracker host itself.
	if cfg.TrustedHost == "" {
		cfg.TrustedHost = cfg.Redmine.Host
	}

	cfg.WatchFolder = ExpandPath(cfg.WatchFolder)
	cfg.BaseRoot = ExpandPath(cfg.BaseRoot)
	cfg.Database.Path = ExpandPath(cfg.Database.Path)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the invariants the pipeline depends on.
func (c Config) Validate() error {
	if c.WatchFolder == "" {
		return fmt.Errorf("%w: watch_folder", common.ErrMissingConfig)
	}
	if c.BaseRoot == "" {
		return fmt.Errorf("%w: base_root", common.ErrMissingConfig)
	}
	if c.Settle.Interval <= 0 {
		return fmt.Errorf("%w: settle.interval must be positive", common.ErrInvalidConfig)
	}
	if c.Settle.MaxAttempts <= 0 {
		return fmt.Errorf("%w: settle.max_attempts must be positive", common.ErrInvalidConfig)
	}
	return nil
}
