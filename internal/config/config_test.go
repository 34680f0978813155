package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ysakai/filedrop/internal/common"
)

func validConfig() Config {
	cfg := Default()
	cfg.BaseRoot = "/data"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*Config)
		wantErr error
		name    string
	}{
		{name: "valid", mutate: func(*Config) {}, wantErr: nil},
		{
			name:    "missing watch folder",
			mutate:  func(c *Config) { c.WatchFolder = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "missing base root",
			mutate:  func(c *Config) { c.BaseRoot = "" },
			wantErr: common.ErrMissingConfig,
		},
		{
			name:    "non-positive settle interval",
			mutate:  func(c *Config) { c.Settle.Interval = 0 },
			wantErr: common.ErrInvalidConfig,
		},
		{
			name:    "negative settle attempts",
			mutate:  func(c *Config) { c.Settle.MaxAttempts = -1 },
			wantErr: common.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Settle.Interval != 500*time.Millisecond {
		t.Errorf("default settle interval = %v", cfg.Settle.Interval)
	}
	if cfg.Settle.MaxAttempts != 10 {
		t.Errorf("default settle attempts = %d", cfg.Settle.MaxAttempts)
	}
	if !cfg.Notify.Enabled {
		t.Error("notifications should default to enabled")
	}
	if filepath.Base(cfg.WatchFolder) != "Downloads" {
		t.Errorf("default watch folder = %q", cfg.WatchFolder)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	t.Setenv("FILEDROP_TEST_DIR", "/srv/data")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "tilde only", in: "~", want: home},
		{name: "tilde prefix", in: "~/Downloads", want: filepath.Join(home, "Downloads")},
		{name: "env var", in: "$FILEDROP_TEST_DIR/drop", want: "/srv/data/drop"},
		{name: "plain path untouched", in: "/var/tmp", want: "/var/tmp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpandPath(tt.in); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
