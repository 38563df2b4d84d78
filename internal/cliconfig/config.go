// Package cliconfig holds the CLI-facing configuration for gridsave:
// defaults, TOML file, environment and flag precedence, plus the fsnotify
// watcher that hot-applies autosave tuning to a running session.
package cliconfig

import (
	"fmt"
	"os"
	"time"

	logAdapter "github.com/fintab-labs/gridsave/internal/adapters/log"
	"github.com/fintab-labs/gridsave/internal/ports"
)

// Config holds CLI configuration for gridsave.
type Config struct {
	ServiceURL string
	AuthKey    string
	Table      string

	JournalDir string

	AutosaveDelay     time.Duration
	SavedStatusWindow time.Duration
	ErrorStatusWindow time.Duration
	HTTPTimeout       time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Table:             "forecast_rows",
		AutosaveDelay:     30 * time.Second,
		SavedStatusWindow: 2 * time.Second,
		ErrorStatusWindow: 5 * time.Second,
		HTTPTimeout:       15 * time.Second,
		AuthKey:           os.Getenv("GRIDSAVE_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and normalizes derived values.
func (c *Config) Validate() error {
	if c.ServiceURL == "" {
		return fmt.Errorf("service-url is required")
	}
	if c.JournalDir == "" {
		return fmt.Errorf("journal-dir is required")
	}

	// Ensure no trailing slash
	if c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		c.ServiceURL = c.ServiceURL[:len(c.ServiceURL)-1]
	}

	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("autosave delay must be positive")
	}
	if c.SavedStatusWindow <= 0 || c.ErrorStatusWindow <= 0 {
		return fmt.Errorf("status windows must be positive")
	}

	return nil
}

// Logger returns the console logger used by the CLI.
func Logger() ports.Logger {
	return logAdapter.NewConsole()
}

// configSetter helps apply configuration values while respecting flag
// precedence. It only applies values if the corresponding flag hasn't been
// explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}
