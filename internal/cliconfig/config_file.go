package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	ServiceURL        string `toml:"service_url"`
	AuthKey           string `toml:"auth_key"`
	Table             string `toml:"table"`
	JournalDir        string `toml:"journal_dir"`
	AutosaveDelay     string `toml:"autosave_delay"`
	SavedStatusWindow string `toml:"saved_status_window"`
	ErrorStatusWindow string `toml:"error_status_window"`
	HTTPTimeout       string `toml:"http_timeout"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.gridsave/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".gridsave", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("table", fc.Table, &cfg.Table)
	s.setString("journal-dir", fc.JournalDir, &cfg.JournalDir)

	if err := s.setDuration("autosave-delay", fc.AutosaveDelay, &cfg.AutosaveDelay); err != nil {
		return err
	}
	if err := s.setDuration("saved-window", fc.SavedStatusWindow, &cfg.SavedStatusWindow); err != nil {
		return err
	}
	if err := s.setDuration("error-window", fc.ErrorStatusWindow, &cfg.ErrorStatusWindow); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
