package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (GRIDSAVE_*).
// It respects flags that have been explicitly set (changed map).
// Returns an error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("service-url", os.Getenv("GRIDSAVE_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("GRIDSAVE_AUTH_KEY"), &cfg.AuthKey)
	s.setString("table", os.Getenv("GRIDSAVE_TABLE"), &cfg.Table)
	s.setString("journal-dir", os.Getenv("GRIDSAVE_JOURNAL_DIR"), &cfg.JournalDir)

	if err := s.setDuration("autosave-delay", os.Getenv("GRIDSAVE_AUTOSAVE_DELAY"), &cfg.AutosaveDelay); err != nil {
		return err
	}
	if err := s.setDuration("saved-window", os.Getenv("GRIDSAVE_SAVED_WINDOW"), &cfg.SavedStatusWindow); err != nil {
		return err
	}
	if err := s.setDuration("error-window", os.Getenv("GRIDSAVE_ERROR_WINDOW"), &cfg.ErrorStatusWindow); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("GRIDSAVE_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	return nil
}
