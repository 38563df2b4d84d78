package gridsave

import (
	"fmt"
	"time"

	"github.com/fintab-labs/gridsave/internal/domain"
)

// Default tuning, matching the windows the grid UI was designed around.
const (
	DefaultAutosaveDelay     = 30 * time.Second
	DefaultSavedStatusWindow = 2 * time.Second
	DefaultErrorStatusWindow = 5 * time.Second
	DefaultHTTPTimeout       = 15 * time.Second
	DefaultTable             = "forecast_rows"
)

// Config holds the configuration for one save session.
// Use SetDefaults to fill the zero fields before Validate.
type Config struct {
	// ServiceURL is the base URL of the remote table store. Required
	// unless a custom store is injected with WithStore.
	ServiceURL string

	// AuthKey is the bearer token for the remote store.
	AuthKey string

	// Table is the remote table receiving batched upserts.
	Table string

	// JournalDir, when set, enables the on-disk draft journal so unsaved
	// edits survive a crash.
	JournalDir string

	// AutosaveDelay is the trailing-edge debounce between the last edit
	// and the automatic flush.
	AutosaveDelay time.Duration

	// SavedStatusWindow is how long the Saved indicator holds before
	// reverting to Idle.
	SavedStatusWindow time.Duration

	// ErrorStatusWindow is how long the Error indicator holds before
	// reverting to Idle. Longer than the saved window so a failure is
	// noticeable without permanently blocking interaction.
	ErrorStatusWindow time.Duration

	// HTTPTimeout applies to the default HTTP client only. Note the
	// batched upsert itself carries no client-side deadline beyond this;
	// a hung remote call leaves the status at Saving.
	HTTPTimeout time.Duration
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.AutosaveDelay == 0 {
		c.AutosaveDelay = DefaultAutosaveDelay
	}
	if c.SavedStatusWindow == 0 {
		c.SavedStatusWindow = DefaultSavedStatusWindow
	}
	if c.ErrorStatusWindow == 0 {
		c.ErrorStatusWindow = DefaultErrorStatusWindow
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.AutosaveDelay <= 0 {
		return fmt.Errorf("%w: autosave delay must be positive", domain.ErrInvalidConfig)
	}
	if c.SavedStatusWindow <= 0 || c.ErrorStatusWindow <= 0 {
		return fmt.Errorf("%w: status windows must be positive", domain.ErrInvalidConfig)
	}
	if c.Table == "" {
		return fmt.Errorf("%w: table is required", domain.ErrInvalidConfig)
	}
	if len(c.ServiceURL) > 0 && c.ServiceURL[len(c.ServiceURL)-1] == '/' {
		c.ServiceURL = c.ServiceURL[:len(c.ServiceURL)-1]
	}
	return nil
}
