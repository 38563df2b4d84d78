// Package gridsave coordinates deferred batch saving for an editable
// forecasting grid: field edits are coalesced per row, flushed to the remote
// table store after a quiet period or on demand, and every cell carries a
// lifecycle state (Empty, WorkInProgress, Confirmed, Error) that is persisted
// alongside its value.
//
// Example usage:
//
//	cfg := gridsave.Config{
//	    ServiceURL: "https://api.example.com",
//	    AuthKey:    "your-api-key",
//	}
//	session, err := gridsave.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close(context.Background())
//
//	res, err := session.ApplyEdit("row-1", "budget", "50000")
package gridsave

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	clockAdapter "github.com/fintab-labs/gridsave/internal/adapters/clock"
	fsAdapter "github.com/fintab-labs/gridsave/internal/adapters/fs"
	"github.com/fintab-labs/gridsave/internal/adapters/httpstore"
	"github.com/fintab-labs/gridsave/internal/app"
	"github.com/fintab-labs/gridsave/internal/domain"
	"github.com/fintab-labs/gridsave/internal/ports"
)

// SaveStatus is the coarse save indicator: Idle, Saving, Saved or Error.
type SaveStatus = domain.SaveStatus

// Save status values.
const (
	StatusIdle   = domain.StatusIdle
	StatusSaving = domain.StatusSaving
	StatusSaved  = domain.StatusSaved
	StatusError  = domain.StatusError
)

// CellState is the lifecycle state of one editable cell.
type CellState = domain.CellState

// Cell lifecycle states.
const (
	CellEmpty          = domain.CellEmpty
	CellWorkInProgress = domain.CellWorkInProgress
	CellConfirmed      = domain.CellConfirmed
	CellError          = domain.CellError
)

// CellResult is the outcome of a cell operation.
type CellResult = app.CellResult

// ValidationResult is the outcome of a remote validation call.
type ValidationResult = domain.ValidationResult

// Errors returned by the session; check with errors.Is.
var (
	ErrInvalidValue          = domain.ErrInvalidValue
	ErrInvalidTransition     = domain.ErrInvalidTransition
	ErrFlushFailed           = domain.ErrFlushFailed
	ErrValidationUnavailable = domain.ErrValidationUnavailable
	ErrSessionClosed         = domain.ErrSessionClosed
	ErrInvalidConfig         = domain.ErrInvalidConfig
)

// Session owns one grid's save coordination: a pending-change aggregator
// and the cell lifecycle controller feeding it. Construct one Session per
// grid; sessions are independent and safe for concurrent use.
type Session struct {
	cfg        Config
	saver      *app.Saver
	controller *app.Controller
	validator  ports.Validator
	logger     ports.Logger

	mu     sync.Mutex
	closed bool
}

// New creates a session with the given configuration.
// If a journal is configured, previously unsaved drafts are restored and
// will autosave on the usual debounce.
func New(cfg Config, opts ...Option) (*Session, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	clock := o.clock
	if clock == nil {
		clock = clockAdapter.NewSystem()
	}

	var client *httpstore.Client
	if (o.store == nil || o.validator == nil) && cfg.ServiceURL != "" {
		client = httpstore.NewClient(cfg.ServiceURL, cfg.Table, cfg.AuthKey, o.httpClient, logger)
	}

	store := o.store
	if store == nil {
		if client == nil {
			return nil, fmt.Errorf("%w: service url is required without a custom store", domain.ErrInvalidConfig)
		}
		store = client
	}
	validator := o.validator
	if validator == nil && client != nil {
		validator = client
	}

	journal := o.journal
	if journal == nil && cfg.JournalDir != "" {
		journal = fsAdapter.NewJournal(cfg.JournalDir)
	}

	var emitter app.FlushEventEmitter
	if o.eventHandler != nil {
		emitter = &eventEmitterWrapper{handler: o.eventHandler}
	}

	saver := app.NewSaver(app.SaverConfig{
		Delay:       cfg.AutosaveDelay,
		SavedWindow: cfg.SavedStatusWindow,
		ErrorWindow: cfg.ErrorStatusWindow,
	}, store, journal, clock, logger, emitter)

	s := &Session{
		cfg:        cfg,
		saver:      saver,
		controller: app.NewController(saver, logger),
		validator:  validator,
		logger:     logger,
	}

	if journal != nil {
		changes, err := journal.Load(context.Background())
		if err != nil {
			logger.Warn("journal load failed", ports.Err(err))
		} else {
			saver.Restore(changes)
		}
	}

	return s, nil
}

// ApplyEdit applies a user edit to one cell and queues the change for the
// next flush. Malformed or negative input returns ErrInvalidValue and
// leaves the cell untouched.
func (s *Session) ApplyEdit(row, column, rawValue string) (CellResult, error) {
	if err := s.open(); err != nil {
		return CellResult{}, err
	}
	return s.controller.ApplyEdit(row, column, rawValue)
}

// Confirm marks a cell as explicitly confirmed. Confirming never happens
// automatically.
func (s *Session) Confirm(row, column string) (CellResult, error) {
	if err := s.open(); err != nil {
		return CellResult{}, err
	}
	return s.controller.Confirm(row, column)
}

// MarkError explicitly flags a cell as erroneous.
func (s *Session) MarkError(row, column, message string) (CellResult, error) {
	if err := s.open(); err != nil {
		return CellResult{}, err
	}
	return s.controller.MarkError(row, column, message)
}

// ValidateCell runs the remote validation for a cell's current value and
// applies the result. If the validation service is unreachable the cell
// keeps its current state (unknown, not invalid) and the error wraps
// ErrValidationUnavailable. A result raced by a newer edit is discarded.
func (s *Session) ValidateCell(ctx context.Context, row, column string) (CellResult, error) {
	if err := s.open(); err != nil {
		return CellResult{}, err
	}
	if s.validator == nil {
		return CellResult{}, fmt.Errorf("%w: no validator configured", domain.ErrValidationUnavailable)
	}

	current, ok := s.controller.State(row, column)
	if !ok {
		return CellResult{}, fmt.Errorf("%w: unknown cell", domain.ErrInvalidTransition)
	}

	result, err := s.validator.Validate(ctx, row, column, current.Value)
	if err != nil {
		s.logger.Warn("validation unavailable",
			ports.String("row", row),
			ports.String("column", column),
			ports.Err(err),
		)
		return current, err
	}

	res, _ := s.controller.ApplyValidation(row, column, current.Seq, result)
	return res, nil
}

// ApplyValidation applies an externally obtained validation result, guarded
// by the sequence number captured when the validation was requested.
func (s *Session) ApplyValidation(row, column string, asOfSeq uint64, result ValidationResult) (CellResult, bool) {
	return s.controller.ApplyValidation(row, column, asOfSeq, result)
}

// FlushNow cancels the autosave timer and persists the entire pending set
// immediately. No-op when nothing is pending.
func (s *Session) FlushNow(ctx context.Context) error {
	if err := s.open(); err != nil {
		return err
	}
	return s.saver.FlushNow(ctx)
}

// DiscardPending drops all unsaved changes without persisting, for explicit
// abandon flows such as navigating away.
func (s *Session) DiscardPending() {
	s.saver.DiscardPending()
}

// Status returns the current save indicator.
func (s *Session) Status() SaveStatus {
	return s.saver.Status()
}

// PendingCount returns the number of rows with unsaved changes.
func (s *Session) PendingCount() int {
	return s.saver.PendingCount()
}

// HasUnsaved returns true if any change is pending.
func (s *Session) HasUnsaved() bool {
	return s.saver.HasUnsaved()
}

// SecondsUntilFlush returns the whole seconds until the autosave deadline,
// and false when nothing is pending.
func (s *Session) SecondsUntilFlush() (int, bool) {
	return s.saver.SecondsUntilFlush()
}

// CellState returns the current state of a cell, and false if the cell has
// never been touched.
func (s *Session) CellState(row, column string) (CellResult, bool) {
	return s.controller.State(row, column)
}

// CellMessage returns the last validation message attached to a cell.
func (s *Session) CellMessage(row, column string) string {
	return s.controller.Message(row, column)
}

// Retune applies new autosave tuning to the running session, re-arming any
// pending timer with the new delay. Used by config hot-reload.
func (s *Session) Retune(delay, savedWindow, errorWindow time.Duration) {
	s.saver.Retune(app.SaverConfig{
		Delay:       delay,
		SavedWindow: savedWindow,
		ErrorWindow: errorWindow,
	})
}

// Close flushes any pending changes and stops the session's timers.
// Returns the flush error, if any; the journal still holds whatever could
// not be saved.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.closed = true
	s.mu.Unlock()

	err := s.saver.FlushNow(ctx)
	s.saver.Stop()
	return err
}

func (s *Session) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSessionClosed
	}
	return nil
}
