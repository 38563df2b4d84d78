package gridsave

import (
	"net/http"

	logAdapter "github.com/fintab-labs/gridsave/internal/adapters/log"
	"github.com/fintab-labs/gridsave/internal/ports"
)

// Logger is the interface for structured logging.
type Logger = ports.Logger

// LogField represents a structured log field.
type LogField = ports.Field

// HTTPClient is the interface for making HTTP requests.
// *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// Clock abstracts the time source; inject a fake in tests to drive the
// debounce and status windows without real waits.
type Clock = ports.Clock

// Store persists batched record upserts.
type Store = ports.RecordStore

// Validator checks candidate cell values against remote business rules.
type Validator = ports.Validator

// Journal persists the pending set across crashes.
type Journal = ports.Journal

// NewConsoleLogger returns a zerolog-backed logger with console output.
func NewConsoleLogger() Logger {
	return logAdapter.NewConsole()
}

// Option configures optional behavior of a Session.
type Option func(*options)

// options holds the optional configuration for a Session.
type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	clock        ports.Clock
	store        ports.RecordStore
	validator    ports.Validator
	journal      ports.Journal
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     logAdapter.NewNoop(),
	}
}

// WithHTTPClient sets a custom HTTP client for remote calls.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock sets a custom time source. If not provided, the wall clock
// is used.
func WithClock(clock Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithStore replaces the HTTP store with a custom upsert backend.
// When set, ServiceURL is not required.
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithValidator replaces the HTTP validator with a custom one.
func WithValidator(validator Validator) Option {
	return func(o *options) {
		o.validator = validator
	}
}

// WithJournal replaces the file journal with a custom implementation.
// When set, JournalDir is ignored.
func WithJournal(journal Journal) Option {
	return func(o *options) {
		o.journal = journal
	}
}

// WithEventHandler sets a handler for session events. Events are called
// synchronously from the flushing goroutine; handlers must not block.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}
