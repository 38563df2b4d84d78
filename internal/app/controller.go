package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/fintab-labs/gridsave/internal/domain"
	"github.com/fintab-labs/gridsave/internal/ports"
)

// ChangeRecorder is the slice of the saver the controller depends on.
// Every successful cell transition enqueues exactly one Record call; the
// controller never talks to the remote store directly.
type ChangeRecorder interface {
	Record(entityID string, fieldUpdates map[string]any) error
}

// CellResult is the outcome of a controller operation on one cell.
type CellResult struct {
	State domain.CellState
	Value float64

	// Seq is the cell's monotonic edit sequence number. Capture it when
	// kicking off a remote validation and pass it back to ApplyValidation
	// so a stale result cannot overwrite a newer edit.
	Seq uint64
}

type cellEntry struct {
	state   domain.CellState
	value   float64
	seq     uint64
	message string
}

// Controller owns the lifecycle state of every editable cell in one grid.
// It is the authoritative holder of the transition rules; rendering reads
// from it and never mutates it.
type Controller struct {
	recorder ChangeRecorder
	logger   ports.Logger

	mu    sync.Mutex
	cells map[domain.CellKey]*cellEntry
}

// NewController creates a controller persisting through recorder.
func NewController(recorder ChangeRecorder, logger ports.Logger) *Controller {
	return &Controller{
		recorder: recorder,
		logger:   logger,
		cells:    make(map[domain.CellKey]*cellEntry),
	}
}

// ApplyEdit parses rawValue as a non-negative number and applies the edit
// transition: zero empties the cell, non-zero puts it in WorkInProgress
// (un-confirming it and optimistically clearing a validation error).
// On malformed or negative input the cell state is unchanged and
// ErrInvalidValue is returned.
func (c *Controller) ApplyEdit(row, column, rawValue string) (CellResult, error) {
	if row == "" || column == "" {
		return CellResult{}, fmt.Errorf("%w: empty cell key", domain.ErrInvalidChange)
	}

	value, err := parseCellValue(rawValue)
	if err != nil {
		return CellResult{}, err
	}

	c.mu.Lock()
	entry := c.entryLocked(row, column)
	next := entry.state.NextOnEdit(value)
	entry.seq++
	entry.state = next
	entry.value = value
	entry.message = ""
	res := CellResult{State: next, Value: value, Seq: entry.seq}
	c.mu.Unlock()

	// Self-loop transitions still carry the new value to the store.
	if err := c.record(row, column, value, next); err != nil {
		return res, err
	}
	return res, nil
}

// Confirm marks a cell as explicitly confirmed. Legal from WorkInProgress,
// and from Error once the value is non-zero again; anything else returns
// ErrInvalidTransition with no state change.
func (c *Controller) Confirm(row, column string) (CellResult, error) {
	c.mu.Lock()
	entry, ok := c.cells[domain.CellKey{Row: row, Column: column}]
	if !ok || !entry.state.CanConfirm(entry.value) {
		state := domain.CellEmpty
		if ok {
			state = entry.state
		}
		c.mu.Unlock()
		return CellResult{}, fmt.Errorf("%w: confirm from %s", domain.ErrInvalidTransition, state)
	}
	entry.state = domain.CellConfirmed
	entry.message = ""
	res := CellResult{State: entry.state, Value: entry.value, Seq: entry.seq}
	c.mu.Unlock()

	if err := c.record(row, column, res.Value, domain.CellConfirmed); err != nil {
		return res, err
	}
	return res, nil
}

// ApplyValidation applies a remote validation result to a cell. asOfSeq is
// the sequence number captured when the validation was requested; a result
// older than the cell's latest edit is discarded, so a slow validation of a
// superseded value can never regress the cell to Error. An invalid result
// forces Error regardless of prior state. Returns the cell's current result
// and whether the validation was applied.
func (c *Controller) ApplyValidation(row, column string, asOfSeq uint64, result domain.ValidationResult) (CellResult, bool) {
	c.mu.Lock()
	entry, ok := c.cells[domain.CellKey{Row: row, Column: column}]
	if !ok {
		c.mu.Unlock()
		return CellResult{}, false
	}
	if entry.seq > asOfSeq {
		res := CellResult{State: entry.state, Value: entry.value, Seq: entry.seq}
		c.mu.Unlock()
		c.logger.Debug("stale validation discarded",
			ports.String("row", row),
			ports.String("column", column),
		)
		return res, false
	}

	changed := false
	if !result.Valid && entry.state != domain.CellError {
		entry.state = domain.CellError
		changed = true
	}
	if !result.Valid {
		entry.message = result.Message
	}
	res := CellResult{State: entry.state, Value: entry.value, Seq: entry.seq}
	value := entry.value
	c.mu.Unlock()

	if changed {
		if err := c.record(row, column, value, domain.CellError); err != nil {
			c.logger.Warn("record validation transition failed", ports.Err(err))
		}
	}
	return res, true
}

// MarkError explicitly flags a cell as erroneous, independent of any remote
// validation. Unknown cells return ErrInvalidTransition.
func (c *Controller) MarkError(row, column, message string) (CellResult, error) {
	c.mu.Lock()
	entry, ok := c.cells[domain.CellKey{Row: row, Column: column}]
	if !ok {
		c.mu.Unlock()
		return CellResult{}, fmt.Errorf("%w: unknown cell", domain.ErrInvalidTransition)
	}
	changed := entry.state != domain.CellError
	entry.state = domain.CellError
	entry.message = message
	res := CellResult{State: entry.state, Value: entry.value, Seq: entry.seq}
	value := entry.value
	c.mu.Unlock()

	if changed {
		if err := c.record(row, column, value, domain.CellError); err != nil {
			return res, err
		}
	}
	return res, nil
}

// State returns the current result for a cell, and false if the cell has
// never been touched.
func (c *Controller) State(row, column string) (CellResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cells[domain.CellKey{Row: row, Column: column}]
	if !ok {
		return CellResult{}, false
	}
	return CellResult{State: entry.state, Value: entry.value, Seq: entry.seq}, true
}

// Message returns the last validation message attached to a cell.
func (c *Controller) Message(row, column string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cells[domain.CellKey{Row: row, Column: column}]
	if !ok {
		return ""
	}
	return entry.message
}

func (c *Controller) entryLocked(row, column string) *cellEntry {
	key := domain.CellKey{Row: row, Column: column}
	entry, ok := c.cells[key]
	if !ok {
		entry = &cellEntry{state: domain.CellEmpty}
		c.cells[key] = entry
	}
	return entry
}

// record ships the cell's new value and state as one named change on the
// owning row. The state travels in a sibling field so the persisted row
// carries both.
func (c *Controller) record(row, column string, value float64, state domain.CellState) error {
	return c.recorder.Record(row, map[string]any{
		column:            value,
		column + "_state": state.String(),
	})
}

func parseCellValue(raw string) (float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty input", domain.ErrInvalidValue)
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidValue, raw)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %q is not finite", domain.ErrInvalidValue, raw)
	}
	if value < 0 {
		return 0, fmt.Errorf("%w: negative value %q", domain.ErrInvalidValue, raw)
	}
	return value, nil
}
