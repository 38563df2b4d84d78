package app

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	logAdapter "github.com/fintab-labs/gridsave/internal/adapters/log"
	"github.com/fintab-labs/gridsave/internal/domain"
)

type recorderStub struct {
	mu    sync.Mutex
	calls []recordedChange
	err   error
}

type recordedChange struct {
	entityID string
	fields   map[string]any
}

func (r *recorderStub) Record(entityID string, fieldUpdates map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, recordedChange{entityID: entityID, fields: fieldUpdates})
	return nil
}

func (r *recorderStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recorderStub) last() recordedChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func newTestController() (*Controller, *recorderStub) {
	rec := &recorderStub{}
	return NewController(rec, logAdapter.NewNoop()), rec
}

func TestApplyEditTransitions(t *testing.T) {
	tests := []struct {
		name  string
		setup []string // raw values applied first
		edit  string
		want  domain.CellState
	}{
		{"empty to zero stays empty", nil, "0", domain.CellEmpty},
		{"empty to non-zero starts work", nil, "100", domain.CellWorkInProgress},
		{"work to zero empties", []string{"100"}, "0", domain.CellEmpty},
		{"work to non-zero stays work", []string{"100"}, "200", domain.CellWorkInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController()
			for _, raw := range tt.setup {
				if _, err := c.ApplyEdit("row-1", "budget", raw); err != nil {
					t.Fatalf("setup edit %q: %v", raw, err)
				}
			}
			res, err := c.ApplyEdit("row-1", "budget", tt.edit)
			if err != nil {
				t.Fatalf("ApplyEdit(%q): %v", tt.edit, err)
			}
			if res.State != tt.want {
				t.Errorf("state = %s, want %s", res.State, tt.want)
			}
		})
	}
}

func TestApplyEditRejectsBadInput(t *testing.T) {
	c, rec := newTestController()
	if _, err := c.ApplyEdit("row-1", "budget", "100"); err != nil {
		t.Fatal(err)
	}
	before := rec.count()

	for _, raw := range []string{"-5", "abc", "", "  ", "NaN", "+Inf"} {
		_, err := c.ApplyEdit("row-1", "budget", raw)
		if !errors.Is(err, domain.ErrInvalidValue) {
			t.Errorf("ApplyEdit(%q) err = %v, want ErrInvalidValue", raw, err)
		}
	}

	res, _ := c.State("row-1", "budget")
	if res.State != domain.CellWorkInProgress || res.Value != 100 {
		t.Errorf("cell changed on rejected input: %s/%v", res.State, res.Value)
	}
	if rec.count() != before {
		t.Error("rejected edits reached the recorder")
	}
}

func TestEditRecordsValueAndState(t *testing.T) {
	c, rec := newTestController()
	if _, err := c.ApplyEdit("row-1", "budget", "50000"); err != nil {
		t.Fatal(err)
	}

	got := rec.last()
	if got.entityID != "row-1" {
		t.Errorf("entity = %q, want row-1", got.entityID)
	}
	want := map[string]any{
		"budget":       50000.0,
		"budget_state": "WorkInProgress",
	}
	if diff := cmp.Diff(want, got.fields); diff != "" {
		t.Errorf("recorded fields mismatch (-want +got):\n%s", diff)
	}
}

func TestSelfLoopStillRecordsFields(t *testing.T) {
	c, rec := newTestController()
	mustEdit(t, c, "row-1", "budget", "100")
	mustEdit(t, c, "row-1", "budget", "200")

	if got := rec.count(); got != 2 {
		t.Errorf("recorder calls = %d, want 2 (value updates persist on self-loops)", got)
	}
	if got := rec.last().fields["budget"]; got != 200.0 {
		t.Errorf("last recorded value = %v, want 200", got)
	}
}

func TestConfirm(t *testing.T) {
	c, rec := newTestController()
	mustEdit(t, c, "row-1", "budget", "100")

	res, err := c.Confirm("row-1", "budget")
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if res.State != domain.CellConfirmed {
		t.Errorf("state = %s, want Confirmed", res.State)
	}
	if got := rec.last().fields["budget_state"]; got != "Confirmed" {
		t.Errorf("recorded state = %v, want Confirmed", got)
	}

	// Editing a confirmed cell un-confirms it.
	res, _ = c.ApplyEdit("row-1", "budget", "150")
	if res.State != domain.CellWorkInProgress {
		t.Errorf("state after edit = %s, want WorkInProgress", res.State)
	}
}

func TestConfirmPreconditions(t *testing.T) {
	c, _ := newTestController()

	// Never-touched cell.
	if _, err := c.Confirm("row-1", "budget"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("confirm untouched cell: err = %v, want ErrInvalidTransition", err)
	}

	// Empty cell.
	mustEdit(t, c, "row-1", "budget", "0")
	if _, err := c.Confirm("row-1", "budget"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("confirm empty cell: err = %v, want ErrInvalidTransition", err)
	}

	// Already confirmed.
	mustEdit(t, c, "row-1", "budget", "10")
	if _, err := c.Confirm("row-1", "budget"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Confirm("row-1", "budget"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("confirm confirmed cell: err = %v, want ErrInvalidTransition", err)
	}
}

func TestValidationForcesError(t *testing.T) {
	c, rec := newTestController()
	res := mustEdit(t, c, "row-1", "budget", "100")

	got, applied := c.ApplyValidation("row-1", "budget", res.Seq, domain.ValidationResult{
		Valid:   false,
		Message: "exceeds approved ceiling",
	})
	if !applied {
		t.Fatal("validation for the latest edit was not applied")
	}
	if got.State != domain.CellError {
		t.Errorf("state = %s, want Error", got.State)
	}
	if msg := c.Message("row-1", "budget"); msg != "exceeds approved ceiling" {
		t.Errorf("message = %q", msg)
	}
	if got := rec.last().fields["budget_state"]; got != "Error" {
		t.Errorf("recorded state = %v, want Error", got)
	}

	// Editing clears the error optimistically.
	res, _ = c.ApplyEdit("row-1", "budget", "90")
	if res.State != domain.CellWorkInProgress {
		t.Errorf("state after edit = %s, want WorkInProgress", res.State)
	}
	if msg := c.Message("row-1", "budget"); msg != "" {
		t.Errorf("stale message survived the edit: %q", msg)
	}
}

func TestStaleValidationDiscarded(t *testing.T) {
	c, _ := newTestController()
	first := mustEdit(t, c, "row-1", "budget", "100")
	mustEdit(t, c, "row-1", "budget", "200")

	// The validation of the superseded 100 arrives late.
	got, applied := c.ApplyValidation("row-1", "budget", first.Seq, domain.ValidationResult{Valid: false})
	if applied {
		t.Error("stale validation was applied")
	}
	if got.State != domain.CellWorkInProgress {
		t.Errorf("state = %s, want WorkInProgress (never regress from stale data)", got.State)
	}
}

func TestValidValidationLeavesStateAlone(t *testing.T) {
	c, rec := newTestController()
	res := mustEdit(t, c, "row-1", "budget", "100")
	before := rec.count()

	got, applied := c.ApplyValidation("row-1", "budget", res.Seq, domain.ValidationResult{Valid: true})
	if !applied || got.State != domain.CellWorkInProgress {
		t.Errorf("state = %s, applied = %v, want WorkInProgress, true", got.State, applied)
	}
	if rec.count() != before {
		t.Error("a passing validation should not persist anything")
	}
}

func TestValidationAppliesRegardlessOfPriorState(t *testing.T) {
	c, _ := newTestController()
	res := mustEdit(t, c, "row-1", "budget", "100")
	if _, err := c.Confirm("row-1", "budget"); err != nil {
		t.Fatal(err)
	}

	// A validation for the latest edit flips even a confirmed cell; cell
	// focus is a UI concern the controller cannot see.
	got, applied := c.ApplyValidation("row-1", "budget", res.Seq, domain.ValidationResult{Valid: false})
	if !applied || got.State != domain.CellError {
		t.Errorf("state = %s, applied = %v, want Error, true", got.State, applied)
	}
}

func TestConfirmFromError(t *testing.T) {
	c, _ := newTestController()
	res := mustEdit(t, c, "row-1", "budget", "100")
	c.ApplyValidation("row-1", "budget", res.Seq, domain.ValidationResult{Valid: false})

	got, err := c.Confirm("row-1", "budget")
	if err != nil {
		t.Fatalf("Confirm from Error with non-zero value: %v", err)
	}
	if got.State != domain.CellConfirmed {
		t.Errorf("state = %s, want Confirmed", got.State)
	}
}

func TestMarkError(t *testing.T) {
	c, _ := newTestController()

	if _, err := c.MarkError("row-1", "budget", "bad"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("MarkError on unknown cell: err = %v, want ErrInvalidTransition", err)
	}

	mustEdit(t, c, "row-1", "budget", "100")
	res, err := c.MarkError("row-1", "budget", "flagged by reviewer")
	if err != nil {
		t.Fatal(err)
	}
	if res.State != domain.CellError {
		t.Errorf("state = %s, want Error", res.State)
	}
	if msg := c.Message("row-1", "budget"); msg != "flagged by reviewer" {
		t.Errorf("message = %q", msg)
	}
}

func TestValidationForUnknownCellIgnored(t *testing.T) {
	c, _ := newTestController()
	if _, applied := c.ApplyValidation("row-9", "budget", 0, domain.ValidationResult{Valid: false}); applied {
		t.Error("validation applied to a cell that was never touched")
	}
}

func mustEdit(t *testing.T, c *Controller, row, column, raw string) CellResult {
	t.Helper()
	res, err := c.ApplyEdit(row, column, raw)
	if err != nil {
		t.Fatalf("ApplyEdit(%s, %s, %q): %v", row, column, raw, err)
	}
	return res
}
