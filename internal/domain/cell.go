package domain

// CellState is the lifecycle state of one editable (row, column) value.
// There is no terminal state; a cell is reused indefinitely.
type CellState int

const (
	CellEmpty CellState = iota
	CellWorkInProgress
	CellConfirmed
	CellError
)

// String returns a human-readable representation of the state.
func (s CellState) String() string {
	switch s {
	case CellEmpty:
		return "Empty"
	case CellWorkInProgress:
		return "WorkInProgress"
	case CellConfirmed:
		return "Confirmed"
	case CellError:
		return "Error"
	default:
		return "Unknown"
	}
}

// CellKey identifies one editable cell: a row (the persisted entity) and a
// column (one field of that row).
type CellKey struct {
	Row    string
	Column string
}

// NextOnEdit returns the state a cell enters when its value is edited.
// Editing to zero empties the cell from any state; a non-zero edit puts the
// cell in WorkInProgress, un-confirming it and optimistically clearing a
// previous validation error.
func (s CellState) NextOnEdit(value float64) CellState {
	if value == 0 {
		return CellEmpty
	}
	return CellWorkInProgress
}

// CanConfirm reports whether an explicit confirm action is legal.
// Confirming is allowed from WorkInProgress, and from Error once the value
// is non-zero again. Empty and Confirmed cells cannot be confirmed.
func (s CellState) CanConfirm(value float64) bool {
	switch s {
	case CellWorkInProgress:
		return true
	case CellError:
		return value != 0
	default:
		return false
	}
}

// ValidationResult is the outcome of the remote validation call for one
// candidate cell value.
type ValidationResult struct {
	Valid   bool   `json:"is_valid"`
	Message string `json:"error_message,omitempty"`
}
