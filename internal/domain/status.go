package domain

// SaveStatus is the coarse save indicator shown next to the grid.
// It is presentation telemetry, not a lock: exactly one value is current at
// any instant and only the saver mutates it.
type SaveStatus int

const (
	StatusIdle SaveStatus = iota
	StatusSaving
	StatusSaved
	StatusError
)

// String returns a human-readable representation of the status.
func (s SaveStatus) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusSaving:
		return "Saving"
	case StatusSaved:
		return "Saved"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}
