package ports

import (
	"context"

	"github.com/fintab-labs/gridsave/internal/domain"
)

// Journal persists the pending set so unsaved drafts survive a crash.
// Implementations write atomically (temp file then rename, or equivalent).
type Journal interface {
	// Load retrieves the last persisted pending set.
	// Returns an empty slice and nil error if no journal exists.
	Load(ctx context.Context) ([]domain.PendingChange, error)

	// Save replaces the journal with the given pending set. Saving an
	// empty set clears the journal.
	Save(ctx context.Context, changes []domain.PendingChange) error
}
