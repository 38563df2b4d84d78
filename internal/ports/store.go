package ports

import (
	"context"

	"github.com/fintab-labs/gridsave/internal/domain"
)

// RecordStore persists batched record upserts to the remote table store.
// Implementations handle serialization, transport and authentication.
type RecordStore interface {
	// UpsertBatch sends all records in one call. It returns nil only when
	// the whole batch was accepted; any error means nothing may be assumed
	// saved and the caller keeps its pending set.
	UpsertBatch(ctx context.Context, records []domain.Record) error
}

// Validator checks one candidate cell value against the remote business
// rules. A non-nil error means the validation service could not be reached
// and the result carries no information.
type Validator interface {
	Validate(ctx context.Context, entityID, field string, value float64) (domain.ValidationResult, error)
}
