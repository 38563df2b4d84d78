package domain

import "time"

// PendingChange accumulates unsaved field edits for one forecast row.
// Later edits to the same field overwrite earlier ones; QueuedAt records the
// oldest unflushed edit and never advances on merge, so the save countdown
// cannot starve under continuous typing.
type PendingChange struct {
	// EntityID identifies the forecast row this change belongs to.
	EntityID string `json:"entity_id"`

	// Fields maps field name to its newest unsaved value.
	Fields map[string]any `json:"fields"`

	// QueuedAt is the time of the first unflushed edit to this row.
	QueuedAt time.Time `json:"queued_at"`
}

// Record is one row of a batched upsert, ready for the remote store.
type Record struct {
	ID        string
	Fields    map[string]any
	UpdatedAt time.Time
}

// ChangeSet is the pending set of unsaved changes.
// It maintains the invariant that at most one PendingChange exists per entity;
// merging is the only mutation path.
type ChangeSet struct {
	changes map[string]*PendingChange
}

// NewChangeSet creates an empty change set.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{changes: make(map[string]*PendingChange)}
}

// Merge folds fieldUpdates into the entry for entityID, creating it with
// queuedAt if absent. Existing field values are overwritten one by one;
// the entry's QueuedAt is kept.
func (c *ChangeSet) Merge(entityID string, fieldUpdates map[string]any, queuedAt time.Time) {
	entry, ok := c.changes[entityID]
	if !ok {
		entry = &PendingChange{
			EntityID: entityID,
			Fields:   make(map[string]any, len(fieldUpdates)),
			QueuedAt: queuedAt,
		}
		c.changes[entityID] = entry
	}
	for k, v := range fieldUpdates {
		entry.Fields[k] = v
	}
}

// MergeUnder re-inserts a failed flush snapshot beneath any entries that
// arrived after the snapshot was taken: newer field values win, and the
// older QueuedAt of the two is kept.
func (c *ChangeSet) MergeUnder(snapshot *ChangeSet) {
	for id, old := range snapshot.changes {
		entry, ok := c.changes[id]
		if !ok {
			c.changes[id] = old
			continue
		}
		for k, v := range old.Fields {
			if _, exists := entry.Fields[k]; !exists {
				entry.Fields[k] = v
			}
		}
		if old.QueuedAt.Before(entry.QueuedAt) {
			entry.QueuedAt = old.QueuedAt
		}
	}
}

// Get returns the pending change for entityID, if any.
func (c *ChangeSet) Get(entityID string) (*PendingChange, bool) {
	entry, ok := c.changes[entityID]
	return entry, ok
}

// Len returns the number of pending entries.
func (c *ChangeSet) Len() int {
	return len(c.changes)
}

// Empty returns true if nothing is pending.
func (c *ChangeSet) Empty() bool {
	return len(c.changes) == 0
}

// Oldest returns the earliest QueuedAt across all entries.
func (c *ChangeSet) Oldest() (time.Time, bool) {
	var oldest time.Time
	found := false
	for _, entry := range c.changes {
		if !found || entry.QueuedAt.Before(oldest) {
			oldest = entry.QueuedAt
			found = true
		}
	}
	return oldest, found
}

// Records builds the batched upsert payload, stamping every record with
// updatedAt. Entries are emitted in QueuedAt order, oldest first.
func (c *ChangeSet) Records(updatedAt time.Time) []Record {
	records := make([]Record, 0, len(c.changes))
	for _, entry := range c.changes {
		fields := make(map[string]any, len(entry.Fields))
		for k, v := range entry.Fields {
			fields[k] = v
		}
		records = append(records, Record{
			ID:        entry.EntityID,
			Fields:    fields,
			UpdatedAt: updatedAt,
		})
	}
	sortRecordsByQueue(records, c.changes)
	return records
}

// Changes returns the pending entries for persistence (journal snapshots).
func (c *ChangeSet) Changes() []PendingChange {
	out := make([]PendingChange, 0, len(c.changes))
	for _, entry := range c.changes {
		fields := make(map[string]any, len(entry.Fields))
		for k, v := range entry.Fields {
			fields[k] = v
		}
		out = append(out, PendingChange{
			EntityID: entry.EntityID,
			Fields:   fields,
			QueuedAt: entry.QueuedAt,
		})
	}
	return out
}

// Clear drops all pending entries.
func (c *ChangeSet) Clear() {
	c.changes = make(map[string]*PendingChange)
}

func sortRecordsByQueue(records []Record, changes map[string]*PendingChange) {
	// Insertion sort; pending sets are small (one entry per edited row).
	for i := 1; i < len(records); i++ {
		for j := i; j > 0; j-- {
			a := changes[records[j-1].ID]
			b := changes[records[j].ID]
			if b.QueuedAt.Before(a.QueuedAt) {
				records[j-1], records[j] = records[j], records[j-1]
			} else {
				break
			}
		}
	}
}
