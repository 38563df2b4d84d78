// Package domain contains the core entities and value objects for gridsave.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure state and transition rules.
//
// # Entities
//
//   - [PendingChange]: accumulated unsaved field edits for one forecast row
//   - [ChangeSet]: the pending set, at most one PendingChange per row
//   - [CellState]: lifecycle state of one editable (row, column) value
//   - [SaveStatus]: coarse save telemetry shown next to the grid
//
// # Design Principles
//
// Domain entities are:
//   - Free of infrastructure dependencies
//   - Focused on invariants (merge-only mutation, queue-time stability)
//   - Testable without mocks or external systems
package domain
