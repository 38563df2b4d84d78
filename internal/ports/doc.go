// Package ports defines the interfaces that connect the application layer to
// infrastructure adapters.
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// implementations (HTTP, file system, zerolog, wall clock).
//
// # Port Interfaces
//
//   - [RecordStore]: batched upserts against the remote table store
//   - [Validator]: remote validation of a candidate cell value
//   - [Journal]: crash-recovery persistence of the pending set
//   - [Clock]: time source and timer scheduling, injectable for tests
//   - [Logger]: structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
package ports
