// Package store provides SQLite-backed durable storage for expansion runs.
//
// A run is identified by the content hash of its inputs (template,
// bindings and vocabulary, see ir.RunID) and records the hash of its
// output. The emitted statements are stored as N-Quads lines together
// with the bundle structure, so a run's output graph can be read back
// exactly and compared against a fresh expansion.
//
// # Patterns
//
// Idempotent writes
//   - runs.run_id is the primary key; writing the same run twice is a no-op
//   - WriteRun reports whether a new run was inserted
//
// Logical time
//   - runs and statements are ordered by seq INTEGER, never timestamps
//   - ListRuns returns runs in insertion order: ORDER BY seq ASC
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
