// Package store provides SQLite-backed storage for datasets served through
// cursor pagination.
//
// # Pagination
//
// ListDatasets pages newest first. The cursor is a global id,
// base64("Dataset:<id>"), naming the first row of the next page:
//
//	SELECT ... WHERE id <= :cursor ORDER BY id DESC LIMIT :limit+1
//
// The extra row is not returned; its id becomes NextCursor. A page shorter
// than limit+1 is the last one and has no NextCursor.
//
// Source adapts the store to pager.Source so a pager.View can consume it
// directly. Callers outside this package treat cursors as opaque.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
