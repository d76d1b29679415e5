// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. It implements several interfaces
// through a single database connection:
//
//   - GraphStore: Document and relation persistence
//   - ChunkStore: Transactional chunk persistence
//   - VectorIndex: Exact nearest-neighbour scan over stored chunk vectors
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
// Foreign keys are enabled on every connection; relation and chunk rows are
// removed with their document through ON DELETE CASCADE.
//
// # Data Location
//
// By default, the database is stored at ~/.docgraph/data/docgraph.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
