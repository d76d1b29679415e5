// Package domain defines the core business entities for docgraph.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentNode: A logical document produced by one ingestion event
//   - Chunk: An embedded fragment of a document's text
//   - DocumentRelation: A directed, typed edge between two documents
//   - RetrievalPlan: The ordered, budget-bounded selection for one query
//   - RetrievalConfig: Explicit configuration threaded into the core services
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
