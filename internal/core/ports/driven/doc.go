// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - GraphStore: Document and relation persistence
//   - ChunkStore: Transactional chunk persistence
//   - VectorIndex: Nearest-neighbour search by vector (SQLite scan, in-memory, or pgvector)
//   - EmbeddingService: Generates vector embeddings (Ollama or OpenAI)
//   - ConfigStore: Flat key-value configuration storage
//
// Failures of VectorIndex and EmbeddingService are surfaced to the caller
// as typed errors. Nothing in the core retries them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
