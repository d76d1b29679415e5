package driven

import "context"

// VectorIndex provides nearest-neighbour search over chunk embeddings.
// The distance metric is fixed per index and must match the one used
// when the vectors were produced.
type VectorIndex interface {
	// Add inserts vectors for the given chunks.
	Add(ctx context.Context, entries []VectorEntry) error

	// DeleteDocument removes every vector belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search finds the k nearest chunks to the query vector.
	// When filter is non-empty only chunks of those documents are considered.
	// Hits are ordered by ascending distance, ties by chunk ID.
	Search(ctx context.Context, query []float32, k int, filter []string) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorEntry is one vector to index.
type VectorEntry struct {
	ChunkID    string
	DocumentID string
	Embedding  []float32
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Distance is the metric distance to the query; lower is closer.
	Distance float64
}
