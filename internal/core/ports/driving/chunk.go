package driving

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// ChunkService manages the embedded chunks of documents.
type ChunkService interface {
	// AddChunks persists all chunks of a document atomically.
	AddChunks(ctx context.Context, documentID string, inputs []domain.ChunkInput) ([]domain.Chunk, error)

	// ChunksByDocument returns a document's chunks ordered by index.
	ChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// NearestByVector returns the k nearest chunks, optionally restricted to documents.
	NearestByVector(ctx context.Context, query []float32, documentIDs []string, k int) ([]domain.ScoredChunk, error)
}
