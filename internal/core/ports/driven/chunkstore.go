package driven

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// ChunkStore persists chunks. Writes for one document are atomic:
// readers see all of a document's chunks or none of them.
type ChunkStore interface {
	// SaveChunks stores all chunks of a document in one transaction.
	// Fails with domain.ErrNotFound if the document is missing and
	// domain.ErrConflict if the document already has chunks.
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetChunks retrieves all chunks for a document ordered by index.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// GetChunksByIDs retrieves the chunks that exist among ids.
	GetChunksByIDs(ctx context.Context, ids []string) ([]domain.Chunk, error)

	// DeleteChunks removes all chunks of a document.
	DeleteChunks(ctx context.Context, documentID string) error

	// ListVectors returns the embedding of every stored chunk, ordered by
	// document ID then chunk index. Used to rebuild a volatile vector index.
	ListVectors(ctx context.Context) ([]VectorEntry, error)
}
