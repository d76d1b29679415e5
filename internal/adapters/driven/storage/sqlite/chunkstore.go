package sqlite

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// ==================== Chunk Store ====================

// chunkStore implements driven.ChunkStore.
type chunkStore struct {
	store *Store
}

var _ driven.ChunkStore = (*chunkStore)(nil)

const chunkColumns = `id, document_id, chunk_index, content, embedding, strategy, provider, metadata`

// SaveChunks stores all chunks of a document in one transaction.
func (s *chunkStore) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE id = ?", documentID).Scan(&exists); err != nil {
		return fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}

	var existing int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID).Scan(&existing); err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}
	if existing > 0 {
		return fmt.Errorf("%w: document %s already has %d chunks", domain.ErrConflict, documentID, existing)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		if c.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to %s, not %s",
				domain.ErrInvalidInput, c.ID, c.DocumentID, documentID)
		}
		metadataJSON, err := marshalMetadata(c.Metadata)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Index, c.Text,
			float32SliceToBytes(c.Embedding), c.Strategy, c.Provider, metadataJSON); err != nil {
			return mapConstraint(err, fmt.Sprintf("saving chunk %d", c.Index))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *chunkStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return s.queryChunks(ctx, `
		SELECT `+chunkColumns+` FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, documentID)
}

// GetChunksByIDs retrieves the chunks that exist among ids, ordered by ID.
func (s *chunkStore) GetChunksByIDs(ctx context.Context, ids []string) ([]domain.Chunk, error) {
	if len(ids) == 0 {
		return []domain.Chunk{}, nil
	}
	marks, args := placeholders(ids)
	return s.queryChunks(ctx, `
		SELECT `+chunkColumns+` FROM chunks WHERE id IN (`+marks+`) ORDER BY id
	`, args...)
}

// DeleteChunks removes all chunks of a document. Their vectors in
// chunk_vectors go with them.
func (s *chunkStore) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// ListVectors returns the embedding of every stored chunk.
func (s *chunkStore) ListVectors(ctx context.Context) ([]driven.VectorEntry, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, embedding FROM chunks ORDER BY document_id, chunk_index
	`)
	if err != nil {
		return nil, fmt.Errorf("listing vectors: %w", err)
	}
	defer rows.Close()

	entries := []driven.VectorEntry{}
	for rows.Next() {
		var e driven.VectorEntry
		var blob []byte
		if err := rows.Scan(&e.ChunkID, &e.DocumentID, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		e.Embedding = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return entries, nil
}

func (s *chunkStore) queryChunks(ctx context.Context, query string, args ...any) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	chunks := []domain.Chunk{}
	for rows.Next() {
		var c domain.Chunk
		var embedding []byte
		var metadataJSON string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Text, &embedding,
			&c.Strategy, &c.Provider, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		if c.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}
