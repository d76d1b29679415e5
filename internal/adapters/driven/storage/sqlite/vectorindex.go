package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// ==================== Vector Index ====================

// vectorIndex implements driven.VectorIndex as an exact scan over the
// chunk_vectors table.
type vectorIndex struct {
	store     *Store
	dimension int
	metric    domain.DistanceMetric
}

var _ driven.VectorIndex = (*vectorIndex)(nil)

// Add inserts vectors for the given chunks in one transaction.
// Every chunk must already exist in the chunks table.
func (v *vectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != v.dimension {
			return fmt.Errorf("%w: chunk %s has width %d, want %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Embedding), v.dimension)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO chunk_vectors (chunk_id, document_id, embedding) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ChunkID, e.DocumentID, float32SliceToBytes(e.Embedding)); err != nil {
			return mapConstraint(err, "indexing chunk "+e.ChunkID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DeleteDocument removes every vector belonging to a document.
func (v *vectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	if _, err := v.store.db.ExecContext(ctx,
		"DELETE FROM chunk_vectors WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Search scans the stored vectors and returns the k nearest.
func (v *vectorIndex) Search(
	ctx context.Context, query []float32, k int, filter []string,
) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != v.dimension {
		return nil, fmt.Errorf("%w: query has width %d, want %d",
			domain.ErrDimensionMismatch, len(query), v.dimension)
	}

	q := "SELECT chunk_id, embedding FROM chunk_vectors"
	var args []any
	if len(filter) > 0 {
		var marks string
		marks, args = placeholders(filter)
		q += " WHERE document_id IN (" + marks + ")"
	}

	rows, err := v.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var chunkID string
		var blob []byte
		if err := rows.Scan(&chunkID, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:  chunkID,
			Distance: v.metric.Distance(query, bytesToFloat32Slice(blob)),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close is a no-op; the owning Store holds the connection.
func (v *vectorIndex) Close() error {
	return nil
}
