package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// ==================== Graph Store ====================

// graphStore implements driven.GraphStore.
type graphStore struct {
	store *Store
}

var _ driven.GraphStore = (*graphStore)(nil)

const documentColumns = `id, title, content, summary, summary_embedding, doc_type,
	metadata, ingestion_id, created_at, updated_at`

const relationColumns = `id, source_id, target_id, relation_type, metadata, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// SaveDocument inserts a new document.
func (s *graphStore) SaveDocument(ctx context.Context, doc *domain.DocumentNode) error {
	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.Title, doc.Text, doc.Summary, float32SliceToBytes(doc.SummaryEmbedding),
		string(doc.Type), metadataJSON, doc.IngestionID, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return mapConstraint(err, "saving document "+doc.ID)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *graphStore) GetDocument(ctx context.Context, id string) (*domain.DocumentNode, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// GetDocuments retrieves the documents that exist among ids, ordered by ID.
func (s *graphStore) GetDocuments(ctx context.Context, ids []string) ([]domain.DocumentNode, error) {
	if len(ids) == 0 {
		return []domain.DocumentNode{}, nil
	}
	marks, args := placeholders(ids)
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE id IN (`+marks+`) ORDER BY id
	`, args...)
}

// ListByIngestion returns documents produced by one ingestion request.
func (s *graphStore) ListByIngestion(ctx context.Context, ingestionID string) ([]domain.DocumentNode, error) {
	return s.queryDocuments(ctx, `
		SELECT `+documentColumns+` FROM documents WHERE ingestion_id = ? ORDER BY id
	`, ingestionID)
}

// UpdateSummary replaces the summary and summary embedding.
func (s *graphStore) UpdateSummary(
	ctx context.Context, id, summary string, embedding []float32, at time.Time,
) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET summary = ?, summary_embedding = ?, updated_at = ? WHERE id = ?
	`, summary, float32SliceToBytes(embedding), at, id)
	if err != nil {
		return fmt.Errorf("updating summary: %w", err)
	}
	return requireAffected(res)
}

// UpdateMetadata replaces the metadata.
func (s *graphStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]any, at time.Time) error {
	metadataJSON, err := marshalMetadata(metadata)
	if err != nil {
		return err
	}
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE documents SET metadata = ?, updated_at = ? WHERE id = ?
	`, metadataJSON, at, id)
	if err != nil {
		return fmt.Errorf("updating metadata: %w", err)
	}
	return requireAffected(res)
}

// DeleteDocument removes a document. Chunks, vectors and relations go
// with it through ON DELETE CASCADE; without cascade their presence
// blocks the delete.
func (s *graphStore) DeleteDocument(ctx context.Context, id string, cascade bool) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE id = ?", id).Scan(&exists); err != nil {
		return fmt.Errorf("checking document: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	if !cascade {
		var chunks, relations int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM chunks WHERE document_id = ?", id).Scan(&chunks); err != nil {
			return fmt.Errorf("counting chunks: %w", err)
		}
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM relations WHERE source_id = ? OR target_id = ?", id, id).Scan(&relations); err != nil {
			return fmt.Errorf("counting relations: %w", err)
		}
		if chunks > 0 || relations > 0 {
			return fmt.Errorf("%w: document %s has %d chunks and %d relations",
				domain.ErrConflict, id, chunks, relations)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// SaveRelation inserts a relation. The schema rejects self-loops,
// dangling endpoints and duplicate (source, target, type) triples.
func (s *graphStore) SaveRelation(ctx context.Context, rel *domain.DocumentRelation) error {
	if rel.SourceID == rel.TargetID {
		return fmt.Errorf("%w: self-loop on %s", domain.ErrInvalidInput, rel.SourceID)
	}
	metadataJSON, err := marshalMetadata(rel.Metadata)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO relations (`+relationColumns+`) VALUES (?, ?, ?, ?, ?, ?)
	`, rel.ID, rel.SourceID, rel.TargetID, string(rel.Type), metadataJSON, rel.CreatedAt)
	if err != nil {
		return mapConstraint(err, "saving relation "+domain.RelationHop{
			From: rel.SourceID, To: rel.TargetID, Type: rel.Type,
		}.String())
	}
	return nil
}

// DeleteRelation removes a relation by ID.
func (s *graphStore) DeleteRelation(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM relations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting relation: %w", err)
	}
	return requireAffected(res)
}

// ListRelations returns the relations touching documentID, ordered by
// type, then the endpoint opposite documentID, then ID.
func (s *graphStore) ListRelations(
	ctx context.Context, documentID string, direction domain.Direction,
) ([]domain.DocumentRelation, error) {
	var where string
	args := []any{documentID}
	switch direction {
	case domain.DirectionOutgoing:
		where = "source_id = ?"
		args = append(args, documentID)
	case domain.DirectionIncoming:
		where = "target_id = ?"
		args = append(args, documentID)
	case domain.DirectionBoth:
		where = "(source_id = ? OR target_id = ?)"
		args = append(args, documentID, documentID)
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidInput, string(direction))
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+relationColumns+`,
			CASE WHEN source_id = ? THEN target_id ELSE source_id END AS other
		FROM relations WHERE `+where+`
		ORDER BY relation_type, other, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	rels := []domain.DocumentRelation{}
	for rows.Next() {
		var rel domain.DocumentRelation
		var relType, metadataJSON, other string
		if err := rows.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &relType,
			&metadataJSON, &rel.CreatedAt, &other); err != nil {
			return nil, fmt.Errorf("scanning relation: %w", err)
		}
		rel.Type = domain.RelationType(relType)
		if rel.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relations: %w", err)
	}
	return rels, nil
}

func (s *graphStore) queryDocuments(ctx context.Context, query string, args ...any) ([]domain.DocumentNode, error) {
	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.DocumentNode{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// scanDocument scans a single document row. sql.ErrNoRows is returned unwrapped.
func scanDocument(row rowScanner) (*domain.DocumentNode, error) {
	var doc domain.DocumentNode
	var docType, metadataJSON string
	var summaryBlob []byte

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Text, &doc.Summary, &summaryBlob, &docType,
		&metadataJSON, &doc.IngestionID, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Type = domain.DocumentType(docType)
	doc.SummaryEmbedding = bytesToFloat32Slice(summaryBlob)

	metadata, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, err
	}
	doc.Metadata = metadata
	return &doc, nil
}

// requireAffected returns domain.ErrNotFound when no row was changed.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
