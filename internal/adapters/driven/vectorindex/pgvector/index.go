// Package pgvector implements driven.VectorIndex on PostgreSQL with the
// pgvector extension.
//
// Vectors live in a single table with a fixed-width vector(N) column.
// Cosine indexes order by the <=> operator and L2 indexes by <->, so the
// distances returned match domain.DistanceMetric.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// DefaultTable is the table vectors are stored in.
const DefaultTable = "docgraph_chunk_vectors"

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a pgvector-backed nearest-neighbour index.
type VectorIndex struct {
	db        *sql.DB
	table     string
	dimension int
	metric    domain.DistanceMetric
}

// Option configures a VectorIndex.
type Option func(*VectorIndex)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(v *VectorIndex) {
		v.table = name
	}
}

// New connects to dsn, ensures the extension and table exist, and
// returns an index of the given width and metric.
func New(ctx context.Context, dsn string, dimension int, metric domain.DistanceMetric, opts ...Option) (*VectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is required", domain.ErrInvalidInput)
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}
	if !metric.IsValid() {
		metric = domain.MetricCosine
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrVectorIndexUnavailable, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(15 * time.Minute)

	v := &VectorIndex{db: db, table: DefaultTable, dimension: dimension, metric: metric}
	for _, opt := range opts {
		opt(v)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if err := v.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
	}

	logger.Debug("pgvector index ready: table=%s dimension=%d metric=%s", v.table, dimension, metric)
	return v, nil
}

func (v *VectorIndex) ensureSchema(ctx context.Context) error {
	table := pq.QuoteIdentifier(v.table)
	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			chunk_id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, table, v.dimension),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (document_id)",
			pq.QuoteIdentifier(v.table+"_document_idx"), table),
	}
	for _, stmt := range stmts {
		if _, err := v.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Add upserts vectors for the given chunks in one transaction.
func (v *VectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != v.dimension {
			return fmt.Errorf("%w: chunk %s has width %d, want %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Embedding), v.dimension)
		}
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (chunk_id, document_id, embedding) VALUES ($1, $2, $3)
		ON CONFLICT (chunk_id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			embedding = EXCLUDED.embedding
	`, pq.QuoteIdentifier(v.table)))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ChunkID, e.DocumentID, pgv.NewVector(e.Embedding)); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", e.ChunkID, err)
		}
	}
	return tx.Commit()
}

// DeleteDocument removes every vector belonging to a document.
func (v *VectorIndex) DeleteDocument(ctx context.Context, documentID string) error {
	_, err := v.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", pq.QuoteIdentifier(v.table)), documentID)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Search finds the k nearest chunks to the query vector.
func (v *VectorIndex) Search(ctx context.Context, query []float32, k int, filter []string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != v.dimension {
		return nil, fmt.Errorf("%w: query has width %d, want %d",
			domain.ErrDimensionMismatch, len(query), v.dimension)
	}

	q, args := v.searchQuery(pgv.NewVector(query), k, filter)
	rows, err := v.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	hits := []driven.VectorHit{}
	for rows.Next() {
		var hit driven.VectorHit
		if err := rows.Scan(&hit.ChunkID, &hit.Distance); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// searchQuery builds the ordered, limited search statement.
func (v *VectorIndex) searchQuery(vec pgv.Vector, k int, filter []string) (string, []any) {
	q := fmt.Sprintf("SELECT chunk_id, embedding %s $1 AS distance FROM %s",
		distanceOperator(v.metric), pq.QuoteIdentifier(v.table))
	args := []any{vec}
	if len(filter) > 0 {
		q += " WHERE document_id = ANY($2)"
		args = append(args, pq.Array(filter))
	}
	q += fmt.Sprintf(" ORDER BY distance, chunk_id LIMIT $%d", len(args)+1)
	args = append(args, k)
	return q, args
}

// Close closes the database connection.
func (v *VectorIndex) Close() error {
	return v.db.Close()
}

// distanceOperator maps a metric to its pgvector operator.
func distanceOperator(m domain.DistanceMetric) string {
	if m == domain.MetricL2 {
		return "<->"
	}
	return "<=>"
}
