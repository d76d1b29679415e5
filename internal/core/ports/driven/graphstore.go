package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// GraphStore persists documents and the relations between them.
// Implementations enforce referential integrity: relation endpoints
// must exist, (source, target, type) is unique, and self-loops are rejected.
type GraphStore interface {
	// SaveDocument inserts a new document. Fails with domain.ErrConflict if the ID exists.
	SaveDocument(ctx context.Context, doc *domain.DocumentNode) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.DocumentNode, error)

	// GetDocuments retrieves the documents that exist among ids, ordered by ID.
	GetDocuments(ctx context.Context, ids []string) ([]domain.DocumentNode, error)

	// ListByIngestion returns documents produced by one ingestion request, ordered by ID.
	ListByIngestion(ctx context.Context, ingestionID string) ([]domain.DocumentNode, error)

	// UpdateSummary replaces the summary and summary embedding.
	UpdateSummary(ctx context.Context, id, summary string, embedding []float32, at time.Time) error

	// UpdateMetadata replaces the metadata.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any, at time.Time) error

	// DeleteDocument removes a document. Without cascade it fails with
	// domain.ErrConflict while chunks or relations reference it; with
	// cascade it removes them in the same transaction.
	DeleteDocument(ctx context.Context, id string, cascade bool) error

	// SaveRelation inserts a relation.
	SaveRelation(ctx context.Context, rel *domain.DocumentRelation) error

	// DeleteRelation removes a relation by ID.
	DeleteRelation(ctx context.Context, id string) error

	// ListRelations returns the relations touching documentID in the given
	// direction, ordered by (type, other endpoint, ID).
	ListRelations(ctx context.Context, documentID string, direction domain.Direction) ([]domain.DocumentRelation, error)
}
