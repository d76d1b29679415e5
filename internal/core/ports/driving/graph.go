package driving

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// GraphService manages documents and the typed relations between them.
type GraphService interface {
	// CreateDocument creates a document for one ingestion event.
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*domain.DocumentNode, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.DocumentNode, error)

	// ListByIngestion returns the documents produced by one ingestion request.
	ListByIngestion(ctx context.Context, ingestionID string) ([]domain.DocumentNode, error)

	// AttachSummary sets the summary and summary embedding of a document.
	AttachSummary(ctx context.Context, id, summary string, embedding []float32) error

	// UpdateMetadata replaces the metadata of a document.
	UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error

	// DeleteDocument deletes a document, optionally cascading to chunks and relations.
	DeleteDocument(ctx context.Context, id string, cascade bool) error

	// CreateRelation creates a directed, typed relation.
	CreateRelation(ctx context.Context, req CreateRelationRequest) (*domain.DocumentRelation, error)

	// DeleteRelation removes a relation.
	DeleteRelation(ctx context.Context, id string) error

	// Relations lists the relations touching a document.
	Relations(ctx context.Context, documentID string, direction domain.Direction) ([]domain.DocumentRelation, error)

	// Neighbors performs a bounded breadth-first traversal.
	Neighbors(ctx context.Context, documentID string, opts domain.TraversalOptions) ([]domain.Neighbor, error)
}

// CreateDocumentRequest carries the fields supplied by the ingestion collaborator.
type CreateDocumentRequest struct {
	// ID is optional; a UUID is generated when empty.
	ID          string
	Title       string
	Text        string
	Type        domain.DocumentType
	Metadata    map[string]any
	IngestionID string
}

// CreateRelationRequest describes a new relation.
type CreateRelationRequest struct {
	SourceID string
	TargetID string
	Type     domain.RelationType
	Metadata map[string]any
}
