package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// Ensure GraphService implements the interface.
var _ driving.GraphService = (*GraphService)(nil)

// GraphService manages documents and the relations between them.
type GraphService struct {
	store       driven.GraphStore
	vectorIndex driven.VectorIndex
	cfg         domain.RetrievalConfig
	now         func() time.Time
}

// NewGraphService creates a new graph service.
// The vectorIndex parameter is optional (can be nil); when set, cascade
// deletes also remove the document's vectors.
func NewGraphService(
	store driven.GraphStore,
	vectorIndex driven.VectorIndex,
	cfg domain.RetrievalConfig,
) *GraphService {
	return &GraphService{
		store:       store,
		vectorIndex: vectorIndex,
		cfg:         cfg,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for timestamps.
func (s *GraphService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateDocument creates a document for one ingestion event.
func (s *GraphService) CreateDocument(
	ctx context.Context, req driving.CreateDocumentRequest,
) (*domain.DocumentNode, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: unknown document type %q", domain.ErrInvalidInput, string(req.Type))
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(req.IngestionID) == "" {
		return nil, fmt.Errorf("%w: ingestion id is required", domain.ErrInvalidInput)
	}

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}

	now := s.now()
	doc := &domain.DocumentNode{
		ID:          id,
		Title:       req.Title,
		Text:        req.Text,
		Type:        req.Type,
		Metadata:    req.Metadata,
		IngestionID: req.IngestionID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}

	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	logger.Debug("Created document %s (%s) for ingestion %s", doc.ID, doc.Type, doc.IngestionID)
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *GraphService) GetDocument(ctx context.Context, id string) (*domain.DocumentNode, error) {
	return s.store.GetDocument(ctx, id)
}

// ListByIngestion returns the documents produced by one ingestion request.
func (s *GraphService) ListByIngestion(ctx context.Context, ingestionID string) ([]domain.DocumentNode, error) {
	return s.store.ListByIngestion(ctx, ingestionID)
}

// AttachSummary sets the summary and summary embedding of a document.
// An empty embedding clears the summary vector.
func (s *GraphService) AttachSummary(ctx context.Context, id, summary string, embedding []float32) error {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return fmt.Errorf("attach summary: %w", err)
	}
	if len(embedding) > 0 {
		if err := s.cfg.CheckWidth(embedding); err != nil {
			return fmt.Errorf("attach summary: %w", err)
		}
	}
	if err := s.store.UpdateSummary(ctx, id, summary, embedding, s.now()); err != nil {
		return fmt.Errorf("attach summary: %w", err)
	}
	return nil
}

// UpdateMetadata replaces the metadata of a document.
func (s *GraphService) UpdateMetadata(ctx context.Context, id string, metadata map[string]any) error {
	if metadata == nil {
		metadata = map[string]any{}
	}
	if err := s.store.UpdateMetadata(ctx, id, metadata, s.now()); err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return nil
}

// DeleteDocument deletes a document. Without cascade the delete is
// rejected while chunks or relations reference the document.
func (s *GraphService) DeleteDocument(ctx context.Context, id string, cascade bool) error {
	if err := s.store.DeleteDocument(ctx, id, cascade); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if cascade && s.vectorIndex != nil {
		if err := s.vectorIndex.DeleteDocument(ctx, id); err != nil {
			logger.Warn("Document %s deleted but its vectors remain: %v", id, err)
			return fmt.Errorf("delete document vectors: %w: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	logger.Debug("Deleted document %s (cascade=%t)", id, cascade)
	return nil
}

// CreateRelation creates a directed, typed relation.
func (s *GraphService) CreateRelation(
	ctx context.Context, req driving.CreateRelationRequest,
) (*domain.DocumentRelation, error) {
	if err := req.Type.Validate(); err != nil {
		return nil, err
	}
	if req.SourceID == "" || req.TargetID == "" {
		return nil, fmt.Errorf("%w: both endpoints are required", domain.ErrInvalidInput)
	}
	if req.SourceID == req.TargetID {
		return nil, fmt.Errorf("%w: relation from %s to itself", domain.ErrInvalidInput, req.SourceID)
	}

	rel := &domain.DocumentRelation{
		ID:        uuid.New().String(),
		SourceID:  req.SourceID,
		TargetID:  req.TargetID,
		Type:      req.Type,
		Metadata:  req.Metadata,
		CreatedAt: s.now(),
	}
	if rel.Metadata == nil {
		rel.Metadata = map[string]any{}
	}

	if err := s.store.SaveRelation(ctx, rel); err != nil {
		return nil, fmt.Errorf("create relation: %w", err)
	}
	logger.Debug("Created relation %s", domain.RelationHop{From: rel.SourceID, To: rel.TargetID, Type: rel.Type})
	return rel, nil
}

// DeleteRelation removes a relation.
func (s *GraphService) DeleteRelation(ctx context.Context, id string) error {
	if err := s.store.DeleteRelation(ctx, id); err != nil {
		return fmt.Errorf("delete relation: %w", err)
	}
	return nil
}

// Relations lists the relations touching a document.
func (s *GraphService) Relations(
	ctx context.Context, documentID string, direction domain.Direction,
) ([]domain.DocumentRelation, error) {
	if !direction.IsValid() {
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidInput, string(direction))
	}
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.ListRelations(ctx, documentID, direction)
}

// frontierNode is a document waiting to be expanded during traversal.
type frontierNode struct {
	id   string
	path []domain.RelationHop
}

// Neighbors performs a bounded breadth-first traversal from documentID.
// Depth is capped by opts.MaxDepth and the configured maximum; each
// document follows at most MaxNeighborsPerNode matching edges. A visited
// set keeps cycles from being walked twice. Results are ordered by depth,
// then document ID, and never include the origin.
func (s *GraphService) Neighbors(
	ctx context.Context, documentID string, opts domain.TraversalOptions,
) ([]domain.Neighbor, error) {
	if err := s.validateTraversal(&opts); err != nil {
		return nil, err
	}
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("neighbors: %w", err)
	}

	allowed := make(map[domain.RelationType]bool, len(opts.Types))
	for _, t := range opts.Types {
		allowed[t] = true
	}

	visited := map[string]bool{documentID: true}
	depthOf := make(map[string]int)
	pathOf := make(map[string][]domain.RelationHop)
	var order []string

	frontier := []frontierNode{{id: documentID}}
	for depth := 1; depth <= opts.MaxDepth && len(frontier) > 0; depth++ {
		var next []frontierNode
		for _, node := range frontier {
			rels, err := s.store.ListRelations(ctx, node.id, opts.Direction)
			if err != nil {
				return nil, fmt.Errorf("neighbors: listing relations of %s: %w", node.id, err)
			}

			followed := 0
			for i := range rels {
				rel := &rels[i]
				if len(allowed) > 0 && !allowed[rel.Type] {
					continue
				}
				if followed >= s.cfg.MaxNeighborsPerNode {
					logger.Debug("Fan-out cap %d reached at %s", s.cfg.MaxNeighborsPerNode, node.id)
					break
				}
				followed++

				other := rel.Other(node.id)
				if visited[other] {
					continue
				}
				visited[other] = true

				path := make([]domain.RelationHop, len(node.path), len(node.path)+1)
				copy(path, node.path)
				path = append(path, domain.RelationHop{From: rel.SourceID, To: rel.TargetID, Type: rel.Type})

				depthOf[other] = depth
				pathOf[other] = path
				order = append(order, other)
				next = append(next, frontierNode{id: other, path: path})
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i].id < next[j].id })
		frontier = next
	}

	docs, err := s.store.GetDocuments(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("neighbors: loading documents: %w", err)
	}

	neighbors := make([]domain.Neighbor, 0, len(docs))
	for i := range docs {
		neighbors = append(neighbors, domain.Neighbor{
			Document: docs[i],
			Depth:    depthOf[docs[i].ID],
			Path:     pathOf[docs[i].ID],
		})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Depth != neighbors[j].Depth {
			return neighbors[i].Depth < neighbors[j].Depth
		}
		return neighbors[i].Document.ID < neighbors[j].Document.ID
	})
	return neighbors, nil
}

func (s *GraphService) validateTraversal(opts *domain.TraversalOptions) error {
	if opts.MaxDepth < 1 {
		return fmt.Errorf("%w: max depth must be at least 1", domain.ErrInvalidInput)
	}
	if opts.MaxDepth > s.cfg.MaxTraversalDepth {
		return fmt.Errorf("%w: max depth %d exceeds limit %d",
			domain.ErrInvalidInput, opts.MaxDepth, s.cfg.MaxTraversalDepth)
	}
	if opts.Direction == "" {
		opts.Direction = domain.DirectionOutgoing
	}
	if !opts.Direction.IsValid() {
		return fmt.Errorf("%w: unknown direction %q", domain.ErrInvalidInput, string(opts.Direction))
	}
	for _, t := range opts.Types {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// isNotFound reports whether err carries domain.ErrNotFound.
func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
