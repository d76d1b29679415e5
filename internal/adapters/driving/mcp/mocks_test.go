package mcp

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// mockPlanner is a mock implementation of driving.RetrievalPlanner.
type mockPlanner struct {
	plan *domain.RetrievalPlan
	err  error
	last driving.PlanRequest
}

func (m *mockPlanner) Plan(_ context.Context, req driving.PlanRequest) (*domain.RetrievalPlan, error) {
	m.last = req
	return m.plan, m.err
}

// mockAssembler is a mock implementation of driving.ContextAssembler.
type mockAssembler struct {
	rendered *domain.RenderedContext
	err      error
	budget   int
}

func (m *mockAssembler) Render(_ *domain.RetrievalPlan) (*domain.RenderedContext, error) {
	return m.rendered, m.err
}

func (m *mockAssembler) Budget() int {
	if m.budget == 0 {
		return domain.DefaultBudget
	}
	return m.budget
}

// mockGraphService is a mock implementation of driving.GraphService.
type mockGraphService struct {
	document  *domain.DocumentNode
	documents []domain.DocumentNode
	neighbors []domain.Neighbor
	lastOpts  domain.TraversalOptions
	err       error
}

func (m *mockGraphService) CreateDocument(_ context.Context, _ driving.CreateDocumentRequest) (*domain.DocumentNode, error) {
	return m.document, m.err
}

func (m *mockGraphService) GetDocument(_ context.Context, _ string) (*domain.DocumentNode, error) {
	return m.document, m.err
}

func (m *mockGraphService) ListByIngestion(_ context.Context, _ string) ([]domain.DocumentNode, error) {
	return m.documents, m.err
}

func (m *mockGraphService) AttachSummary(_ context.Context, _, _ string, _ []float32) error {
	return m.err
}

func (m *mockGraphService) UpdateMetadata(_ context.Context, _ string, _ map[string]any) error {
	return m.err
}

func (m *mockGraphService) DeleteDocument(_ context.Context, _ string, _ bool) error {
	return m.err
}

func (m *mockGraphService) CreateRelation(_ context.Context, _ driving.CreateRelationRequest) (*domain.DocumentRelation, error) {
	return nil, m.err
}

func (m *mockGraphService) DeleteRelation(_ context.Context, _ string) error {
	return m.err
}

func (m *mockGraphService) Relations(_ context.Context, _ string, _ domain.Direction) ([]domain.DocumentRelation, error) {
	return nil, m.err
}

func (m *mockGraphService) Neighbors(_ context.Context, _ string, opts domain.TraversalOptions) ([]domain.Neighbor, error) {
	m.lastOpts = opts
	return m.neighbors, m.err
}
