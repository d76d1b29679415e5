package driving

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// RetrievalPlanner turns a query into a deterministic retrieval plan.
type RetrievalPlanner interface {
	// Plan builds a plan for the query. An empty plan is not an error.
	Plan(ctx context.Context, req PlanRequest) (*domain.RetrievalPlan, error)
}

// PlanRequest is the input of one planning run.
type PlanRequest struct {
	// Query is the natural-language question. Must not be blank.
	Query string

	// Budget is the size budget B in the configured unit.
	// Zero uses the configured budget.
	Budget int

	// Expansion selects relation expansion. The zero value disables it.
	Expansion domain.ExpansionPolicy
}

// ContextAssembler renders a plan into bounded, traceable context.
type ContextAssembler interface {
	// Render renders the plan. Fails with domain.ErrBudgetExceeded if the
	// plan does not fit the assembler's budget.
	Render(plan *domain.RetrievalPlan) (*domain.RenderedContext, error)

	// Budget returns the largest plan size Render accepts. Callers reject
	// larger requested budgets before planning.
	Budget() int
}

// IngestService turns extracted text into a chunked, embedded document.
type IngestService interface {
	// Ingest creates the document and its chunks.
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

// IngestRequest is supplied once OCR or extraction has completed upstream.
type IngestRequest struct {
	Document CreateDocumentRequest
}

// IngestResult reports what was created.
type IngestResult struct {
	Document *domain.DocumentNode
	Chunks   []domain.Chunk
}
