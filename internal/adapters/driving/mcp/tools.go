package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// QueryInput is the input schema for the plan and context tools.
type QueryInput struct {
	Query         string   `json:"query" jsonschema:"the question to retrieve context for"`
	Budget        int      `json:"budget,omitempty" jsonschema:"size budget in the configured unit (default from config)"`
	RelationTypes []string `json:"relation_types,omitempty" jsonschema:"relation types to expand through (default all)"`
	Direction     string   `json:"direction,omitempty" jsonschema:"outgoing, incoming or both (default outgoing)"`
	Depth         int      `json:"depth,omitempty" jsonschema:"relation expansion depth (0 disables expansion)"`
}

// PlanOutput is the output schema for the plan tool.
type PlanOutput struct {
	Plan        domain.RetrievalPlan `json:"plan"`
	Fingerprint string               `json:"fingerprint"`
}

// ContextOutput is the output schema for the context tool.
type ContextOutput struct {
	Text     string                  `json:"text"`
	Size     int                     `json:"size"`
	Sections []domain.ContextSection `json:"sections"`
}

// NeighborsInput is the input schema for the neighbors tool.
type NeighborsInput struct {
	DocumentID    string   `json:"document_id" jsonschema:"the document to start from"`
	RelationTypes []string `json:"relation_types,omitempty" jsonschema:"relation types to follow (default all)"`
	Direction     string   `json:"direction,omitempty" jsonschema:"outgoing, incoming or both (default outgoing)"`
	Depth         int      `json:"depth,omitempty" jsonschema:"maximum number of hops (default 1)"`
}

// NeighborsOutput is the output schema for the neighbors tool.
type NeighborsOutput struct {
	Neighbors []NeighborOutput `json:"neighbors"`
	Count     int              `json:"count"`
}

// NeighborOutput is one document reached by traversal.
type NeighborOutput struct {
	DocumentID string               `json:"document_id"`
	Title      string               `json:"title"`
	Depth      int                  `json:"depth"`
	Via        []domain.RelationHop `json:"via"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "plan",
		Description: "Build a budget-bounded retrieval plan for a question, with provenance per document",
	}, s.handlePlan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "context",
		Description: "Render the retrieval plan for a question into prompt context",
	}, s.handleContext)

	if s.ports.Graph != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "neighbors",
			Description: "List documents related to a document through typed relations",
		}, s.handleNeighbors)
	}
}

// handlePlan handles the plan tool invocation.
func (s *Server) handlePlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, PlanOutput, error) {
	plan, err := s.ports.Planner.Plan(ctx, input.request())
	if err != nil {
		return nil, PlanOutput{}, toolError(err)
	}

	if plan.Entries == nil {
		plan.Entries = []domain.PlanEntry{}
	}
	fingerprint, err := plan.Fingerprint()
	if err != nil {
		return nil, PlanOutput{}, err
	}
	return nil, PlanOutput{Plan: *plan, Fingerprint: fingerprint}, nil
}

// handleContext handles the context tool invocation.
func (s *Server) handleContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, ContextOutput, error) {
	req := input.request()
	if limit := s.ports.Assembler.Budget(); req.Budget > limit {
		return nil, ContextOutput{}, toolError(fmt.Errorf(
			"%w: budget %d exceeds the context budget %d", domain.ErrInvalidInput, req.Budget, limit))
	}

	plan, err := s.ports.Planner.Plan(ctx, req)
	if err != nil {
		return nil, ContextOutput{}, toolError(err)
	}

	rendered, err := s.ports.Assembler.Render(plan)
	if err != nil {
		return nil, ContextOutput{}, toolError(err)
	}

	return nil, ContextOutput{
		Text:     rendered.Text,
		Size:     rendered.Size,
		Sections: rendered.Sections,
	}, nil
}

// handleNeighbors handles the neighbors tool invocation.
func (s *Server) handleNeighbors(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NeighborsInput,
) (*mcp.CallToolResult, NeighborsOutput, error) {
	depth := input.Depth
	if depth <= 0 {
		depth = 1
	}
	direction := domain.Direction(input.Direction)
	if direction == "" {
		direction = domain.DirectionOutgoing
	}

	neighbors, err := s.ports.Graph.Neighbors(ctx, input.DocumentID, domain.TraversalOptions{
		Types:     relationTypes(input.RelationTypes),
		Direction: direction,
		MaxDepth:  depth,
	})
	if err != nil {
		return nil, NeighborsOutput{}, toolError(err)
	}

	output := NeighborsOutput{
		Neighbors: make([]NeighborOutput, len(neighbors)),
		Count:     len(neighbors),
	}
	for i := range neighbors {
		output.Neighbors[i] = NeighborOutput{
			DocumentID: neighbors[i].Document.ID,
			Title:      neighbors[i].Document.Title,
			Depth:      neighbors[i].Depth,
			Via:        neighbors[i].Path,
		}
	}
	return nil, output, nil
}

// request converts tool input into a plan request.
func (in QueryInput) request() driving.PlanRequest {
	return driving.PlanRequest{
		Query:  in.Query,
		Budget: in.Budget,
		Expansion: domain.ExpansionPolicy{
			RelationTypes: relationTypes(in.RelationTypes),
			Direction:     domain.Direction(in.Direction),
			Depth:         in.Depth,
		},
	}
}

func relationTypes(names []string) []domain.RelationType {
	if len(names) == 0 {
		return nil
	}
	types := make([]domain.RelationType, len(names))
	for i, n := range names {
		types[i] = domain.RelationType(n)
	}
	return types
}

// toolError prefixes the error with its kind so clients can branch on it.
func toolError(err error) error {
	return fmt.Errorf("%s: %w", domain.ErrorKind(err), err)
}
