package mcp

import (
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Planner builds retrieval plans.
	Planner driving.RetrievalPlanner

	// Assembler renders plans into prompt context.
	Assembler driving.ContextAssembler

	// Graph serves document resources and traversal. Optional.
	Graph driving.GraphService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Planner == nil {
		return ErrMissingPlanner
	}
	if p.Assembler == nil {
		return ErrMissingAssembler
	}
	return nil
}
