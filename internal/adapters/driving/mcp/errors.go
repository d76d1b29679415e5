// Package mcp provides an MCP (Model Context Protocol) server adapter for docgraph.
// It lets AI assistants request retrieval plans and rendered context for a question.
package mcp

import "errors"

// ErrMissingPlanner is returned when the retrieval planner is not provided.
var ErrMissingPlanner = errors.New("mcp: retrieval planner is required")

// ErrMissingAssembler is returned when the context assembler is not provided.
var ErrMissingAssembler = errors.New("mcp: context assembler is required")
