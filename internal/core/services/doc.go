// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The planner and assembler are deterministic: for the same query,
// corpus and RetrievalConfig they produce identical output.
package services
