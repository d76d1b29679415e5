package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// InclusionRule explains why an entry is in a plan.
type InclusionRule string

// Inclusion rules, in rank order.
const (
	// RuleDirectEvidence marks documents whose chunks matched the query vector.
	RuleDirectEvidence InclusionRule = "direct-evidence"

	// RuleRelationExpanded marks documents reached through the document graph.
	RuleRelationExpanded InclusionRule = "relation-expanded"
)

// Rank orders rules; lower ranks first.
func (r InclusionRule) Rank() int {
	switch r {
	case RuleDirectEvidence:
		return 0
	case RuleRelationExpanded:
		return 1
	default:
		return 2
	}
}

// String returns the string representation.
func (r InclusionRule) String() string {
	return string(r)
}

// ExpansionPolicy selects which relations the planner follows from
// evidence documents. The zero value disables expansion.
type ExpansionPolicy struct {
	// RelationTypes restricts followed relation types. Empty follows all.
	RelationTypes []RelationType `json:"relation_types,omitempty"`

	// Direction defaults to outgoing.
	Direction Direction `json:"direction,omitempty"`

	// Depth is the number of hops. Zero disables expansion.
	Depth int `json:"depth,omitempty"`
}

// Enabled returns true if the policy asks for any expansion.
func (p ExpansionPolicy) Enabled() bool {
	return p.Depth > 0
}

// Validate checks the policy against the configured traversal bound.
func (p ExpansionPolicy) Validate(maxDepth int) error {
	if !p.Enabled() {
		return nil
	}
	if p.Depth > maxDepth {
		return fmt.Errorf("%w: expansion depth %d exceeds limit %d", ErrInvalidInput, p.Depth, maxDepth)
	}
	if p.Direction != "" && !p.Direction.IsValid() {
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, string(p.Direction))
	}
	for _, t := range p.RelationTypes {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Traversal converts the policy into traversal options.
func (p ExpansionPolicy) Traversal() TraversalOptions {
	dir := p.Direction
	if dir == "" {
		dir = DirectionOutgoing
	}
	return TraversalOptions{
		Types:     p.RelationTypes,
		Direction: dir,
		MaxDepth:  p.Depth,
	}
}

// PlannedChunk is one chunk selected into a plan.
type PlannedChunk struct {
	ID    string `json:"id"`
	Index int    `json:"index"`
	Text  string `json:"text"`
	Size  int    `json:"size"`
}

// PlanEntry is one document selected into a plan.
type PlanEntry struct {
	DocumentID string        `json:"document_id"`
	Title      string        `json:"title"`
	Rule       InclusionRule `json:"rule"`

	// Score is a distance: lower ranks first within the same rule.
	Score float64 `json:"score"`

	// Depth and Via are set for relation-expanded entries.
	Depth int           `json:"depth,omitempty"`
	Via   []RelationHop `json:"via,omitempty"`

	// Chunks are ordered by chunk index.
	Chunks []PlannedChunk `json:"chunks"`

	// Truncated is set when the budget cut the entry's chunk set short.
	Truncated bool `json:"truncated,omitempty"`
}

// ChunkIDs returns the selected chunk ids in chunk index order.
func (e *PlanEntry) ChunkIDs() []string {
	ids := make([]string, len(e.Chunks))
	for i, c := range e.Chunks {
		ids[i] = c.ID
	}
	return ids
}

// Size returns the summed size of the entry's chunks.
func (e *PlanEntry) Size() int {
	total := 0
	for _, c := range e.Chunks {
		total += c.Size
	}
	return total
}

// RetrievalPlan is the ordered, budget-bounded, provenance-annotated
// selection of documents and chunks for one query. It is never persisted.
type RetrievalPlan struct {
	Query      string          `json:"query"`
	Budget     int             `json:"budget"`
	BudgetUnit BudgetUnit      `json:"budget_unit"`
	Expansion  ExpansionPolicy `json:"expansion"`
	Size       int             `json:"size"`
	Entries    []PlanEntry     `json:"entries"`
}

// IsEmpty returns true if no evidence was found.
func (p *RetrievalPlan) IsEmpty() bool {
	return len(p.Entries) == 0
}

// Fingerprint returns a stable hash of the plan's JSON encoding.
// Identical plans have identical fingerprints.
func (p *RetrievalPlan) Fingerprint() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshalling plan: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
