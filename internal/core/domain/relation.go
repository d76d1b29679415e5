package domain

import (
	"fmt"
	"time"
)

// RelationType names the kind of a DocumentRelation.
// The set is open: any lowercase identifier is accepted.
type RelationType string

// Well-known relation types.
const (
	RelationExplains    RelationType = "explains"
	RelationDecisionFor RelationType = "decision_for"
	RelationSupersedes  RelationType = "supersedes"
	RelationReferences  RelationType = "references"
)

// Validate checks the relation type is a non-empty [a-z0-9_] identifier.
func (t RelationType) Validate() error {
	if t == "" {
		return fmt.Errorf("%w: relation type is required", ErrInvalidInput)
	}
	for _, r := range t {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return fmt.Errorf("%w: relation type %q must match [a-z0-9_]+", ErrInvalidInput, string(t))
		}
	}
	return nil
}

// String returns the string representation.
func (t RelationType) String() string {
	return string(t)
}

// DocumentRelation is a directed, typed, non-owning edge between two documents.
type DocumentRelation struct {
	// ID is the unique identifier for the relation.
	ID string

	// SourceID is the document the edge leaves from.
	SourceID string

	// TargetID is the document the edge points to.
	TargetID string

	// Type is the relation type.
	Type RelationType

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the relation was created.
	CreatedAt time.Time
}

// Other returns the endpoint opposite to documentID.
func (r *DocumentRelation) Other(documentID string) string {
	if r.SourceID == documentID {
		return r.TargetID
	}
	return r.SourceID
}

// Direction selects which edges a traversal follows.
type Direction string

// Traversal directions.
const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionBoth     Direction = "both"
)

// IsValid returns true if the direction is recognised.
func (d Direction) IsValid() bool {
	switch d {
	case DirectionOutgoing, DirectionIncoming, DirectionBoth:
		return true
	default:
		return false
	}
}

// Matches reports whether relation r is followed from documentID in this direction.
func (d Direction) Matches(r *DocumentRelation, documentID string) bool {
	switch d {
	case DirectionOutgoing:
		return r.SourceID == documentID
	case DirectionIncoming:
		return r.TargetID == documentID
	case DirectionBoth:
		return r.SourceID == documentID || r.TargetID == documentID
	default:
		return false
	}
}

// RelationHop is one edge along a traversal path.
type RelationHop struct {
	From string       `json:"from"`
	To   string       `json:"to"`
	Type RelationType `json:"type"`
}

// String renders the hop as "from -type-> to".
func (h RelationHop) String() string {
	return h.From + " -" + string(h.Type) + "-> " + h.To
}

// TraversalOptions bounds a neighbour traversal.
type TraversalOptions struct {
	// Types restricts which relation types are followed. Empty follows all.
	Types []RelationType

	// Direction selects outgoing, incoming or both edges.
	Direction Direction

	// MaxDepth is the maximum number of hops. Must be >= 1.
	MaxDepth int
}

// Neighbor is a document reached by traversal, with the path that reached it.
type Neighbor struct {
	Document DocumentNode
	Depth    int
	Path     []RelationHop
}
