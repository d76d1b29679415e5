package domain

// ContextSection is one rendered document block.
type ContextSection struct {
	DocumentID   string        `json:"document_id"`
	Title        string        `json:"title"`
	Rule         InclusionRule `json:"rule"`
	Via          []RelationHop `json:"via,omitempty"`
	ChunkIndices []int         `json:"chunk_indices"`
	Text         string        `json:"text"`
}

// RenderedContext is the bounded prompt context handed to the
// answer-generation collaborator, with provenance markers.
type RenderedContext struct {
	Query    string           `json:"query"`
	Sections []ContextSection `json:"sections"`

	// Text is the full rendered string.
	Text string `json:"text"`

	// Size is measured in the plan's budget unit.
	Size int `json:"size"`
}
