package domain

import (
	"fmt"
	"time"
)

// DocumentType identifies the kind of source a document was ingested from.
type DocumentType string

// Supported document types.
const (
	// DocumentTypeText is plain or markup text.
	DocumentTypeText DocumentType = "text"

	// DocumentTypePDF is a PDF whose text was extracted upstream.
	DocumentTypePDF DocumentType = "pdf"

	// DocumentTypeImage is a scanned image whose text was produced by OCR upstream.
	DocumentTypeImage DocumentType = "image"
)

// IsValid returns true if the document type is recognised.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeText, DocumentTypePDF, DocumentTypeImage:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocumentType) String() string {
	return string(t)
}

// ParseDocumentType converts a string into a DocumentType.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown document type %q", ErrInvalidInput, s)
	}
	return t, nil
}

// DocumentNode is a logical document produced by one ingestion event.
// It is the unit the retrieval planner selects and the graph connects.
type DocumentNode struct {
	// ID is the unique identifier. Immutable once assigned.
	ID string

	// Title is the human-readable title.
	Title string

	// Text is the full extracted text of the document.
	Text string

	// Summary is an optional short summary attached after ingestion.
	Summary string

	// SummaryEmbedding is the optional summary vector.
	// When present its width equals the configured embedding width.
	SummaryEmbedding []float32

	// Type is the kind of source the document came from.
	Type DocumentType

	// Metadata contains opaque source key-value pairs.
	Metadata map[string]any

	// IngestionID links to the ingestion request that produced the document.
	IngestionID string

	// CreatedAt is when the document was created.
	CreatedAt time.Time

	// UpdatedAt is when the summary or metadata last changed.
	UpdatedAt time.Time
}

// HasSummary returns true if a summary has been attached.
func (d *DocumentNode) HasSummary() bool {
	return d.Summary != "" || len(d.SummaryEmbedding) > 0
}

// Chunk is an embedded fragment of a DocumentNode's text.
// Chunks are immutable after creation.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the owning DocumentNode. Required.
	DocumentID string

	// Index is the position within the document, unique per document.
	Index int

	// Text is the raw text of this chunk.
	Text string

	// Embedding is the vector representation. Required, fixed width.
	Embedding []float32

	// Strategy tags the chunking strategy that produced the chunk.
	Strategy string

	// Provider tags the embedding backend that produced the vector.
	Provider string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// ChunkInput is one element of an AddChunks request.
// Identifiers and indices are assigned by the chunk service.
type ChunkInput struct {
	Text      string
	Embedding []float32
	Strategy  string
	Provider  string
	Metadata  map[string]any
}

// ScoredChunk pairs a chunk with its distance to a query vector.
type ScoredChunk struct {
	Chunk    Chunk
	Distance float64
}
