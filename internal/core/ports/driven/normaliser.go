package driven

import "github.com/custodia-labs/docgraph/internal/core/domain"

// Normaliser turns a marked-up text file into plain text before it is
// chunked. Binary extraction (OCR, PDF layout) happens upstream.
type Normaliser interface {
	// Format returns the format tag recorded in document metadata.
	Format() string

	// Extensions returns the lower-case file extensions handled, with the dot.
	Extensions() []string

	// Normalise converts content. name is the source file name and
	// supplies the title when the content carries none.
	Normalise(name string, content []byte) (*domain.NormalisedText, error)
}
