package driven

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// Splitter cuts a document's text into chunk inputs in document order.
// Embeddings are left empty for the caller to fill.
type Splitter interface {
	// Name returns the strategy tag stored on the chunks it produces.
	Name() string

	// Process splits doc.Text. Empty text yields no inputs.
	Process(ctx context.Context, doc *domain.DocumentNode) ([]domain.ChunkInput, error)
}
