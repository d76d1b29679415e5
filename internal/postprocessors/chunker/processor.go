// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"context"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// Strategy is the strategy tag stored on chunks produced by this processor.
const Strategy = "fixed_size"

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Processor splits document text into fixed-size chunks.
// Sizes count runes, so multi-byte text is never cut mid-character.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the strategy tag.
func (p *Processor) Name() string {
	return Strategy
}

// Process splits the document text into chunk inputs in document order.
// Embeddings are left empty for the caller to fill. Each input records
// its rune offsets in metadata under "start" and "end".
func (p *Processor) Process(_ context.Context, doc *domain.DocumentNode) ([]domain.ChunkInput, error) {
	if doc.Text == "" {
		// Empty text produces no chunks
		return nil, nil
	}

	runes := []rune(doc.Text)
	n := len(runes)
	step := p.chunkSize - p.overlap

	inputs := make([]domain.ChunkInput, 0, n/step+1)
	for start := 0; start < n; start += step {
		end := start + p.chunkSize
		if end > n {
			end = n
		}

		inputs = append(inputs, domain.ChunkInput{
			Text:     string(runes[start:end]),
			Strategy: Strategy,
			Metadata: map[string]any{
				"start": start,
				"end":   end,
			},
		})

		if end == n {
			break
		}
	}

	return inputs, nil
}
