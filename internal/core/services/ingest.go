package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService creates a document from extracted text, then chunks and
// embeds it. A failure after the document is created removes it again.
type IngestService struct {
	graph    driving.GraphService
	chunks   driving.ChunkService
	splitter driven.Splitter
	embedder driven.EmbeddingService
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	graph driving.GraphService,
	chunks driving.ChunkService,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
) *IngestService {
	return &IngestService{
		graph:    graph,
		chunks:   chunks,
		splitter: splitter,
		embedder: embedder,
	}
}

// Ingest creates the document and all of its chunks.
// Documents with empty text are stored without chunks.
func (s *IngestService) Ingest(ctx context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}

	doc, err := s.graph.CreateDocument(ctx, req.Document)
	if err != nil {
		return nil, err
	}

	chunks, err := s.chunkAndEmbed(ctx, doc)
	if err != nil {
		if delErr := s.graph.DeleteDocument(ctx, doc.ID, true); delErr != nil {
			logger.Warn("Failed to remove partially ingested document %s: %v", doc.ID, delErr)
		}
		return nil, fmt.Errorf("ingest %s: %w", doc.ID, err)
	}

	logger.Info("Ingested %s with %d chunks", doc.ID, len(chunks))
	return &driving.IngestResult{Document: doc, Chunks: chunks}, nil
}

func (s *IngestService) chunkAndEmbed(ctx context.Context, doc *domain.DocumentNode) ([]domain.Chunk, error) {
	inputs, err := s.splitter.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}
	if len(inputs) == 0 {
		return []domain.Chunk{}, nil
	}

	texts := make([]string, len(inputs))
	for i := range inputs {
		texts[i] = inputs[i].Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	if len(vectors) != len(inputs) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrProvider, len(vectors), len(inputs))
	}

	provider := s.embedder.Provider()
	for i := range inputs {
		inputs[i].Embedding = vectors[i]
		inputs[i].Provider = provider
	}
	return s.chunks.AddChunks(ctx, doc.ID, inputs)
}
