package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// Ensure ChunkService implements the interface.
var _ driving.ChunkService = (*ChunkService)(nil)

// DefaultProvider is the provider tag used when a chunk input carries none.
const DefaultProvider = "ollama"

// ChunkService stores embedded chunks and answers nearest-neighbour queries.
// Readers never observe chunks whose index write is still pending or was
// rolled back.
type ChunkService struct {
	mu          sync.RWMutex
	chunkStore  driven.ChunkStore
	graphStore  driven.GraphStore
	vectorIndex driven.VectorIndex
	cfg         domain.RetrievalConfig
}

// NewChunkService creates a new chunk service.
func NewChunkService(
	chunkStore driven.ChunkStore,
	graphStore driven.GraphStore,
	vectorIndex driven.VectorIndex,
	cfg domain.RetrievalConfig,
) *ChunkService {
	return &ChunkService{
		chunkStore:  chunkStore,
		graphStore:  graphStore,
		vectorIndex: vectorIndex,
		cfg:         cfg,
	}
}

// AddChunks persists every chunk of a document as one unit.
// Width is validated before anything is written, so a single bad vector
// leaves the document without chunks.
func (s *ChunkService) AddChunks(
	ctx context.Context, documentID string, inputs []domain.ChunkInput,
) ([]domain.Chunk, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no chunks supplied", domain.ErrInvalidInput)
	}
	for i := range inputs {
		if err := s.cfg.CheckWidth(inputs[i].Embedding); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
	}
	if _, err := s.graphStore.GetDocument(ctx, documentID); err != nil {
		return nil, fmt.Errorf("add chunks: %w", err)
	}

	chunks := make([]domain.Chunk, len(inputs))
	entries := make([]driven.VectorEntry, len(inputs))
	for i, in := range inputs {
		provider := in.Provider
		if provider == "" {
			provider = DefaultProvider
		}
		chunks[i] = domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      i,
			Text:       in.Text,
			Embedding:  append([]float32(nil), in.Embedding...),
			Strategy:   in.Strategy,
			Provider:   provider,
			Metadata:   in.Metadata,
		}
		entries[i] = driven.VectorEntry{
			ChunkID:    chunks[i].ID,
			DocumentID: documentID,
			Embedding:  chunks[i].Embedding,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.chunkStore.SaveChunks(ctx, documentID, chunks); err != nil {
		return nil, fmt.Errorf("add chunks: %w", err)
	}

	if s.vectorIndex != nil {
		if err := s.vectorIndex.Add(ctx, entries); err != nil {
			// Undo the store write so the document stays unchunked.
			if delErr := s.chunkStore.DeleteChunks(ctx, documentID); delErr != nil {
				logger.Warn("Failed to roll back chunks of %s: %v", documentID, delErr)
			}
			return nil, fmt.Errorf("index chunks: %w: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}

	logger.Debug("Stored %d chunks for document %s", len(chunks), documentID)
	return chunks, nil
}

// ChunksByDocument returns a document's chunks ordered by index.
func (s *ChunkService) ChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, err := s.graphStore.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.chunkStore.GetChunks(ctx, documentID)
}

// NearestByVector returns up to k chunks nearest to query, ordered by
// ascending distance with ties broken by chunk ID. When documentIDs is
// non-empty the search is restricted to those documents.
func (s *ChunkService) NearestByVector(
	ctx context.Context, query []float32, documentIDs []string, k int,
) ([]domain.ScoredChunk, error) {
	if err := s.cfg.CheckWidth(query); err != nil {
		return nil, fmt.Errorf("query vector: %w", err)
	}
	if k <= 0 {
		return []domain.ScoredChunk{}, nil
	}
	if s.vectorIndex == nil {
		return nil, fmt.Errorf("%w: no vector index configured", domain.ErrVectorIndexUnavailable)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits, err := s.vectorIndex.Search(ctx, query, k, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if len(hits) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := s.chunkStore.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate chunks: %w", err)
	}
	byID := make(map[string]domain.Chunk, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c
	}

	scored := make([]domain.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		c, ok := byID[h.ChunkID]
		if !ok {
			logger.Warn("Vector index returned unknown chunk %s", h.ChunkID)
			continue
		}
		scored = append(scored, domain.ScoredChunk{Chunk: c, Distance: h.Distance})
	}
	return scored, nil
}
