// Package memory provides in-memory implementations of the storage ports.
// They are used in tests and for throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// Ensure Store implements the interfaces.
var (
	_ driven.GraphStore = (*Store)(nil)
	_ driven.ChunkStore = (*Store)(nil)
)

// Store is an in-memory implementation of driven.GraphStore and
// driven.ChunkStore. Documents, chunks and relations share one lock so
// cascades and referential checks are atomic.
type Store struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentNode
	chunks    map[string][]domain.Chunk
	relations map[string]domain.DocumentRelation
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		documents: make(map[string]domain.DocumentNode),
		chunks:    make(map[string][]domain.Chunk),
		relations: make(map[string]domain.DocumentRelation),
	}
}

// SaveDocument inserts a new document.
func (s *Store) SaveDocument(_ context.Context, doc *domain.DocumentNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("%w: document %s already exists", domain.ErrConflict, doc.ID)
	}
	s.documents[doc.ID] = copyDocument(*doc)
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc = copyDocument(doc)
	return &doc, nil
}

// GetDocuments retrieves the documents that exist among ids, ordered by ID.
func (s *Store) GetDocuments(_ context.Context, ids []string) ([]domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool, len(ids))
	result := make([]domain.DocumentNode, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if doc, ok := s.documents[id]; ok {
			result = append(result, copyDocument(doc))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListByIngestion returns documents for an ingestion request, ordered by ID.
func (s *Store) ListByIngestion(_ context.Context, ingestionID string) ([]domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.DocumentNode
	for id := range s.documents {
		doc := s.documents[id]
		if doc.IngestionID == ingestionID {
			result = append(result, copyDocument(doc))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpdateSummary replaces the summary and summary embedding.
func (s *Store) UpdateSummary(_ context.Context, id, summary string, embedding []float32, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Summary = summary
	doc.SummaryEmbedding = append([]float32(nil), embedding...)
	doc.UpdatedAt = at
	s.documents[id] = doc
	return nil
}

// UpdateMetadata replaces the metadata.
func (s *Store) UpdateMetadata(_ context.Context, id string, metadata map[string]any, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Metadata = copyMap(metadata)
	doc.UpdatedAt = at
	s.documents[id] = doc
	return nil
}

// DeleteDocument removes a document, optionally with its chunks and relations.
func (s *Store) DeleteDocument(_ context.Context, id string, cascade bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}

	var relIDs []string
	for relID, rel := range s.relations {
		if rel.SourceID == id || rel.TargetID == id {
			relIDs = append(relIDs, relID)
		}
	}

	if !cascade {
		if n := len(s.chunks[id]); n > 0 {
			return fmt.Errorf("%w: document %s has %d chunks", domain.ErrConflict, id, n)
		}
		if len(relIDs) > 0 {
			return fmt.Errorf("%w: document %s has %d relations", domain.ErrConflict, id, len(relIDs))
		}
	}

	for _, relID := range relIDs {
		delete(s.relations, relID)
	}
	delete(s.chunks, id)
	delete(s.documents, id)
	return nil
}

// SaveRelation inserts a relation.
func (s *Store) SaveRelation(_ context.Context, rel *domain.DocumentRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rel.SourceID == rel.TargetID {
		return fmt.Errorf("%w: self-loop on %s", domain.ErrInvalidInput, rel.SourceID)
	}
	for _, endpoint := range []string{rel.SourceID, rel.TargetID} {
		if _, ok := s.documents[endpoint]; !ok {
			return fmt.Errorf("%w: document %s", domain.ErrNotFound, endpoint)
		}
	}
	for _, existing := range s.relations {
		if existing.SourceID == rel.SourceID && existing.TargetID == rel.TargetID && existing.Type == rel.Type {
			return fmt.Errorf("%w: relation %s already exists", domain.ErrConflict,
				domain.RelationHop{From: rel.SourceID, To: rel.TargetID, Type: rel.Type})
		}
	}
	if _, ok := s.relations[rel.ID]; ok {
		return fmt.Errorf("%w: relation %s already exists", domain.ErrConflict, rel.ID)
	}
	stored := *rel
	stored.Metadata = copyMap(rel.Metadata)
	s.relations[rel.ID] = stored
	return nil
}

// DeleteRelation removes a relation by ID.
func (s *Store) DeleteRelation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.relations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.relations, id)
	return nil
}

// ListRelations returns the relations touching documentID in the given direction.
func (s *Store) ListRelations(
	_ context.Context, documentID string, direction domain.Direction,
) ([]domain.DocumentRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []domain.DocumentRelation
	for _, rel := range s.relations {
		if direction.Matches(&rel, documentID) {
			rel.Metadata = copyMap(rel.Metadata)
			result = append(result, rel)
		}
	}
	sortRelations(result, documentID)
	return result, nil
}

// SaveChunks stores all chunks of a document atomically.
func (s *Store) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[documentID]; !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}
	if len(s.chunks[documentID]) > 0 {
		return fmt.Errorf("%w: document %s already has chunks", domain.ErrConflict, documentID)
	}

	indices := make(map[int]bool, len(chunks))
	stored := make([]domain.Chunk, 0, len(chunks))
	for i := range chunks {
		c := chunks[i]
		if c.DocumentID != documentID {
			return fmt.Errorf("%w: chunk %s belongs to %s", domain.ErrInvalidInput, c.ID, c.DocumentID)
		}
		if indices[c.Index] {
			return fmt.Errorf("%w: duplicate chunk index %d", domain.ErrConflict, c.Index)
		}
		indices[c.Index] = true
		stored = append(stored, copyChunk(c))
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].Index < stored[j].Index })
	s.chunks[documentID] = stored
	return nil
}

// GetChunks retrieves all chunks for a document ordered by index.
func (s *Store) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks := s.chunks[documentID]
	result := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		result[i] = copyChunk(c)
	}
	return result, nil
}

// GetChunksByIDs retrieves the chunks that exist among ids.
func (s *Store) GetChunksByIDs(_ context.Context, ids []string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var result []domain.Chunk
	for _, chunks := range s.chunks {
		for _, c := range chunks {
			if want[c.ID] {
				result = append(result, copyChunk(c))
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// DeleteChunks removes all chunks of a document.
func (s *Store) DeleteChunks(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chunks, documentID)
	return nil
}

// ListVectors returns the embedding of every stored chunk.
func (s *Store) ListVectors(_ context.Context) ([]driven.VectorEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chunks))
	for id := range s.chunks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := []driven.VectorEntry{}
	for _, id := range ids {
		for _, c := range s.chunks[id] {
			entries = append(entries, driven.VectorEntry{
				ChunkID:    c.ID,
				DocumentID: c.DocumentID,
				Embedding:  append([]float32(nil), c.Embedding...),
			})
		}
	}
	return entries, nil
}

func sortRelations(rels []domain.DocumentRelation, documentID string) {
	sort.Slice(rels, func(i, j int) bool {
		a, b := rels[i], rels[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if oa, ob := a.Other(documentID), b.Other(documentID); oa != ob {
			return oa < ob
		}
		return a.ID < b.ID
	})
}

func copyDocument(doc domain.DocumentNode) domain.DocumentNode {
	doc.Metadata = copyMap(doc.Metadata)
	if doc.SummaryEmbedding != nil {
		doc.SummaryEmbedding = append([]float32(nil), doc.SummaryEmbedding...)
	}
	return doc
}

func copyChunk(c domain.Chunk) domain.Chunk {
	c.Embedding = append([]float32(nil), c.Embedding...)
	c.Metadata = copyMap(c.Metadata)
	return c
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
