package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force in-memory vector index.
type VectorIndex struct {
	mu        sync.RWMutex
	metric    domain.DistanceMetric
	dimension int
	entries   map[string]driven.VectorEntry
}

// NewVectorIndex creates an index of the given width and metric.
func NewVectorIndex(dimension int, metric domain.DistanceMetric) *VectorIndex {
	if !metric.IsValid() {
		metric = domain.MetricCosine
	}
	return &VectorIndex{
		metric:    metric,
		dimension: dimension,
		entries:   make(map[string]driven.VectorEntry),
	}
}

// Add inserts vectors. Either all entries are added or none are.
func (v *VectorIndex) Add(_ context.Context, entries []driven.VectorEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != v.dimension {
			return fmt.Errorf("%w: chunk %s has width %d, want %d",
				domain.ErrDimensionMismatch, e.ChunkID, len(e.Embedding), v.dimension)
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range entries {
		e.Embedding = append([]float32(nil), e.Embedding...)
		v.entries[e.ChunkID] = e
	}
	return nil
}

// DeleteDocument removes every vector belonging to a document.
func (v *VectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for id, e := range v.entries {
		if e.DocumentID == documentID {
			delete(v.entries, id)
		}
	}
	return nil
}

// Search finds the k nearest chunks to the query vector.
func (v *VectorIndex) Search(_ context.Context, query []float32, k int, filter []string) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}
	var allowed map[string]bool
	if len(filter) > 0 {
		allowed = make(map[string]bool, len(filter))
		for _, id := range filter {
			allowed[id] = true
		}
	}

	v.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(v.entries))
	for id, e := range v.entries {
		if allowed != nil && !allowed[e.DocumentID] {
			continue
		}
		hits = append(hits, driven.VectorHit{ChunkID: id, Distance: v.metric.Distance(query, e.Embedding)})
	}
	v.mu.RUnlock()

	SortHits(hits)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}

// Len returns the number of indexed vectors.
func (v *VectorIndex) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

// SortHits orders hits by ascending distance, ties by chunk ID.
func SortHits(hits []driven.VectorHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}
