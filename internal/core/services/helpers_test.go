package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts found in vectors get that vector; everything else gets fallback.
type mockEmbeddingService struct {
	vectors  map[string][]float32
	fallback []float32
	embedErr error
	calls    int
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.fallback, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Provider() string {
	return "mock"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// mockVectorIndex implements driven.VectorIndex with injectable failures.
type mockVectorIndex struct {
	*memory.VectorIndex
	addErr    error
	searchErr error

	// addStarted is closed when Add is entered; Add then waits on addGate.
	addStarted chan struct{}
	addGate    chan struct{}
}

func (m *mockVectorIndex) Add(ctx context.Context, entries []driven.VectorEntry) error {
	if m.addStarted != nil {
		close(m.addStarted)
	}
	if m.addGate != nil {
		<-m.addGate
	}
	if m.addErr != nil {
		return m.addErr
	}
	return m.VectorIndex.Add(ctx, entries)
}

func (m *mockVectorIndex) Search(ctx context.Context, q []float32, k int, filter []string) ([]driven.VectorHit, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.VectorIndex.Search(ctx, q, k, filter)
}

var errBackend = errors.New("backend down")

// --- Test environment ---

// testEnv wires the core services over in-memory adapters with
// three-dimensional L2 vectors.
type testEnv struct {
	cfg      domain.RetrievalConfig
	store    *memory.Store
	index    *mockVectorIndex
	embedder *mockEmbeddingService
	graph    *GraphService
	chunks   *ChunkService
	planner  *Planner
}

// queryVec is the vector every test query embeds to.
var queryVec = []float32{1, 0, 0}

func testConfig() domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()
	cfg.EmbeddingWidth = 3
	cfg.Metric = domain.MetricL2
	cfg.Budget = 5
	cfg.EvidenceMaxDistance = 1.0
	return cfg
}

func newTestEnv(t *testing.T, cfg domain.RetrievalConfig) *testEnv {
	t.Helper()
	store := memory.NewStore()
	index := &mockVectorIndex{VectorIndex: memory.NewVectorIndex(cfg.EmbeddingWidth, cfg.Metric)}
	embedder := &mockEmbeddingService{fallback: queryVec}
	graph := NewGraphService(store, index, cfg)
	chunks := NewChunkService(store, store, index, cfg)
	return &testEnv{
		cfg:      cfg,
		store:    store,
		index:    index,
		embedder: embedder,
		graph:    graph,
		chunks:   chunks,
		planner:  NewPlanner(graph, chunks, embedder, cfg),
	}
}

// addDoc creates a document with one chunk per vector.
func (e *testEnv) addDoc(t *testing.T, id string, vectors ...[]float32) {
	t.Helper()
	ctx := context.Background()
	_, err := e.graph.CreateDocument(ctx, driving.CreateDocumentRequest{
		ID:          id,
		Title:       "Title " + id,
		Text:        "text of " + id,
		Type:        domain.DocumentTypeText,
		IngestionID: "ing-1",
	})
	require.NoError(t, err)
	if len(vectors) == 0 {
		return
	}

	inputs := make([]domain.ChunkInput, len(vectors))
	for i, v := range vectors {
		inputs[i] = domain.ChunkInput{Text: id + " chunk", Embedding: v, Strategy: "fixed_size"}
	}
	_, err = e.chunks.AddChunks(ctx, id, inputs)
	require.NoError(t, err)
}

func (e *testEnv) relate(t *testing.T, from, to string, typ domain.RelationType) {
	t.Helper()
	_, err := e.graph.CreateRelation(context.Background(), driving.CreateRelationRequest{
		SourceID: from,
		TargetID: to,
		Type:     typ,
	})
	require.NoError(t, err)
}

// near returns vectors close to the query; far returns vectors well outside
// the evidence cutoff.
func near(offset float32) []float32 { return []float32{1, offset, 0} }
func far(z float32) []float32       { return []float32{0, 0, z} }
