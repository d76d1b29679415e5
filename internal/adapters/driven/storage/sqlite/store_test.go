package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/core/services"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "docgraph-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

// createTestDocument saves a minimal document with the given ID.
func createTestDocument(t *testing.T, store *Store, id string) *domain.DocumentNode {
	t.Helper()
	now := time.Now().UTC()
	doc := &domain.DocumentNode{
		ID:          id,
		Title:       "Title " + id,
		Text:        "text of " + id,
		Type:        domain.DocumentTypeText,
		Metadata:    map[string]any{"source": "test"},
		IngestionID: "ing-1",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.GraphStore().SaveDocument(context.Background(), doc))
	return doc
}

func createTestRelation(t *testing.T, store *Store, id, from, to string, typ domain.RelationType) {
	t.Helper()
	rel := &domain.DocumentRelation{
		ID:        id,
		SourceID:  from,
		TargetID:  to,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.GraphStore().SaveRelation(context.Background(), rel))
}

func testChunks(documentID string, vectors ...[]float32) []domain.Chunk {
	chunks := make([]domain.Chunk, len(vectors))
	for i, v := range vectors {
		chunks[i] = domain.Chunk{
			ID:         documentID + "-c" + string(rune('0'+i)),
			DocumentID: documentID,
			Index:      i,
			Text:       "chunk text",
			Embedding:  v,
			Strategy:   "fixed_size",
			Provider:   "ollama",
		}
	}
	return chunks
}

func vectorEntries(chunks []domain.Chunk) []driven.VectorEntry {
	entries := make([]driven.VectorEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = driven.VectorEntry{ChunkID: c.ID, DocumentID: c.DocumentID, Embedding: c.Embedding}
	}
	return entries
}

// ==================== Store Tests ====================

func TestNewStore_ErrorHandling(t *testing.T) {
	_, err := NewStore("/invalid\x00path")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "creating data directory")
}

func TestNewStore_Success(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "docgraph-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	dbPath := filepath.Join(tempDir, "docgraph.db")
	assert.Equal(t, dbPath, store.Path())
	assert.FileExists(t, dbPath)
	assert.NoError(t, store.db.Ping())
}

func TestNewStore_DirectoryCreation(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "docgraph-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	nestedDir := filepath.Join(tempDir, "nested", "path")
	store, err := NewStore(nestedDir)
	require.NoError(t, err)
	defer store.Close()

	assert.DirExists(t, nestedDir)
}

func TestNewStore_Migrations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	for _, table := range []string{"documents", "chunks", "relations", "chunk_vectors"} {
		var exists int
		err := store.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&exists)
		require.NoError(t, err)
		assert.Equal(t, 1, exists, "table %s should exist", table)
	}
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "docgraph-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	first, err := NewStore(tempDir)
	require.NoError(t, err)
	createTestDocument(t, first, "a")
	require.NoError(t, first.Close())

	second, err := NewStore(tempDir)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	_, err = second.GraphStore().GetDocument(context.Background(), "a")
	assert.NoError(t, err)
}

func TestNewStore_ForeignKeysEnabled(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	var fkEnabled int
	require.NoError(t, store.db.QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}

func TestStore_Close(t *testing.T) {
	store, _ := setupTestStore(t)
	defer os.RemoveAll(filepath.Dir(store.Path()))

	assert.NoError(t, store.Close())
	assert.Error(t, store.db.Ping())
}

func TestStore_InterfaceGetters(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.NotNil(t, store.GraphStore())
	assert.NotNil(t, store.ChunkStore())
	assert.NotNil(t, store.VectorIndex(3, domain.MetricL2))
}

// ==================== GraphStore Tests ====================

func TestGraphStore_SaveAndGetDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	doc := createTestDocument(t, store, "doc-1")

	got, err := store.GraphStore().GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, domain.DocumentTypeText, got.Type)
	assert.Equal(t, "ing-1", got.IngestionID)
	assert.Equal(t, "test", got.Metadata["source"])
	assert.Empty(t, got.Summary)
	assert.Nil(t, got.SummaryEmbedding)
	assert.WithinDuration(t, doc.CreatedAt, got.CreatedAt, time.Second)
}

func TestGraphStore_GetDocument_NotFound(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.GraphStore().GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGraphStore_SaveDocument_Duplicate(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	doc := createTestDocument(t, store, "doc-1")
	err := store.GraphStore().SaveDocument(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGraphStore_SaveDocument_InvalidType(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	doc := &domain.DocumentNode{ID: "x", Title: "x", Type: "video", IngestionID: "i"}
	err := store.GraphStore().SaveDocument(context.Background(), doc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGraphStore_GetDocuments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "b")
	createTestDocument(t, store, "a")

	docs, err := store.GraphStore().GetDocuments(ctx, []string{"b", "missing", "a"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)

	docs, err = store.GraphStore().GetDocuments(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGraphStore_ListByIngestion(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	createTestDocument(t, store, "b")
	createTestDocument(t, store, "a")

	docs, err := store.GraphStore().ListByIngestion(ctx, "ing-1")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].ID)

	docs, err = store.GraphStore().ListByIngestion(ctx, "ing-2")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGraphStore_UpdateSummaryAndMetadata(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	gs := store.GraphStore()

	createTestDocument(t, store, "doc-1")
	later := time.Now().UTC().Add(time.Hour)

	require.NoError(t, gs.UpdateSummary(ctx, "doc-1", "short", []float32{0.5, -1, 2}, later))
	require.NoError(t, gs.UpdateMetadata(ctx, "doc-1", map[string]any{"k": "v"}, later))

	got, err := gs.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "short", got.Summary)
	assert.Equal(t, []float32{0.5, -1, 2}, got.SummaryEmbedding)
	assert.Equal(t, map[string]any{"k": "v"}, got.Metadata)
	assert.WithinDuration(t, later, got.UpdatedAt, time.Second)

	assert.ErrorIs(t, gs.UpdateSummary(ctx, "missing", "s", nil, later), domain.ErrNotFound)
	assert.ErrorIs(t, gs.UpdateMetadata(ctx, "missing", nil, later), domain.ErrNotFound)
}

func TestGraphStore_SaveRelation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	gs := store.GraphStore()

	createTestDocument(t, store, "a")
	createTestDocument(t, store, "b")
	createTestRelation(t, store, "r1", "a", "b", domain.RelationExplains)

	t.Run("duplicate triple", func(t *testing.T) {
		err := gs.SaveRelation(ctx, &domain.DocumentRelation{
			ID: "r2", SourceID: "a", TargetID: "b", Type: domain.RelationExplains,
		})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("same pair different type", func(t *testing.T) {
		err := gs.SaveRelation(ctx, &domain.DocumentRelation{
			ID: "r3", SourceID: "a", TargetID: "b", Type: domain.RelationReferences,
		})
		assert.NoError(t, err)
	})

	t.Run("missing endpoint", func(t *testing.T) {
		err := gs.SaveRelation(ctx, &domain.DocumentRelation{
			ID: "r4", SourceID: "a", TargetID: "ghost", Type: domain.RelationExplains,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("self loop", func(t *testing.T) {
		err := gs.SaveRelation(ctx, &domain.DocumentRelation{
			ID: "r5", SourceID: "a", TargetID: "a", Type: domain.RelationExplains,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestGraphStore_ListRelations(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	gs := store.GraphStore()

	for _, id := range []string{"a", "b", "c", "d"} {
		createTestDocument(t, store, id)
	}
	createTestRelation(t, store, "r1", "a", "c", domain.RelationReferences)
	createTestRelation(t, store, "r2", "a", "b", domain.RelationReferences)
	createTestRelation(t, store, "r3", "a", "d", domain.RelationExplains)
	createTestRelation(t, store, "r4", "d", "a", domain.RelationSupersedes)

	out, err := gs.ListRelations(ctx, "a", domain.DirectionOutgoing)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, []string{out[0].ID, out[1].ID, out[2].ID})

	in, err := gs.ListRelations(ctx, "a", domain.DirectionIncoming)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "r4", in[0].ID)

	both, err := gs.ListRelations(ctx, "a", domain.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, both, 4)

	_, err = gs.ListRelations(ctx, "a", "sideways")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGraphStore_DeleteRelation(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	gs := store.GraphStore()

	createTestDocument(t, store, "a")
	createTestDocument(t, store, "b")
	createTestRelation(t, store, "r1", "a", "b", domain.RelationExplains)

	require.NoError(t, gs.DeleteRelation(ctx, "r1"))
	assert.ErrorIs(t, gs.DeleteRelation(ctx, "r1"), domain.ErrNotFound)

	rels, err := gs.ListRelations(ctx, "a", domain.DirectionBoth)
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestGraphStore_DeleteDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	gs := store.GraphStore()
	index := store.VectorIndex(2, domain.MetricL2)

	createTestDocument(t, store, "a")
	createTestDocument(t, store, "b")
	createTestDocument(t, store, "lonely")
	createTestRelation(t, store, "r1", "b", "a", domain.RelationExplains)
	chunks := testChunks("a", []float32{1, 0}, []float32{0, 1})
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "a", chunks))
	require.NoError(t, index.Add(ctx, vectorEntries(chunks)))

	t.Run("missing", func(t *testing.T) {
		assert.ErrorIs(t, gs.DeleteDocument(ctx, "ghost", true), domain.ErrNotFound)
	})

	t.Run("unreferenced without cascade", func(t *testing.T) {
		assert.NoError(t, gs.DeleteDocument(ctx, "lonely", false))
	})

	t.Run("referenced without cascade", func(t *testing.T) {
		assert.ErrorIs(t, gs.DeleteDocument(ctx, "a", false), domain.ErrConflict)
		_, err := gs.GetDocument(ctx, "a")
		assert.NoError(t, err)
	})

	t.Run("cascade", func(t *testing.T) {
		require.NoError(t, gs.DeleteDocument(ctx, "a", true))

		_, err := gs.GetDocument(ctx, "a")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		remaining, err := store.ChunkStore().GetChunks(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, remaining)

		rels, err := gs.ListRelations(ctx, "b", domain.DirectionBoth)
		require.NoError(t, err)
		assert.Empty(t, rels)

		hits, err := index.Search(ctx, []float32{1, 0}, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, hits)
	})
}

// ==================== ChunkStore Tests ====================

func TestChunkStore_ListVectors(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	empty, err := cs.ListVectors(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	createTestDocument(t, store, "b")
	createTestDocument(t, store, "a")
	require.NoError(t, cs.SaveChunks(ctx, "b", testChunks("b", []float32{0, 1})))
	require.NoError(t, cs.SaveChunks(ctx, "a", testChunks("a", []float32{1, 0}, []float32{1, 1})))

	entries, err := cs.ListVectors(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, driven.VectorEntry{ChunkID: "a-c0", DocumentID: "a", Embedding: []float32{1, 0}}, entries[0])
	assert.Equal(t, driven.VectorEntry{ChunkID: "a-c1", DocumentID: "a", Embedding: []float32{1, 1}}, entries[1])
	assert.Equal(t, driven.VectorEntry{ChunkID: "b-c0", DocumentID: "b", Embedding: []float32{0, 1}}, entries[2])
}

func TestChunkStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "a")
	chunks := testChunks("a", []float32{1, 0}, []float32{0, 1}, []float32{1, 1})
	chunks[1].Metadata = map[string]any{"start": "10"}
	require.NoError(t, cs.SaveChunks(ctx, "a", chunks))

	got, err := cs.GetChunks(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, c := range got {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, chunks[i].ID, c.ID)
		assert.Equal(t, chunks[i].Embedding, c.Embedding)
		assert.Equal(t, "fixed_size", c.Strategy)
		assert.Equal(t, "ollama", c.Provider)
	}
	assert.Equal(t, "10", got[1].Metadata["start"])
	assert.Empty(t, got[0].Metadata)

	byID, err := cs.GetChunksByIDs(ctx, []string{chunks[2].ID, "missing", chunks[0].ID})
	require.NoError(t, err)
	require.Len(t, byID, 2)
	assert.Equal(t, chunks[0].ID, byID[0].ID)
	assert.Equal(t, chunks[2].ID, byID[1].ID)
}

func TestChunkStore_SaveChunks_Rejections(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "a")
	createTestDocument(t, store, "b")

	t.Run("missing document", func(t *testing.T) {
		err := cs.SaveChunks(ctx, "ghost", testChunks("ghost", []float32{1, 0}))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("foreign chunk", func(t *testing.T) {
		err := cs.SaveChunks(ctx, "a", testChunks("b", []float32{1, 0}))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("duplicate index rolls back", func(t *testing.T) {
		chunks := testChunks("b", []float32{1, 0}, []float32{0, 1})
		chunks[1].Index = 0
		err := cs.SaveChunks(ctx, "b", chunks)
		assert.ErrorIs(t, err, domain.ErrConflict)

		got, err := cs.GetChunks(ctx, "b")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("already chunked", func(t *testing.T) {
		require.NoError(t, cs.SaveChunks(ctx, "a", testChunks("a", []float32{1, 0})))
		err := cs.SaveChunks(ctx, "a", testChunks("a", []float32{0, 1}))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestChunkStore_DeleteChunks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	cs := store.ChunkStore()

	createTestDocument(t, store, "a")
	require.NoError(t, cs.SaveChunks(ctx, "a", testChunks("a", []float32{1, 0})))
	require.NoError(t, cs.DeleteChunks(ctx, "a"))

	got, err := cs.GetChunks(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Chunks can be written again once removed.
	assert.NoError(t, cs.SaveChunks(ctx, "a", testChunks("a", []float32{0, 1})))
}

// ==================== VectorIndex Tests ====================

func TestVectorIndex_Search(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	index := store.VectorIndex(2, domain.MetricL2)

	createTestDocument(t, store, "a")
	createTestDocument(t, store, "b")
	ca := testChunks("a", []float32{1, 0}, []float32{3, 0})
	cb := testChunks("b", []float32{2, 0})
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "a", ca))
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "b", cb))
	require.NoError(t, index.Add(ctx, vectorEntries(ca)))
	require.NoError(t, index.Add(ctx, vectorEntries(cb)))

	hits, err := index.Search(ctx, []float32{0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a-c0", hits[0].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Distance, 1e-9)
	assert.Equal(t, "b-c0", hits[1].ChunkID)

	filtered, err := index.Search(ctx, []float32{0, 0}, 10, []string{"a"})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a-c1", filtered[1].ChunkID)

	none, err := index.Search(ctx, []float32{0, 0}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = index.Search(ctx, []float32{0}, 1, nil)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestVectorIndex_TiesByChunkID(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	index := store.VectorIndex(2, domain.MetricL2)

	createTestDocument(t, store, "b")
	createTestDocument(t, store, "a")
	cb := testChunks("b", []float32{1, 0})
	ca := testChunks("a", []float32{0, 1})
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "b", cb))
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "a", ca))
	require.NoError(t, index.Add(ctx, vectorEntries(cb)))
	require.NoError(t, index.Add(ctx, vectorEntries(ca)))

	hits, err := index.Search(ctx, []float32{0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, hits[0].Distance, hits[1].Distance)
	assert.Equal(t, "a-c0", hits[0].ChunkID)
	assert.Equal(t, "b-c0", hits[1].ChunkID)
}

func TestVectorIndex_AddRejections(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	index := store.VectorIndex(2, domain.MetricL2)

	err := index.Add(ctx, []driven.VectorEntry{{ChunkID: "x", DocumentID: "a", Embedding: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	err = index.Add(ctx, []driven.VectorEntry{{ChunkID: "unknown", DocumentID: "a", Embedding: []float32{1, 0}}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVectorIndex_DeleteDocument(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	index := store.VectorIndex(2, domain.MetricL2)

	createTestDocument(t, store, "a")
	ca := testChunks("a", []float32{1, 0})
	require.NoError(t, store.ChunkStore().SaveChunks(ctx, "a", ca))
	require.NoError(t, index.Add(ctx, vectorEntries(ca)))

	require.NoError(t, index.DeleteDocument(ctx, "a"))
	hits, err := index.Search(ctx, []float32{1, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)

	// Chunks remain; only the vectors were removed.
	got, err := store.ChunkStore().GetChunks(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, index.Close())
}

// ==================== Service Integration ====================

func TestServices_OverSQLite(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	cfg := domain.DefaultRetrievalConfig()
	cfg.EmbeddingWidth = 2
	cfg.Metric = domain.MetricL2
	index := store.VectorIndex(cfg.EmbeddingWidth, cfg.Metric)
	graph := services.NewGraphService(store.GraphStore(), index, cfg)
	chunks := services.NewChunkService(store.ChunkStore(), store.GraphStore(), index, cfg)

	for _, id := range []string{"a", "b", "c"} {
		_, err := graph.CreateDocument(ctx, driving.CreateDocumentRequest{
			ID: id, Title: "Title " + id, Type: domain.DocumentTypeText, IngestionID: "ing-1",
		})
		require.NoError(t, err)
	}
	_, err := graph.CreateRelation(ctx, driving.CreateRelationRequest{
		SourceID: "a", TargetID: "b", Type: domain.RelationExplains,
	})
	require.NoError(t, err)
	_, err = graph.CreateRelation(ctx, driving.CreateRelationRequest{
		SourceID: "b", TargetID: "c", Type: domain.RelationDecisionFor,
	})
	require.NoError(t, err)

	neighbors, err := graph.Neighbors(ctx, "a", domain.TraversalOptions{MaxDepth: 2})
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "b", neighbors[0].Document.ID)
	assert.Equal(t, "c", neighbors[1].Document.ID)
	assert.Equal(t, 2, neighbors[1].Depth)

	_, err = chunks.AddChunks(ctx, "a", []domain.ChunkInput{
		{Text: "first", Embedding: []float32{1, 0}},
		{Text: "second", Embedding: []float32{0, 1}},
	})
	require.NoError(t, err)

	nearest, err := chunks.NearestByVector(ctx, []float32{0, 1}, nil, 1)
	require.NoError(t, err)
	require.Len(t, nearest, 1)
	assert.Equal(t, "second", nearest[0].Chunk.Text)
	assert.Equal(t, 1, nearest[0].Chunk.Index)

	_, err = chunks.AddChunks(ctx, "a", []domain.ChunkInput{{Text: "again", Embedding: []float32{1, 1}}})
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, graph.DeleteDocument(ctx, "a", true))
	nearest, err = chunks.NearestByVector(ctx, []float32{0, 1}, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, nearest)
}
