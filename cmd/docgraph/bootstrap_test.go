package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/cli"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// writeConfig writes a config whose embedding provider points at baseURL.
func writeConfig(t *testing.T, baseURL, vectorIndex string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[retrieval]
embedding_width = 768

[embedding]
provider = "ollama"
base_url = "` + baseURL + `"

[storage]
vector_index = "` + vectorIndex + `"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func closedServerURL() string {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

func TestBootstrap_WiresServices(t *testing.T) {
	for _, backend := range []string{"sqlite", "memory"} {
		t.Run(backend, func(t *testing.T) {
			configPath := writeConfig(t, closedServerURL(), backend)

			svcs, release, err := bootstrap(cli.Options{ConfigPath: configPath, DataDir: t.TempDir()})
			require.NoError(t, err)
			defer release()

			require.NotNil(t, svcs.Graph)
			require.NotNil(t, svcs.Chunk)
			require.NotNil(t, svcs.Planner)
			require.NotNil(t, svcs.Assembler)
			require.NotNil(t, svcs.Ingest)
			require.NotNil(t, svcs.Settings)
			assert.Equal(t, configPath, svcs.Settings.ConfigPath())

			ctx := context.Background()
			doc, err := svcs.Graph.CreateDocument(ctx, driving.CreateDocumentRequest{
				Title:       "Decision",
				Text:        "We chose Postgres.",
				Type:        domain.DocumentTypeText,
				IngestionID: "req-1",
			})
			require.NoError(t, err)

			got, err := svcs.Graph.GetDocument(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, "Decision", got.Title)

			// The provider is unreachable, so planning reports it.
			_, err = svcs.Planner.Plan(ctx, driving.PlanRequest{Query: "why postgres"})
			assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		})
	}
}

func TestBootstrap_PersistsAcrossRuns(t *testing.T) {
	configPath := writeConfig(t, closedServerURL(), "sqlite")
	dataDir := t.TempDir()
	ctx := context.Background()

	svcs, release, err := bootstrap(cli.Options{ConfigPath: configPath, DataDir: dataDir})
	require.NoError(t, err)
	_, err = svcs.Graph.CreateDocument(ctx, driving.CreateDocumentRequest{
		ID:          "doc-1",
		Title:       "Decision",
		Type:        domain.DocumentTypeText,
		IngestionID: "req-1",
	})
	require.NoError(t, err)
	release()

	svcs, release, err = bootstrap(cli.Options{ConfigPath: configPath, DataDir: dataDir})
	require.NoError(t, err)
	defer release()

	docs, err := svcs.Graph.ListByIngestion(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-1", docs[0].ID)
}

func unitVector(width int) []float32 {
	v := make([]float32, width)
	v[0] = 1
	return v
}

func TestBootstrap_MemoryIndexReloadsStoredVectors(t *testing.T) {
	configPath := writeConfig(t, closedServerURL(), "memory")
	dataDir := t.TempDir()
	ctx := context.Background()

	svcs, release, err := bootstrap(cli.Options{ConfigPath: configPath, DataDir: dataDir})
	require.NoError(t, err)
	_, err = svcs.Graph.CreateDocument(ctx, driving.CreateDocumentRequest{
		ID:          "doc-1",
		Title:       "Decision",
		Type:        domain.DocumentTypeText,
		IngestionID: "req-1",
	})
	require.NoError(t, err)
	_, err = svcs.Chunk.AddChunks(ctx, "doc-1", []domain.ChunkInput{
		{Text: "We chose Postgres.", Embedding: unitVector(768)},
	})
	require.NoError(t, err)
	release()

	svcs, release, err = bootstrap(cli.Options{ConfigPath: configPath, DataDir: dataDir})
	require.NoError(t, err)
	defer release()

	nearest, err := svcs.Chunk.NearestByVector(ctx, unitVector(768), nil, 3)
	require.NoError(t, err)
	require.Len(t, nearest, 1)
	assert.Equal(t, "doc-1", nearest[0].Chunk.DocumentID)
	assert.Equal(t, "We chose Postgres.", nearest[0].Chunk.Text)
}

func TestLoadVectors_SkipsOtherWidths(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	for _, id := range []string{"a", "b"} {
		require.NoError(t, store.SaveDocument(ctx, &domain.DocumentNode{
			ID: id, Title: id, Type: domain.DocumentTypeText, IngestionID: "ing-1",
		}))
	}
	require.NoError(t, store.SaveChunks(ctx, "a", []domain.Chunk{
		{ID: "a-0", DocumentID: "a", Index: 0, Embedding: []float32{1, 0}},
		{ID: "a-1", DocumentID: "a", Index: 1, Embedding: []float32{0, 1}},
	}))
	require.NoError(t, store.SaveChunks(ctx, "b", []domain.Chunk{
		{ID: "b-0", DocumentID: "b", Index: 0, Embedding: []float32{1, 0, 0}},
	}))

	index := memory.NewVectorIndex(2, domain.MetricCosine)
	require.NoError(t, loadVectors(ctx, store, index, 2))
	assert.Equal(t, 2, index.Len())
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[retrieval]\nbudget = 0\n"), 0o600))

	_, _, err := bootstrap(cli.Options{ConfigPath: path, DataDir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBootstrap_UnknownChunkingStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chunking]\nstrategy = \"sentences\"\n"), 0o600))

	_, _, err := bootstrap(cli.Options{ConfigPath: path, DataDir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBootstrap_PgvectorWithoutDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[storage]\nvector_index = \"pgvector\"\n"), 0o600))

	_, _, err := bootstrap(cli.Options{ConfigPath: path, DataDir: t.TempDir()})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
