package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

func TestChunkService_AddChunks(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addDoc(t, "a")
	ctx := context.Background()

	chunks, err := env.chunks.AddChunks(ctx, "a", []domain.ChunkInput{
		{Text: "first", Embedding: near(0), Strategy: "fixed_size"},
		{Text: "second", Embedding: near(0.5), Provider: "openai"},
	})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
	assert.Equal(t, DefaultProvider, chunks[0].Provider)
	assert.Equal(t, "openai", chunks[1].Provider)

	stored, err := env.chunks.ChunksByDocument(ctx, "a")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "first", stored[0].Text)
	assert.Equal(t, "second", stored[1].Text)
	assert.Equal(t, 2, env.index.Len())
}

func TestChunkService_AddChunks_WrongWidthPersistsNothing(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addDoc(t, "a")
	ctx := context.Background()

	_, err := env.chunks.AddChunks(ctx, "a", []domain.ChunkInput{
		{Text: "ok", Embedding: near(0)},
		{Text: "bad", Embedding: []float32{1, 2}},
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.Equal(t, domain.KindDimensionMismatch, domain.ErrorKind(err))

	stored, err := env.chunks.ChunksByDocument(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 0, env.index.Len())
}

func TestChunkService_AddChunks_Rejections(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addDoc(t, "chunked", near(0))
	env.addDoc(t, "empty")
	ctx := context.Background()

	_, err := env.chunks.AddChunks(ctx, "missing", []domain.ChunkInput{{Text: "x", Embedding: near(0)}})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.chunks.AddChunks(ctx, "chunked", []domain.ChunkInput{{Text: "x", Embedding: near(0)}})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = env.chunks.AddChunks(ctx, "empty", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChunkService_AddChunks_IndexFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addDoc(t, "a")
	env.index.addErr = errBackend
	ctx := context.Background()

	_, err := env.chunks.AddChunks(ctx, "a", []domain.ChunkInput{{Text: "x", Embedding: near(0)}})
	assert.ErrorIs(t, err, domain.ErrVectorIndexUnavailable)
	assert.ErrorIs(t, err, errBackend)

	stored, err := env.chunks.ChunksByDocument(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, stored)

	// The document can be chunked once the index recovers.
	env.index.addErr = nil
	_, err = env.chunks.AddChunks(ctx, "a", []domain.ChunkInput{{Text: "x", Embedding: near(0)}})
	assert.NoError(t, err)
}

func TestChunkService_AddChunks_ReadersWaitForRollback(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addDoc(t, "a")
	env.index.addErr = errBackend
	env.index.addStarted = make(chan struct{})
	env.index.addGate = make(chan struct{})
	ctx := context.Background()

	addDone := make(chan error, 1)
	go func() {
		_, err := env.chunks.AddChunks(ctx, "a", []domain.ChunkInput{{Text: "x", Embedding: near(0)}})
		addDone <- err
	}()
	<-env.index.addStarted

	// The chunks are already in the store while the index write is pending.
	type readResult struct {
		chunks []domain.Chunk
		err    error
	}
	readDone := make(chan readResult, 1)
	go func() {
		chunks, err := env.chunks.ChunksByDocument(ctx, "a")
		readDone <- readResult{chunks, err}
	}()

	select {
	case <-readDone:
		t.Fatal("reader returned while the index write was pending")
	case <-time.After(50 * time.Millisecond):
	}

	close(env.index.addGate)
	assert.ErrorIs(t, <-addDone, domain.ErrVectorIndexUnavailable)

	res := <-readDone
	require.NoError(t, res.err)
	assert.Empty(t, res.chunks)
}

func TestChunkService_NearestByVector(t *testing.T) {
	env := newTestEnv(t, testConfig())
	env.addDoc(t, "a", near(0.3), near(0))
	env.addDoc(t, "b", near(0.1))
	ctx := context.Background()

	scored, err := env.chunks.NearestByVector(ctx, queryVec, nil, 2)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, "a", scored[0].Chunk.DocumentID)
	assert.Equal(t, 1, scored[0].Chunk.Index)
	assert.Equal(t, "b", scored[1].Chunk.DocumentID)
	assert.LessOrEqual(t, scored[0].Distance, scored[1].Distance)

	scored, err = env.chunks.NearestByVector(ctx, queryVec, []string{"b"}, 5)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "b", scored[0].Chunk.DocumentID)

	_, err = env.chunks.NearestByVector(ctx, []float32{1}, nil, 2)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestChunkService_ConcurrentReadsSeeWholeDocuments(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	ids := []string{"d0", "d1", "d2", "d3", "d4", "d5", "d6", "d7"}
	for _, id := range ids {
		env.addDoc(t, id)
	}

	inputs := make([]domain.ChunkInput, 6)
	for i := range inputs {
		inputs[i] = domain.ChunkInput{Text: "x", Embedding: near(float32(i) / 10)}
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id string) {
			defer wg.Done()
			_, err := env.chunks.AddChunks(ctx, id, inputs)
			assert.NoError(t, err)
		}(id)
		go func(id string) {
			defer wg.Done()
			got, err := env.chunks.ChunksByDocument(ctx, id)
			assert.NoError(t, err)
			assert.Contains(t, []int{0, len(inputs)}, len(got))
		}(id)
	}
	wg.Wait()
}
