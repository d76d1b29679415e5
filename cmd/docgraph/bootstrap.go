package main

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/vectorindex/pgvector"
	"github.com/custodia-labs/docgraph/internal/adapters/driving/cli"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/services"
	"github.com/custodia-labs/docgraph/internal/logger"
	"github.com/custodia-labs/docgraph/internal/postprocessors"
)

// bootstrap loads settings, opens storage and wires the services.
// An unreachable embedding provider is not fatal: document and relation
// commands still work, and retrieval reports embedding_unavailable.
func bootstrap(opts cli.Options) (cli.Services, func(), error) {
	ctx := context.Background()

	configStore, err := openConfig(opts.ConfigPath)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return cli.Services{}, nil, err
	}
	if opts.DataDir != "" {
		settings.Storage.DataDir = opts.DataDir
	}
	cfg := settings.Retrieval

	splitter, err := postprocessors.NewSplitter(settings.Chunking)
	if err != nil {
		return cli.Services{}, nil, err
	}

	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return cli.Services{}, nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Store: %s", store.Path())

	index, err := openVectorIndex(ctx, store, settings.Storage, cfg)
	if err != nil {
		_ = store.Close()
		return cli.Services{}, nil, err
	}

	embedder, err := embedding.CreateAndValidate(ctx, &settings.Embedding, cfg.EmbeddingWidth)
	if err != nil {
		logger.Warn("Embedding disabled: %v", err)
		embedder = nil
	}

	graph := services.NewGraphService(store.GraphStore(), index, cfg)
	chunks := services.NewChunkService(store.ChunkStore(), store.GraphStore(), index, cfg)

	release := func() {
		if embedder != nil {
			_ = embedder.Close()
		}
		if err := index.Close(); err != nil {
			logger.Warn("Closing vector index: %v", err)
		}
		if err := store.Close(); err != nil {
			logger.Warn("Closing store: %v", err)
		}
	}

	return cli.Services{
		Graph:     graph,
		Chunk:     chunks,
		Planner:   services.NewPlanner(graph, chunks, embedder, cfg),
		Assembler: services.NewAssembler(cfg),
		Ingest:    services.NewIngestService(graph, chunks, splitter, embedder),
		Settings:  settingsService,
	}, release, nil
}

func openConfig(path string) (*file.ConfigStore, error) {
	if path != "" {
		return file.NewConfigStoreFile(path)
	}
	return file.NewConfigStore("")
}

// loadVectors fills a volatile index from the stored chunks. Vectors of
// another width cannot be searched and are skipped.
func loadVectors(ctx context.Context, chunks driven.ChunkStore, index driven.VectorIndex, width int) error {
	entries, err := chunks.ListVectors(ctx)
	if err != nil {
		return err
	}
	usable := entries[:0]
	for _, e := range entries {
		if len(e.Embedding) == width {
			usable = append(usable, e)
		}
	}
	if skipped := len(entries) - len(usable); skipped > 0 {
		logger.Warn("Skipped %d stored vectors whose width is not %d", skipped, width)
	}
	if err := index.Add(ctx, usable); err != nil {
		return err
	}
	logger.Debug("Loaded %d vectors into the in-memory index", len(usable))
	return nil
}

func openVectorIndex(
	ctx context.Context, store *sqlite.Store, storage domain.StorageSettings, cfg domain.RetrievalConfig,
) (driven.VectorIndex, error) {
	switch storage.VectorIndex {
	case domain.VectorBackendMemory:
		index := memory.NewVectorIndex(cfg.EmbeddingWidth, cfg.Metric)
		if err := loadVectors(ctx, store.ChunkStore(), index, cfg.EmbeddingWidth); err != nil {
			return nil, fmt.Errorf("rebuilding in-memory vector index: %w", err)
		}
		return index, nil
	case domain.VectorBackendPgvector:
		index, err := pgvector.New(ctx, storage.PostgresDSN, cfg.EmbeddingWidth, cfg.Metric)
		if err != nil {
			return nil, fmt.Errorf("opening pgvector index: %w", err)
		}
		return index, nil
	default:
		return store.VectorIndex(cfg.EmbeddingWidth, cfg.Metric), nil
	}
}
