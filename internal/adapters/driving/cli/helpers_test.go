package cli

import (
	"bytes"
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/services"
	"github.com/custodia-labs/docgraph/internal/postprocessors/chunker"
)

// stubEmbedder maps texts mentioning postgres to one axis and
// everything else to the other.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "postgres") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (stubEmbedder) Dimensions() int              { return 2 }
func (stubEmbedder) ModelName() string            { return "stub" }
func (stubEmbedder) Provider() string             { return "stub" }
func (stubEmbedder) Ping(_ context.Context) error { return nil }
func (stubEmbedder) Close() error                 { return nil }

// testConfig keeps distant chunks out of the evidence layer so relation
// expansion is observable.
func testConfig() domain.RetrievalConfig {
	cfg := domain.DefaultRetrievalConfig()
	cfg.EmbeddingWidth = 2
	cfg.Budget = 4
	cfg.EvidenceMaxDistance = 0.5
	return cfg
}

// setupTestServices wires real services over the in-memory store.
func setupTestServices() func() {
	cfg := testConfig()
	store := memory.NewStore()
	index := memory.NewVectorIndex(cfg.EmbeddingWidth, cfg.Metric)

	graph := services.NewGraphService(store, index, cfg)
	chunks := services.NewChunkService(store, store, index, cfg)
	embedder := stubEmbedder{}
	settings := services.NewSettingsService(memory.NewConfigStore())
	settings.SetEnvLookup(func(string) string { return "" })

	SetServices(Services{
		Graph:     graph,
		Chunk:     chunks,
		Planner:   services.NewPlanner(graph, chunks, embedder, cfg),
		Assembler: services.NewAssembler(cfg),
		Ingest:    services.NewIngestService(graph, chunks, chunker.New(), embedder),
		Settings:  settings,
	})

	return func() {
		SetServices(Services{})
	}
}

// resetFlags restores every flag to its default between executions.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and returns its output.
func execute(args ...string) (string, error) {
	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// mustExecute runs a setup command and panics on failure.
func mustExecute(args ...string) string {
	out, err := execute(args...)
	if err != nil {
		panic(strings.Join(args, " ") + ": " + err.Error())
	}
	return out
}
