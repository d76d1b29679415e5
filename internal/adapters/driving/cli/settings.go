package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure retrieval, embedding, and storage settings.

Settings are stored in the config file; API keys are read from the
environment variable named by embedding.api_key_env and never written.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure the embedding provider",
	RunE:  runSettingsEmbedding,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Configure retrieval planning",
	RunE:  runSettingsRetrieval,
}

var settingsChunkingCmd = &cobra.Command{
	Use:   "chunking",
	Short: "Configure how ingested text is split",
	RunE:  runSettingsChunking,
}

func init() {
	f := settingsEmbeddingCmd.Flags()
	f.String("provider", "", "embedding provider: ollama or openai")
	f.String("model", "", "embedding model (default depends on provider)")
	f.String("base-url", "", "API base URL")
	f.String("api-key-env", "", "environment variable holding the API key")
	f.Int("timeout", 0, "request timeout in seconds")

	r := settingsRetrievalCmd.Flags()
	r.Int("width", 0, "embedding width")
	r.Int("budget", 0, "default size budget")
	r.String("unit", "", "budget unit: chunks or tokens")
	r.Int("candidates", 0, "nearest chunks fetched per query")
	r.Float64("max-distance", 0, "evidence distance cutoff (0 disables)")
	r.Int("chunk-cap", 0, "chunks per document")
	r.String("metric", "", "distance metric: cosine or l2")

	c := settingsChunkingCmd.Flags()
	c.String("strategy", "", "chunking strategy")
	c.Int("size", 0, "characters per chunk")
	c.Int("overlap", 0, "characters shared by consecutive chunks")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	settingsCmd.AddCommand(settingsChunkingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Printf("Config: %s\n", settingsService.ConfigPath())
	cmd.Println()

	r := settings.Retrieval
	cmd.Println("[Retrieval]")
	cmd.Printf("  Embedding width:    %d\n", r.EmbeddingWidth)
	cmd.Printf("  Budget:             %d %s\n", r.Budget, r.BudgetUnit)
	cmd.Printf("  Candidates:         %d\n", r.CandidateCount)
	if r.EvidenceMaxDistance > 0 {
		cmd.Printf("  Evidence cutoff:    %.4f\n", r.EvidenceMaxDistance)
	} else {
		cmd.Printf("  Evidence cutoff:    off\n")
	}
	cmd.Printf("  Chunks per doc:     %d\n", r.PerDocumentChunkCap)
	cmd.Printf("  Expansion fanout:   %d (penalty %.2f/hop)\n", r.ExpansionFanout, r.ExpansionPenalty)
	cmd.Printf("  Max depth:          %d (%d neighbors/node)\n", r.MaxTraversalDepth, r.MaxNeighborsPerNode)
	cmd.Printf("  Metric:             %s\n", r.Metric)
	cmd.Println()

	e := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", e.Provider.Description())
	cmd.Printf("  Model: %s\n", e.Model)
	if e.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", e.BaseURL)
	}
	if e.Provider.RequiresAPIKey() {
		if e.APIKey != "" {
			cmd.Printf("  API Key: %s (from $%s)\n", maskAPIKey(e.APIKey), e.APIKeyEnv)
		} else {
			cmd.Printf("  API Key: (not set, export $%s)\n", e.APIKeyEnv)
		}
	}
	status := "configured"
	if !e.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	c := settings.Chunking
	cmd.Println("[Chunking]")
	cmd.Printf("  Strategy: %s (%d chars, %d overlap)\n", c.Strategy, c.ChunkSize, c.Overlap)
	cmd.Println()

	s := settings.Storage
	cmd.Println("[Storage]")
	if s.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", s.DataDir)
	}
	cmd.Printf("  Vector index: %s\n", s.VectorIndex)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	f := cmd.Flags()
	if f.Changed("provider") {
		v, _ := f.GetString("provider")
		provider := domain.AIProvider(v)
		if provider != settings.Embedding.Provider && !f.Changed("model") {
			settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
		}
		settings.Embedding.Provider = provider
	}
	if f.Changed("model") {
		settings.Embedding.Model, _ = f.GetString("model")
	}
	if f.Changed("base-url") {
		settings.Embedding.BaseURL, _ = f.GetString("base-url")
	}
	if f.Changed("api-key-env") {
		settings.Embedding.APIKeyEnv, _ = f.GetString("api-key-env")
	}
	if f.Changed("timeout") {
		settings.Embedding.TimeoutSecs, _ = f.GetInt("timeout")
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Embedding provider set to %s (%s).\n", settings.Embedding.Provider, settings.Embedding.Model)
	return nil
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	f := cmd.Flags()
	r := &settings.Retrieval
	if f.Changed("width") {
		r.EmbeddingWidth, _ = f.GetInt("width")
	}
	if f.Changed("budget") {
		r.Budget, _ = f.GetInt("budget")
	}
	if f.Changed("unit") {
		v, _ := f.GetString("unit")
		r.BudgetUnit = domain.BudgetUnit(v)
	}
	if f.Changed("candidates") {
		r.CandidateCount, _ = f.GetInt("candidates")
	}
	if f.Changed("max-distance") {
		r.EvidenceMaxDistance, _ = f.GetFloat64("max-distance")
	}
	if f.Changed("chunk-cap") {
		r.PerDocumentChunkCap, _ = f.GetInt("chunk-cap")
	}
	if f.Changed("metric") {
		v, _ := f.GetString("metric")
		// A cutoff still at the old metric's default follows the new metric.
		if !f.Changed("max-distance") && r.EvidenceMaxDistance == domain.DefaultEvidenceMaxDistance(r.Metric) {
			r.EvidenceMaxDistance = domain.DefaultEvidenceMaxDistance(domain.DistanceMetric(v))
		}
		r.Metric = domain.DistanceMetric(v)
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Println("Retrieval settings saved.")
	return nil
}

func runSettingsChunking(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	f := cmd.Flags()
	c := &settings.Chunking
	if f.Changed("strategy") {
		c.Strategy, _ = f.GetString("strategy")
	}
	if f.Changed("size") {
		c.ChunkSize, _ = f.GetInt("size")
	}
	if f.Changed("overlap") {
		c.Overlap, _ = f.GetInt("overlap")
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	cmd.Printf("Chunking set to %s (%d chars, %d overlap).\n", c.Strategy, c.ChunkSize, c.Overlap)
	return nil
}

// maskAPIKey masks an API key for display, showing only first and last 4 characters.
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
