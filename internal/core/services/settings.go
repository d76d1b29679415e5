package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// DefaultAPIKeyEnv is read when no api_key_env is configured.
//
//nolint:gosec // G101: environment variable name, not a credential.
const DefaultAPIKeyEnv = "OPENAI_API_KEY"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbeddingWidth      = "retrieval.embedding_width"
	keyBudget              = "retrieval.budget"
	keyBudgetUnit          = "retrieval.budget_unit"
	keyCandidateCount      = "retrieval.candidate_count"
	keyEvidenceMaxDistance = "retrieval.evidence_max_distance"
	keyChunkCap            = "retrieval.per_document_chunk_cap"
	keyExpansionFanout     = "retrieval.expansion_fanout"
	keyExpansionPenalty    = "retrieval.expansion_penalty"
	keyMaxTraversalDepth   = "retrieval.max_traversal_depth"
	keyMaxNeighbors        = "retrieval.max_neighbors_per_node"
	keyMetric              = "retrieval.metric"

	keyEmbedProvider  = "embedding.provider"
	keyEmbedModel     = "embedding.model"
	keyEmbedBaseURL   = "embedding.base_url"
	keyEmbedAPIKeyEnv = "embedding.api_key_env"
	keyEmbedTimeout   = "embedding.timeout_secs"
	keyEmbedRPS       = "embedding.requests_per_second"
	keyEmbedBurst     = "embedding.burst"

	keyChunkStrategy = "chunking.strategy"
	keyChunkSize     = "chunking.chunk_size"
	keyChunkOverlap  = "chunking.overlap"

	keyDataDir     = "storage.data_dir"
	keyVectorIndex = "storage.vector_index"
	keyPostgresDSN = "storage.postgres_dsn"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup used to resolve API keys.
func (s *SettingsService) SetEnvLookup(getenv func(string) string) {
	s.getenv = getenv
}

// ConfigPath returns the configuration file location.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

// Get retrieves current settings. Missing keys take their defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()
	r := defaults.Retrieval
	metric := domain.DistanceMetric(s.getString(keyMetric, string(r.Metric)))

	settings := &domain.AppSettings{
		Retrieval: domain.RetrievalConfig{
			EmbeddingWidth:      s.getInt(keyEmbeddingWidth, r.EmbeddingWidth),
			Budget:              s.getInt(keyBudget, r.Budget),
			BudgetUnit:          domain.BudgetUnit(s.getString(keyBudgetUnit, string(r.BudgetUnit))),
			CandidateCount:      s.getInt(keyCandidateCount, r.CandidateCount),
			EvidenceMaxDistance: s.getFloat(keyEvidenceMaxDistance, domain.DefaultEvidenceMaxDistance(metric)),
			PerDocumentChunkCap: s.getInt(keyChunkCap, r.PerDocumentChunkCap),
			ExpansionFanout:     s.getInt(keyExpansionFanout, r.ExpansionFanout),
			ExpansionPenalty:    s.getFloat(keyExpansionPenalty, r.ExpansionPenalty),
			MaxTraversalDepth:   s.getInt(keyMaxTraversalDepth, r.MaxTraversalDepth),
			MaxNeighborsPerNode: s.getInt(keyMaxNeighbors, r.MaxNeighborsPerNode),
			Metric:              metric,
		},
		Embedding: domain.EmbeddingSettings{
			Provider:          domain.AIProvider(s.getString(keyEmbedProvider, string(defaults.Embedding.Provider))),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKeyEnv:         s.configStore.GetString(keyEmbedAPIKeyEnv),
			TimeoutSecs:       s.configStore.GetInt(keyEmbedTimeout),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			Burst:             s.configStore.GetInt(keyEmbedBurst),
		},
		Chunking: domain.ChunkingSettings{
			Strategy:  s.getString(keyChunkStrategy, defaults.Chunking.Strategy),
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Storage: domain.StorageSettings{
			DataDir:     s.configStore.GetString(keyDataDir),
			VectorIndex: domain.VectorBackend(s.getString(keyVectorIndex, string(defaults.Storage.VectorIndex))),
			PostgresDSN: s.configStore.GetString(keyPostgresDSN),
		},
	}

	emb := &settings.Embedding
	emb.Model = s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[emb.Provider])
	if emb.Provider.RequiresAPIKey() {
		if emb.APIKeyEnv == "" {
			emb.APIKeyEnv = DefaultAPIKeyEnv
		}
		emb.APIKey = s.getenv(emb.APIKeyEnv)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", s.configStore.Path(), err)
	}
	return settings, nil
}

// Save validates and persists settings. The resolved API key is not written.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	r := settings.Retrieval
	values := []struct {
		key   string
		value any
	}{
		{keyEmbeddingWidth, r.EmbeddingWidth},
		{keyBudget, r.Budget},
		{keyBudgetUnit, string(r.BudgetUnit)},
		{keyCandidateCount, r.CandidateCount},
		{keyEvidenceMaxDistance, r.EvidenceMaxDistance},
		{keyChunkCap, r.PerDocumentChunkCap},
		{keyExpansionFanout, r.ExpansionFanout},
		{keyExpansionPenalty, r.ExpansionPenalty},
		{keyMaxTraversalDepth, r.MaxTraversalDepth},
		{keyMaxNeighbors, r.MaxNeighborsPerNode},
		{keyMetric, string(r.Metric)},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedAPIKeyEnv, settings.Embedding.APIKeyEnv},
		{keyEmbedTimeout, settings.Embedding.TimeoutSecs},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyChunkStrategy, settings.Chunking.Strategy},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyDataDir, settings.Storage.DataDir},
		{keyVectorIndex, string(settings.Storage.VectorIndex)},
		{keyPostgresDSN, settings.Storage.PostgresDSN},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

func (s *SettingsService) getString(key, defaultVal string) string {
	if val := s.configStore.GetString(key); val != "" {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}
