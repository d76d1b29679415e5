package domain

import "fmt"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	return p == AIProviderOllama || p == AIProviderOpenAI
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string

	// APIKey is resolved from APIKeyEnv at load time. Never persisted.
	APIKey string

	// TimeoutSecs is the per-request timeout. Zero uses the provider default.
	TimeoutSecs int

	// RequestsPerSecond and Burst shape the request limiter.
	RequestsPerSecond float64
	Burst             int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the VectorIndex implementation.
type VectorBackend string

// Vector index backends.
const (
	// VectorBackendSQLite scans vectors stored beside the chunks.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendMemory keeps vectors in process; they are lost on exit.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendPgvector stores vectors in PostgreSQL with pgvector.
	VectorBackendPgvector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendSQLite, VectorBackendMemory, VectorBackendPgvector:
		return true
	default:
		return false
	}
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty uses ~/.docgraph/data.
	DataDir string

	// VectorIndex selects the vector backend.
	VectorIndex VectorBackend

	// PostgresDSN is required when VectorIndex is pgvector.
	PostgresDSN string
}

// Default chunking values.
const (
	DefaultChunkStrategy = "fixed_size"
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
)

// ChunkingSettings selects and configures the splitter used at ingestion.
type ChunkingSettings struct {
	// Strategy names a registered splitter.
	Strategy string

	// ChunkSize and Overlap are measured in characters.
	ChunkSize int
	Overlap   int
}

// Config returns the settings as generic splitter config.
func (c ChunkingSettings) Config() map[string]any {
	return map[string]any{
		"chunk_size": c.ChunkSize,
		"overlap":    c.Overlap,
	}
}

// Validate checks the chunk geometry.
func (c ChunkingSettings) Validate() error {
	switch {
	case c.Strategy == "":
		return fmt.Errorf("%w: chunking strategy is required", ErrInvalidInput)
	case c.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidInput)
	case c.Overlap < 0 || c.Overlap >= c.ChunkSize:
		return fmt.Errorf("%w: overlap must be in [0, %d)", ErrInvalidInput, c.ChunkSize)
	}
	return nil
}

// AppSettings holds all application settings.
type AppSettings struct {
	Retrieval RetrievalConfig
	Embedding EmbeddingSettings
	Chunking  ChunkingSettings
	Storage   StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Retrieval: DefaultRetrievalConfig(),
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		Chunking: ChunkingSettings{
			Strategy:  DefaultChunkStrategy,
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Storage: StorageSettings{
			VectorIndex: VectorBackendSQLite,
		},
	}
}

// Validate checks the settings can be used to build the services.
func (s AppSettings) Validate() error {
	if err := s.Retrieval.Validate(); err != nil {
		return err
	}
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return fmt.Errorf("%w: unknown embedding provider %q", ErrInvalidInput, string(s.Embedding.Provider))
	}
	if err := s.Chunking.Validate(); err != nil {
		return err
	}
	if !s.Storage.VectorIndex.IsValid() {
		return fmt.Errorf("%w: unknown vector index %q", ErrInvalidInput, string(s.Storage.VectorIndex))
	}
	if s.Storage.VectorIndex == VectorBackendPgvector && s.Storage.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres_dsn is required for the pgvector index", ErrInvalidInput)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector width of known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"all-minilm":             384,
		"mxbai-embed-large":      1024,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
