package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider(t *testing.T) {
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.False(t, AIProvider("anthropic").IsValid())

	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())

	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.False(t, EmbeddingSettings{}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOllama}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
}

func TestAppSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultAppSettings().Validate())

	tests := []struct {
		name   string
		mutate func(*AppSettings)
	}{
		{"bad retrieval", func(s *AppSettings) { s.Retrieval.Budget = 0 }},
		{"bad provider", func(s *AppSettings) { s.Embedding.Provider = "anthropic" }},
		{"bad backend", func(s *AppSettings) { s.Storage.VectorIndex = "faiss" }},
		{"no strategy", func(s *AppSettings) { s.Chunking.Strategy = "" }},
		{"zero chunk size", func(s *AppSettings) { s.Chunking.ChunkSize = 0 }},
		{"overlap too large", func(s *AppSettings) { s.Chunking.Overlap = s.Chunking.ChunkSize }},
		{"pgvector without dsn", func(s *AppSettings) { s.Storage.VectorIndex = VectorBackendPgvector }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidInput)
		})
	}
}

func TestChunkingSettings_Config(t *testing.T) {
	c := DefaultAppSettings().Chunking
	assert.Equal(t, "fixed_size", c.Strategy)
	assert.Equal(t, map[string]any{"chunk_size": 1000, "overlap": 200}, c.Config())
}

func TestEmbeddingDimensions(t *testing.T) {
	dims := EmbeddingDimensions()
	assert.Equal(t, 768, dims[DefaultEmbeddingModels()[AIProviderOllama]])
	assert.Equal(t, 1536, dims[DefaultEmbeddingModels()[AIProviderOpenAI]])
}
