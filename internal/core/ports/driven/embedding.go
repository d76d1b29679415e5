package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Different providers may produce incompatible vector spaces, so the
// provider tag is stored alongside every chunk it embeds.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Backend failures wrap domain.ErrProvider.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 768, 1536).
	// This must match the configured embedding width.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Provider returns the provider tag stored with produced vectors.
	Provider() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
