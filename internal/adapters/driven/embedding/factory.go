// Package embedding provides factory functions for creating embedding adapters.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docgraph/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/docgraph/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidate creates an embedding service and validates connectivity.
// width is the configured embedding width; zero uses the model's default.
// Returns nil when no provider is configured.
func CreateAndValidate(ctx context.Context, settings *domain.EmbeddingSettings, width int) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings, width)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingUnavailable, svc.Provider(), err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service named by settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, width int) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	dimensions := width
	if dimensions == 0 {
		dimensions = domain.EmbeddingDimensions()[settings.Model]
	}
	timeout := time.Duration(settings.TimeoutSecs) * time.Second

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Timeout:           timeout,
			Dimensions:        dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
			Burst:             settings.Burst,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err := openai.NewEmbeddingService(openai.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Timeout:    timeout,
			Dimensions: dimensions,
		})
		if err != nil {
			return nil, err
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrInvalidInput, settings.Provider)
	}
}
