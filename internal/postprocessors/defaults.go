package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in splitters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(chunker.Strategy, buildChunker)
}

// NewSplitter builds the splitter described by the chunking settings
// from a registry holding the defaults.
func NewSplitter(settings domain.ChunkingSettings) (driven.Splitter, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.Build(settings.Strategy, settings.Config())
}

// buildChunker creates a fixed-size chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.Splitter, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if _, ok := cfg["overlap"]; ok {
			overlap := getIntFromConfig(cfg, "overlap")
			if overlap < 0 {
				return nil, fmt.Errorf("%w: overlap must not be negative", domain.ErrInvalidInput)
			}
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
