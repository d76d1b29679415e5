package normalisers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/normalisers/html"
	"github.com/custodia-labs/docgraph/internal/normalisers/markdown"
	"github.com/custodia-labs/docgraph/internal/normalisers/plaintext"
)

// Registry maps file extensions and format names to normalisers.
type Registry struct {
	byExt    map[string]driven.Normaliser
	byFormat map[string]driven.Normaliser
	fallback driven.Normaliser
}

// NewRegistry creates an empty registry. fallback handles files whose
// extension is not registered and may be nil.
func NewRegistry(fallback driven.Normaliser) *Registry {
	r := &Registry{
		byExt:    make(map[string]driven.Normaliser),
		byFormat: make(map[string]driven.Normaliser),
		fallback: fallback,
	}
	if fallback != nil {
		r.Register(fallback)
	}
	return r
}

// NewDefaultRegistry returns a registry with the built-in normalisers.
// Unknown extensions are treated as plain text.
func NewDefaultRegistry() *Registry {
	r := NewRegistry(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	return r
}

// Register adds n under its format and every extension it handles.
// A later registration replaces an earlier one for the same key.
func (r *Registry) Register(n driven.Normaliser) {
	r.byFormat[n.Format()] = n
	for _, ext := range n.Extensions() {
		r.byExt[strings.ToLower(ext)] = n
	}
}

// ForFile returns the normaliser for path's extension, or the fallback.
func (r *Registry) ForFile(path string) (driven.Normaliser, bool) {
	if n, ok := r.byExt[strings.ToLower(filepath.Ext(path))]; ok {
		return n, true
	}
	return r.fallback, r.fallback != nil
}

// ForFormat returns the normaliser registered under format.
func (r *Registry) ForFormat(format string) (driven.Normaliser, error) {
	n, ok := r.byFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: unknown input format %q (known: %s)",
			domain.ErrInvalidInput, format, strings.Join(r.Formats(), ", "))
	}
	return n, nil
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	formats := make([]string, 0, len(r.byFormat))
	for f := range r.byFormat {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
