// Package plaintext provides the fallback Normaliser for plain text files.
package plaintext

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Format is the format tag recorded for plain text input.
const Format = "text"

const byteOrderMark = "\ufeff"

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Format returns the format tag.
func (n *Normaliser) Format() string {
	return Format
}

// Extensions returns the file extensions this normaliser handles.
func (n *Normaliser) Extensions() []string {
	return []string{".txt", ".text", ".log", ".csv", ".rst"}
}

// Normalise keeps the text as written apart from a leading byte order
// mark and CRLF line endings. Content that is not UTF-8 is rejected.
func (n *Normaliser) Normalise(name string, content []byte) (*domain.NormalisedText, error) {
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", domain.ErrInvalidInput, filepath.Base(name))
	}

	text := strings.TrimPrefix(string(content), byteOrderMark)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	return &domain.NormalisedText{
		Title:  extractTitle(name),
		Text:   text,
		Format: Format,
	}, nil
}

// extractTitle extracts a human-readable title from a file name.
func extractTitle(name string) string {
	filename := filepath.Base(name)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))

	// Replace underscores and dashes with spaces
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")

	return filename
}
