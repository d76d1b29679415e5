package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	// Rejected before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a uniqueness violation, or a delete
	// blocked by existing references.
	ErrConflict = errors.New("conflict")

	// ErrDimensionMismatch indicates an embedding whose width differs
	// from the configured embedding width.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the query could not be embedded.
	// The planner fails the whole query rather than return empty context.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrProvider indicates the embedding backend itself failed.
	ErrProvider = errors.New("embedding provider error")

	// ErrVectorIndexUnavailable indicates the vector index failed or timed out.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrBudgetExceeded indicates a rendered plan exceeded its size budget.
	// This is a planner/assembler inconsistency and should never happen.
	ErrBudgetExceeded = errors.New("budget exceeded")
)

// Error kinds reported to callers.
const (
	KindValidation           = "validation"
	KindNotFound             = "not_found"
	KindConflict             = "conflict"
	KindDimensionMismatch    = "dimension_mismatch"
	KindEmbeddingUnavailable = "embedding_unavailable"
	KindProvider             = "provider"
	KindVectorIndex          = "vector_index_unavailable"
	KindBudgetExceeded       = "budget_exceeded"
	KindInternal             = "internal"
)

// ErrorKind maps an error to a stable kind string so failures can be
// reported distinctly from an empty result.
// Embedding failures are reported as embedding_unavailable even when a
// provider error is also in the chain.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmbeddingUnavailable):
		return KindEmbeddingUnavailable
	case errors.Is(err, ErrProvider):
		return KindProvider
	case errors.Is(err, ErrVectorIndexUnavailable):
		return KindVectorIndex
	case errors.Is(err, ErrDimensionMismatch):
		return KindDimensionMismatch
	case errors.Is(err, ErrBudgetExceeded):
		return KindBudgetExceeded
	case errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	default:
		return KindInternal
	}
}
