package domain

import "fmt"

// BudgetUnit selects how plan size is measured.
type BudgetUnit string

// Budget units.
const (
	// BudgetUnitChunks counts selected chunks.
	BudgetUnitChunks BudgetUnit = "chunks"

	// BudgetUnitTokens sums estimated tokens of selected chunk texts.
	BudgetUnitTokens BudgetUnit = "tokens"
)

// IsValid returns true if the budget unit is recognised.
func (u BudgetUnit) IsValid() bool {
	return u == BudgetUnitChunks || u == BudgetUnitTokens
}

// Size returns the size of a chunk text in this unit.
func (u BudgetUnit) Size(text string) int {
	if u == BudgetUnitTokens {
		return EstimateTokens(text)
	}
	return 1
}

// Default configuration values.
const (
	DefaultEmbeddingWidth      = 768
	DefaultBudget              = 12
	DefaultCandidateCount      = 24
	DefaultPerDocumentChunkCap = 8
	DefaultExpansionFanout     = 3
	DefaultExpansionPenalty    = 1.0
	DefaultMaxTraversalDepth   = 3
	DefaultMaxNeighborsPerNode = 16
)

// DefaultEvidenceMaxDistance returns the evidence cutoff used when none is
// configured. The two values agree on unit-length embeddings, where an L2
// distance of 1 is a cosine distance of 0.5.
func DefaultEvidenceMaxDistance(m DistanceMetric) float64 {
	if m == MetricL2 {
		return 1.0
	}
	return 0.5
}

// RetrievalConfig is the explicit configuration threaded into the graph,
// chunk, planner and assembler services. Nothing in the core reads
// configuration from global state.
type RetrievalConfig struct {
	// EmbeddingWidth is the fixed vector width for chunks and summaries.
	EmbeddingWidth int

	// Budget is the maximum plan size B, measured in BudgetUnit.
	Budget int

	// BudgetUnit selects chunk count or token estimate.
	BudgetUnit BudgetUnit

	// CandidateCount is N, the number of nearest chunks fetched.
	// Raised to Budget when smaller so deduplication has slack.
	CandidateCount int

	// EvidenceMaxDistance drops candidates farther than this from the
	// evidence layer, leaving their documents to relation expansion.
	// Zero keeps every candidate.
	EvidenceMaxDistance float64

	// PerDocumentChunkCap bounds how many chunks one document contributes.
	PerDocumentChunkCap int

	// ExpansionFanout bounds how many evidence documents are expanded.
	ExpansionFanout int

	// ExpansionPenalty is added to the seed score per hop for expanded entries.
	ExpansionPenalty float64

	// MaxTraversalDepth caps any requested traversal depth.
	MaxTraversalDepth int

	// MaxNeighborsPerNode caps the edges followed from one document.
	MaxNeighborsPerNode int

	// Metric is the distance metric shared with the vector index.
	Metric DistanceMetric
}

// DefaultRetrievalConfig returns the default configuration.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		EmbeddingWidth:      DefaultEmbeddingWidth,
		Budget:              DefaultBudget,
		BudgetUnit:          BudgetUnitChunks,
		CandidateCount:      DefaultCandidateCount,
		EvidenceMaxDistance: DefaultEvidenceMaxDistance(MetricCosine),
		PerDocumentChunkCap: DefaultPerDocumentChunkCap,
		ExpansionFanout:     DefaultExpansionFanout,
		ExpansionPenalty:    DefaultExpansionPenalty,
		MaxTraversalDepth:   DefaultMaxTraversalDepth,
		MaxNeighborsPerNode: DefaultMaxNeighborsPerNode,
		Metric:              MetricCosine,
	}
}

// Validate checks every field is usable.
func (c RetrievalConfig) Validate() error {
	switch {
	case c.EmbeddingWidth <= 0:
		return fmt.Errorf("%w: embedding width must be positive", ErrInvalidInput)
	case c.Budget <= 0:
		return fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	case !c.BudgetUnit.IsValid():
		return fmt.Errorf("%w: unknown budget unit %q", ErrInvalidInput, string(c.BudgetUnit))
	case c.CandidateCount <= 0:
		return fmt.Errorf("%w: candidate count must be positive", ErrInvalidInput)
	case c.EvidenceMaxDistance < 0:
		return fmt.Errorf("%w: evidence max distance must not be negative", ErrInvalidInput)
	case c.PerDocumentChunkCap <= 0:
		return fmt.Errorf("%w: per-document chunk cap must be positive", ErrInvalidInput)
	case c.ExpansionFanout < 0:
		return fmt.Errorf("%w: expansion fan-out must not be negative", ErrInvalidInput)
	case c.ExpansionPenalty < 0:
		return fmt.Errorf("%w: expansion penalty must not be negative", ErrInvalidInput)
	case c.MaxTraversalDepth < 1:
		return fmt.Errorf("%w: max traversal depth must be at least 1", ErrInvalidInput)
	case c.MaxNeighborsPerNode <= 0:
		return fmt.Errorf("%w: max neighbours per node must be positive", ErrInvalidInput)
	case !c.Metric.IsValid():
		return fmt.Errorf("%w: unknown distance metric %q", ErrInvalidInput, string(c.Metric))
	}
	return nil
}

// IsEvidence reports whether a candidate at distance d counts as evidence.
func (c RetrievalConfig) IsEvidence(d float64) bool {
	return c.EvidenceMaxDistance == 0 || d <= c.EvidenceMaxDistance
}

// Candidates returns the effective candidate count for a plan of the
// given budget, never below the budget when it is counted in chunks.
func (c RetrievalConfig) Candidates(budget int) int {
	if c.BudgetUnit == BudgetUnitChunks && c.CandidateCount < budget {
		return budget
	}
	return c.CandidateCount
}

// CheckWidth returns ErrDimensionMismatch if v is not EmbeddingWidth wide.
func (c RetrievalConfig) CheckWidth(v []float32) error {
	if len(v) != c.EmbeddingWidth {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), c.EmbeddingWidth)
	}
	return nil
}
