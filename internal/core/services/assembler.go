package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// Ensure Assembler implements the interface.
var _ driving.ContextAssembler = (*Assembler)(nil)

// Assembler renders retrieval plans into prompt context.
type Assembler struct {
	cfg domain.RetrievalConfig
}

// NewAssembler creates a new context assembler bound to a budget.
func NewAssembler(cfg domain.RetrievalConfig) *Assembler {
	return &Assembler{cfg: cfg}
}

// Budget returns the configured context budget.
func (a *Assembler) Budget() int {
	return a.cfg.Budget
}

// Render concatenates each entry's chunk texts under a document header
// that carries the document ID, inclusion rule, relation chain and chunk
// indices. The size is recomputed from the chunk texts and checked
// against the assembler's own budget.
func (a *Assembler) Render(plan *domain.RetrievalPlan) (*domain.RenderedContext, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: plan is nil", domain.ErrInvalidInput)
	}
	if err := a.checkOrder(plan); err != nil {
		return nil, err
	}
	if err := a.checkBudget(plan); err != nil {
		logger.Fault("Plan for %q does not fit the context budget: %v", plan.Query, err)
		return nil, err
	}

	out := &domain.RenderedContext{
		Query:    plan.Query,
		Sections: make([]domain.ContextSection, 0, len(plan.Entries)),
	}

	var b strings.Builder
	for i := range plan.Entries {
		entry := &plan.Entries[i]
		section := renderSection(entry)
		out.Sections = append(out.Sections, section)
		out.Size += a.size(entry)

		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(section.Text)
	}
	out.Text = b.String()
	return out, nil
}

// checkOrder rejects plans with repeated documents or entries out of rule order.
func (a *Assembler) checkOrder(plan *domain.RetrievalPlan) error {
	seen := make(map[string]bool, len(plan.Entries))
	lastRank := 0
	for i := range plan.Entries {
		e := &plan.Entries[i]
		if seen[e.DocumentID] {
			return fmt.Errorf("%w: document %s appears twice in plan", domain.ErrInvalidInput, e.DocumentID)
		}
		seen[e.DocumentID] = true

		rank := e.Rule.Rank()
		if rank < lastRank {
			return fmt.Errorf("%w: entry %s (%s) ranked after a lower-priority entry",
				domain.ErrInvalidInput, e.DocumentID, e.Rule)
		}
		lastRank = rank
	}
	return nil
}

func (a *Assembler) checkBudget(plan *domain.RetrievalPlan) error {
	if plan.IsEmpty() {
		return nil
	}
	if plan.BudgetUnit != a.cfg.BudgetUnit {
		return fmt.Errorf("%w: plan measured in %s, context budget in %s",
			domain.ErrBudgetExceeded, plan.BudgetUnit, a.cfg.BudgetUnit)
	}
	total := 0
	for i := range plan.Entries {
		total += a.size(&plan.Entries[i])
	}
	if total > a.cfg.Budget {
		return fmt.Errorf("%w: plan size %d exceeds budget %d", domain.ErrBudgetExceeded, total, a.cfg.Budget)
	}
	return nil
}

// size measures an entry from its chunk texts rather than trusting the
// sizes recorded in the plan.
func (a *Assembler) size(e *domain.PlanEntry) int {
	total := 0
	for _, c := range e.Chunks {
		total += a.cfg.BudgetUnit.Size(c.Text)
	}
	return total
}

func renderSection(e *domain.PlanEntry) domain.ContextSection {
	indices := make([]int, len(e.Chunks))
	for i, c := range e.Chunks {
		indices[i] = c.Index
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[doc:%s] %s\n", e.DocumentID, e.Title)
	fmt.Fprintf(&b, "rule: %s score: %.4f\n", e.Rule, e.Score)
	if len(e.Via) > 0 {
		hops := make([]string, len(e.Via))
		for i, h := range e.Via {
			hops[i] = h.String()
		}
		fmt.Fprintf(&b, "via: %s\n", strings.Join(hops, " | "))
	}
	fmt.Fprintf(&b, "chunks: %s\n", joinInts(indices))
	for _, c := range e.Chunks {
		fmt.Fprintf(&b, "[chunk %d]\n%s\n", c.Index, c.Text)
	}

	return domain.ContextSection{
		DocumentID:   e.DocumentID,
		Title:        e.Title,
		Rule:         e.Rule,
		Via:          e.Via,
		ChunkIndices: indices,
		Text:         b.String(),
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ",")
}
