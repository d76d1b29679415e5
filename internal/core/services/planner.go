package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// Ensure Planner implements the interface.
var _ driving.RetrievalPlanner = (*Planner)(nil)

// candidate is a document being considered for a plan.
// Chunks are held in selection order until the plan is emitted.
type candidate struct {
	documentID string
	title      string
	rule       domain.InclusionRule
	score      float64
	depth      int
	via        []domain.RelationHop
	chunks     []domain.Chunk
}

// Planner builds retrieval plans from the chunk vectors and the document graph.
type Planner struct {
	graph    driving.GraphService
	chunks   driving.ChunkService
	embedder driven.EmbeddingService
	cfg      domain.RetrievalConfig
}

// NewPlanner creates a new retrieval planner.
// The embedder parameter is optional (can be nil), in which case every
// plan fails with domain.ErrEmbeddingUnavailable.
func NewPlanner(
	graph driving.GraphService,
	chunks driving.ChunkService,
	embedder driven.EmbeddingService,
	cfg domain.RetrievalConfig,
) *Planner {
	return &Planner{
		graph:    graph,
		chunks:   chunks,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Plan builds the retrieval plan for one query. The steps run in order:
// embed, fetch candidates, rank evidence documents, expand through the
// graph, then fill the budget. A query with no candidates yields an
// empty plan. Any failure fails the whole plan.
func (p *Planner) Plan(ctx context.Context, req driving.PlanRequest) (*domain.RetrievalPlan, error) {
	logger.Section("Retrieval Plan")

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is blank", domain.ErrInvalidInput)
	}
	budget := req.Budget
	if budget == 0 {
		budget = p.cfg.Budget
	}
	if budget < 0 {
		return nil, fmt.Errorf("%w: budget must be positive", domain.ErrInvalidInput)
	}
	if req.Expansion.Depth < 0 {
		return nil, fmt.Errorf("%w: expansion depth must not be negative", domain.ErrInvalidInput)
	}
	if err := req.Expansion.Validate(p.cfg.MaxTraversalDepth); err != nil {
		return nil, err
	}

	plan := &domain.RetrievalPlan{
		Query:      query,
		Budget:     budget,
		BudgetUnit: p.cfg.BudgetUnit,
		Expansion:  normalisePolicy(req.Expansion),
		Entries:    []domain.PlanEntry{},
	}
	if plan.Expansion.Enabled() && p.cfg.ExpansionFanout == 0 {
		logger.Warn("Relation expansion requested but expansion fan-out is 0; planning without it")
		plan.Expansion = domain.ExpansionPolicy{}
	}
	logger.Debug("Query: %q, budget: %d %s", query, budget, p.cfg.BudgetUnit)

	vector, err := p.embedQuery(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, err
	}

	n := p.cfg.Candidates(budget)
	scored, err := p.chunks.NearestByVector(ctx, vector, nil, n)
	if err != nil {
		return nil, fmt.Errorf("candidate search: %w", err)
	}
	logger.Debug("Candidates: %d of %d requested", len(scored), n)

	evidence, err := p.rankEvidence(ctx, scored)
	if err != nil {
		return nil, err
	}
	if len(evidence) == 0 {
		logger.Info("No evidence found for query")
		return plan, nil
	}

	expanded, err := p.expand(ctx, evidence, plan.Expansion)
	if err != nil {
		return nil, err
	}

	ranked := make([]candidate, 0, len(evidence)+len(expanded))
	ranked = append(ranked, evidence...)
	ranked = append(ranked, expanded...)
	sortCandidates(ranked)

	p.fill(plan, ranked)
	logger.Info("Plan: %d entries, size %d/%d", len(plan.Entries), plan.Size, plan.Budget)
	return plan, nil
}

func (p *Planner) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding service configured", domain.ErrEmbeddingUnavailable)
	}
	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if err := p.cfg.CheckWidth(vector); err != nil {
		return nil, fmt.Errorf("query embedding from %s: %w", p.embedder.Provider(), err)
	}
	return vector, nil
}

// rankEvidence groups candidates by document and scores each document by
// its closest chunk.
func (p *Planner) rankEvidence(ctx context.Context, scored []domain.ScoredChunk) ([]candidate, error) {
	byDoc := make(map[string][]domain.ScoredChunk)
	for _, sc := range scored {
		if !p.cfg.IsEvidence(sc.Distance) {
			continue
		}
		byDoc[sc.Chunk.DocumentID] = append(byDoc[sc.Chunk.DocumentID], sc)
	}

	ids := make([]string, 0, len(byDoc))
	for id := range byDoc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	evidence := make([]candidate, 0, len(ids))
	for _, id := range ids {
		doc, err := p.graph.GetDocument(ctx, id)
		if isNotFound(err) {
			logger.Debug("Skipping candidate document %s: deleted", id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load evidence document %s: %w", id, err)
		}

		hits := byDoc[id]
		sort.Slice(hits, func(i, j int) bool {
			if hits[i].Distance != hits[j].Distance {
				return hits[i].Distance < hits[j].Distance
			}
			return hits[i].Chunk.Index < hits[j].Chunk.Index
		})
		if len(hits) > p.cfg.PerDocumentChunkCap {
			hits = hits[:p.cfg.PerDocumentChunkCap]
		}

		chunks := make([]domain.Chunk, len(hits))
		for i, h := range hits {
			chunks[i] = h.Chunk
		}
		evidence = append(evidence, candidate{
			documentID: id,
			title:      doc.Title,
			rule:       domain.RuleDirectEvidence,
			score:      hits[0].Distance,
			chunks:     chunks,
		})
	}
	sortCandidates(evidence)
	logger.Debug("Evidence documents: %d", len(evidence))
	return evidence, nil
}

// expand follows relations from the best evidence documents. A document
// reached from several seeds keeps its lowest score.
func (p *Planner) expand(ctx context.Context, evidence []candidate, policy domain.ExpansionPolicy) ([]candidate, error) {
	if !policy.Enabled() {
		return nil, nil
	}

	seen := make(map[string]bool, len(evidence))
	for _, c := range evidence {
		seen[c.documentID] = true
	}

	seeds := evidence
	if len(seeds) > p.cfg.ExpansionFanout {
		seeds = seeds[:p.cfg.ExpansionFanout]
	}

	reached := make(map[string]*candidate)
	for _, seed := range seeds {
		neighbors, err := p.graph.Neighbors(ctx, seed.documentID, policy.Traversal())
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("expand %s: %w", seed.documentID, err)
		}
		for _, n := range neighbors {
			id := n.Document.ID
			if seen[id] {
				continue
			}
			score := seed.score + p.cfg.ExpansionPenalty*float64(n.Depth)
			if prev, ok := reached[id]; ok && prev.score <= score {
				continue
			}
			reached[id] = &candidate{
				documentID: id,
				title:      n.Document.Title,
				rule:       domain.RuleRelationExpanded,
				score:      score,
				depth:      n.Depth,
				via:        n.Path,
			}
		}
	}

	expanded := make([]candidate, 0, len(reached))
	for _, c := range reached {
		chunks, err := p.chunks.ChunksByDocument(ctx, c.documentID)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load chunks of %s: %w", c.documentID, err)
		}
		if len(chunks) == 0 {
			logger.Debug("Skipping expanded document %s: no chunks", c.documentID)
			continue
		}
		if len(chunks) > p.cfg.PerDocumentChunkCap {
			chunks = chunks[:p.cfg.PerDocumentChunkCap]
		}
		c.chunks = chunks
		expanded = append(expanded, *c)
	}
	sortCandidates(expanded)
	logger.Debug("Expanded documents: %d", len(expanded))
	return expanded, nil
}

// fill takes candidates in rank order until the budget is spent. The first
// candidate that does not fit whole contributes the prefix of its chunks
// that does, and filling stops there.
func (p *Planner) fill(plan *domain.RetrievalPlan, ranked []candidate) {
	remaining := plan.Budget
	for _, c := range ranked {
		sizes := make([]int, len(c.chunks))
		total := 0
		for i, ch := range c.chunks {
			sizes[i] = plan.BudgetUnit.Size(ch.Text)
			total += sizes[i]
		}

		take := len(c.chunks)
		if total > remaining {
			used := 0
			take = 0
			for take < len(c.chunks) && used+sizes[take] <= remaining {
				used += sizes[take]
				take++
			}
		}

		if take > 0 {
			entry := toEntry(c, c.chunks[:take], sizes[:take])
			entry.Truncated = take < len(c.chunks)
			plan.Entries = append(plan.Entries, entry)
			plan.Size += entry.Size()
			remaining -= entry.Size()
		}
		if take < len(c.chunks) {
			logger.Debug("Budget exhausted at %s (%d of %d chunks)", c.documentID, take, len(c.chunks))
			return
		}
	}
}

func toEntry(c candidate, chunks []domain.Chunk, sizes []int) domain.PlanEntry {
	planned := make([]domain.PlannedChunk, len(chunks))
	for i, ch := range chunks {
		planned[i] = domain.PlannedChunk{ID: ch.ID, Index: ch.Index, Text: ch.Text, Size: sizes[i]}
	}
	sort.Slice(planned, func(i, j int) bool { return planned[i].Index < planned[j].Index })

	return domain.PlanEntry{
		DocumentID: c.documentID,
		Title:      c.title,
		Rule:       c.rule,
		Score:      c.score,
		Depth:      c.depth,
		Via:        c.via,
		Chunks:     planned,
	}
}

// sortCandidates orders by rule rank, then score, then document ID.
func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if ri, rj := cs[i].rule.Rank(), cs[j].rule.Rank(); ri != rj {
			return ri < rj
		}
		if cs[i].score != cs[j].score {
			return cs[i].score < cs[j].score
		}
		return cs[i].documentID < cs[j].documentID
	})
}

func normalisePolicy(p domain.ExpansionPolicy) domain.ExpansionPolicy {
	if !p.Enabled() {
		return domain.ExpansionPolicy{}
	}
	out := domain.ExpansionPolicy{
		Direction: p.Direction,
		Depth:     p.Depth,
	}
	if out.Direction == "" {
		out.Direction = domain.DirectionOutgoing
	}
	if len(p.RelationTypes) > 0 {
		out.RelationTypes = append([]domain.RelationType(nil), p.RelationTypes...)
		sort.Slice(out.RelationTypes, func(i, j int) bool { return out.RelationTypes[i] < out.RelationTypes[j] })
	}
	return out
}
