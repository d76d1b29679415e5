package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

var planCmd = &cobra.Command{
	Use:   "plan [query]",
	Short: "Build a retrieval plan for a question",
	Long: `Embeds the question, selects evidence documents by chunk similarity,
optionally expands through typed relations, and fills the size budget.
Each entry reports why it was included.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlan,
}

var contextCmd = &cobra.Command{
	Use:   "context [query]",
	Short: "Render prompt context for a question",
	Long: `Builds the retrieval plan for the question and renders it into bounded
prompt context with a provenance header per document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContext,
}

// Flags shared by plan and context.
var (
	retrieveBudget    int
	retrieveExpand    string
	retrieveDepth     int
	retrieveDirection string
	retrieveJSON      bool
)

func init() {
	for _, c := range []*cobra.Command{planCmd, contextCmd} {
		c.Flags().IntVarP(&retrieveBudget, "budget", "b", 0, "size budget (default from config)")
		c.Flags().StringVar(&retrieveExpand, "expand", "", "relation types to expand through, comma separated")
		c.Flags().IntVar(&retrieveDepth, "depth", 0, "relation expansion depth (0 disables expansion)")
		c.Flags().StringVar(&retrieveDirection, "direction", "", "expansion direction: outgoing, incoming or both")
		c.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
		rootCmd.AddCommand(c)
	}
}

func planRequest(args []string) driving.PlanRequest {
	depth := retrieveDepth
	// Naming relation types without a depth means one hop.
	if depth == 0 && retrieveExpand != "" {
		depth = 1
	}
	return driving.PlanRequest{
		Query:  strings.Join(args, " "),
		Budget: retrieveBudget,
		Expansion: domain.ExpansionPolicy{
			RelationTypes: parseRelationTypes(retrieveExpand),
			Direction:     domain.Direction(retrieveDirection),
			Depth:         depth,
		},
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	if retrievalPlan == nil {
		return errNotConfigured("retrieval")
	}

	plan, err := retrievalPlan.Plan(context.Background(), planRequest(args))
	if err != nil {
		return fmt.Errorf("failed to plan retrieval: %w", err)
	}

	if retrieveJSON {
		return outputJSON(cmd, plan)
	}
	return outputPlan(cmd, plan)
}

func runContext(cmd *cobra.Command, args []string) error {
	if retrievalPlan == nil {
		return errNotConfigured("retrieval")
	}
	if contextAssemble == nil {
		return errNotConfigured("context")
	}

	req := planRequest(args)
	if limit := contextAssemble.Budget(); req.Budget > limit {
		return fmt.Errorf("%w: budget %d exceeds the context budget %d", domain.ErrInvalidInput, req.Budget, limit)
	}

	plan, err := retrievalPlan.Plan(context.Background(), req)
	if err != nil {
		return fmt.Errorf("failed to plan retrieval: %w", err)
	}

	rendered, err := contextAssemble.Render(plan)
	if err != nil {
		return fmt.Errorf("failed to render context: %w", err)
	}

	if retrieveJSON {
		return outputJSON(cmd, rendered)
	}
	if len(rendered.Sections) == 0 {
		cmd.Printf("No evidence found for: %s\n", rendered.Query)
		return nil
	}
	cmd.Println(rendered.Text)
	return nil
}

func outputPlan(cmd *cobra.Command, plan *domain.RetrievalPlan) error {
	if plan.IsEmpty() {
		cmd.Printf("No evidence found for: %s\n", plan.Query)
		return nil
	}

	cmd.Printf("Plan for %q (%d/%d %s):\n\n", plan.Query, plan.Size, plan.Budget, plan.BudgetUnit)
	for i := range plan.Entries {
		e := &plan.Entries[i]
		cmd.Printf("%d. %s  %s\n", i+1, e.DocumentID, e.Title)
		cmd.Printf("   Rule:   %s (score %.4f)\n", e.Rule, e.Score)
		for _, h := range e.Via {
			cmd.Printf("   Via:    %s\n", h)
		}
		indices := make([]string, len(e.Chunks))
		for j, c := range e.Chunks {
			indices[j] = fmt.Sprint(c.Index)
		}
		truncated := ""
		if e.Truncated {
			truncated = " (truncated)"
		}
		cmd.Printf("   Chunks: %s%s\n", strings.Join(indices, ", "), truncated)
		cmd.Println()
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
