package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

var relateCmd = &cobra.Command{
	Use:   "relate [source-id] [target-id] [type]",
	Short: "Create a typed relation between two documents",
	Long: `Creates a directed relation from source to target. Well-known types are
explains, decision_for, supersedes and references; any lowercase
identifier is accepted.`,
	Args: cobra.ExactArgs(3),
	RunE: runRelate,
}

var unrelateCmd = &cobra.Command{
	Use:   "unrelate [relation-id]",
	Short: "Delete a relation",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnrelate,
}

var relationsCmd = &cobra.Command{
	Use:   "relations [doc-id]",
	Short: "List relations touching a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelations,
}

var neighborsCmd = &cobra.Command{
	Use:   "neighbors [doc-id]",
	Short: "Traverse relations from a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runNeighbors,
}

// Flags for relation commands.
var (
	relMeta            string
	relationsDirection string
	neighborsTypes     string
	neighborsDirection string
	neighborsDepth     int
)

func init() {
	relateCmd.Flags().StringVar(&relMeta, "meta", "", "metadata as key=value pairs separated by commas")

	relationsCmd.Flags().StringVarP(&relationsDirection, "direction", "d", string(domain.DirectionBoth),
		"outgoing, incoming or both")

	neighborsCmd.Flags().StringVar(&neighborsTypes, "types", "", "relation types to follow, comma separated (default all)")
	neighborsCmd.Flags().StringVarP(&neighborsDirection, "direction", "d", string(domain.DirectionOutgoing),
		"outgoing, incoming or both")
	neighborsCmd.Flags().IntVar(&neighborsDepth, "depth", 1, "maximum number of hops")

	rootCmd.AddCommand(relateCmd)
	rootCmd.AddCommand(unrelateCmd)
	rootCmd.AddCommand(relationsCmd)
	rootCmd.AddCommand(neighborsCmd)
}

func runRelate(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	metadata, err := parseMetadata(splitPairs(relMeta))
	if err != nil {
		return err
	}

	rel, err := graphService.CreateRelation(context.Background(), driving.CreateRelationRequest{
		SourceID: args[0],
		TargetID: args[1],
		Type:     domain.RelationType(args[2]),
		Metadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to create relation: %w", err)
	}

	cmd.Printf("Created relation %s: %s\n", rel.ID, hop(rel))
	return nil
}

func runUnrelate(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	if err := graphService.DeleteRelation(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete relation: %w", err)
	}

	cmd.Printf("Relation %s deleted.\n", args[0])
	return nil
}

func runRelations(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	rels, err := graphService.Relations(context.Background(), args[0], domain.Direction(relationsDirection))
	if err != nil {
		return fmt.Errorf("failed to list relations: %w", err)
	}

	if len(rels) == 0 {
		cmd.Printf("No %s relations for document: %s\n", relationsDirection, args[0])
		return nil
	}

	for i := range rels {
		cmd.Printf("  %s  %s\n", rels[i].ID, hop(&rels[i]))
	}
	cmd.Printf("\nTotal: %d relations\n", len(rels))
	return nil
}

func runNeighbors(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	neighbors, err := graphService.Neighbors(context.Background(), args[0], domain.TraversalOptions{
		Types:     parseRelationTypes(neighborsTypes),
		Direction: domain.Direction(neighborsDirection),
		MaxDepth:  neighborsDepth,
	})
	if err != nil {
		return fmt.Errorf("failed to traverse relations: %w", err)
	}

	if len(neighbors) == 0 {
		cmd.Printf("No neighbors within %d hops of %s\n", neighborsDepth, args[0])
		return nil
	}

	for i := range neighbors {
		n := &neighbors[i]
		cmd.Printf("  %s  %s (depth %d)\n", n.Document.ID, n.Document.Title, n.Depth)
		for _, h := range n.Path {
			cmd.Printf("      via %s\n", h)
		}
	}
	cmd.Printf("\nTotal: %d neighbors\n", len(neighbors))
	return nil
}

func hop(rel *domain.DocumentRelation) string {
	return domain.RelationHop{From: rel.SourceID, To: rel.TargetID, Type: rel.Type}.String()
}

// parseRelationTypes converts a comma-separated list into relation types.
func parseRelationTypes(s string) []domain.RelationType {
	parts := splitPairs(s)
	if len(parts) == 0 {
		return nil
	}
	types := make([]domain.RelationType, len(parts))
	for i, p := range parts {
		types[i] = domain.RelationType(p)
	}
	return types
}
