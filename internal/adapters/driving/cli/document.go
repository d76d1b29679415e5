package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc"},
	Short:   "Manage documents",
	Long:    `Create, view, annotate, or delete documents in the graph.`,
}

var documentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a document without chunks",
	Long: `Creates a document node from already extracted text. Use 'docgraph ingest'
to also chunk and embed the text.`,
	Args: cobra.NoArgs,
	RunE: runDocumentCreate,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentListCmd = &cobra.Command{
	Use:   "list [ingestion-id]",
	Short: "List documents produced by an ingestion request",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "List a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentSummaryCmd = &cobra.Command{
	Use:   "summary [doc-id] [summary]",
	Short: "Attach a summary to a document",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentSummary,
}

var documentMetadataCmd = &cobra.Command{
	Use:   "metadata [doc-id] [key=value...]",
	Short: "Replace a document's metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDocumentMetadata,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long: `Deletes a document. Without --cascade the delete fails while chunks or
relations reference it.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentDelete,
}

// Flags for document commands.
var (
	docTitle     string
	docType      string
	docText      string
	docFile      string
	docIngestion string
	docID        string
	docMeta      string
	docCascade   bool
)

func init() {
	documentCreateCmd.Flags().StringVarP(&docTitle, "title", "t", "", "document title (required)")
	documentCreateCmd.Flags().StringVar(&docType, "type", string(domain.DocumentTypeText), "document type: text, pdf or image")
	documentCreateCmd.Flags().StringVar(&docText, "text", "", "extracted text")
	documentCreateCmd.Flags().StringVarP(&docFile, "file", "f", "", "read extracted text from file")
	documentCreateCmd.Flags().StringVar(&docIngestion, "ingestion", "", "ingestion request ID (default: generated)")
	documentCreateCmd.Flags().StringVar(&docID, "id", "", "document ID (default: generated)")
	documentCreateCmd.Flags().StringVar(&docMeta, "meta", "", "metadata as key=value pairs separated by commas")

	documentDeleteCmd.Flags().BoolVar(&docCascade, "cascade", false, "also delete chunks, vectors and relations")

	documentCmd.AddCommand(documentCreateCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentSummaryCmd)
	documentCmd.AddCommand(documentMetadataCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentCreate(cmd *cobra.Command, _ []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	text := docText
	if docFile != "" {
		data, err := os.ReadFile(docFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", docFile, err)
		}
		text = string(data)
	}

	metadata, err := parseMetadata(splitPairs(docMeta))
	if err != nil {
		return err
	}

	doc, err := graphService.CreateDocument(context.Background(), driving.CreateDocumentRequest{
		ID:          docID,
		Title:       docTitle,
		Text:        text,
		Type:        domain.DocumentType(docType),
		Metadata:    metadata,
		IngestionID: ingestionOrNew(docIngestion),
	})
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	cmd.Printf("Created document %s (ingestion %s)\n", doc.ID, doc.IngestionID)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	ctx := context.Background()
	doc, err := graphService.GetDocument(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  Type:      %s\n", doc.Type)
	if doc.IngestionID != "" {
		cmd.Printf("  Ingestion: %s\n", doc.IngestionID)
	}
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if chunkService != nil {
		chunks, err := chunkService.ChunksByDocument(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to list chunks: %w", err)
		}
		cmd.Printf("  Chunks:    %d\n", len(chunks))
	}

	if doc.HasSummary() {
		cmd.Printf("  Summary:   %s\n", doc.Summary)
	}

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for _, k := range sortedKeys(doc.Metadata) {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}

	return nil
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	ingestionID := args[0]
	docs, err := graphService.ListByIngestion(context.Background(), ingestionID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for ingestion: %s\n", ingestionID)
		return nil
	}

	cmd.Printf("Documents for ingestion %s:\n\n", ingestionID)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title: %s\n", docs[i].Title)
		cmd.Printf("    Type:  %s\n", docs[i].Type)
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if chunkService == nil {
		return errNotConfigured("chunk")
	}

	chunks, err := chunkService.ChunksByDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list chunks: %w", err)
	}

	if len(chunks) == 0 {
		cmd.Printf("No chunks for document: %s\n", args[0])
		return nil
	}

	for i := range chunks {
		c := &chunks[i]
		cmd.Printf("  [%d] %s (%s, %s)\n", c.Index, c.ID, c.Strategy, c.Provider)
		cmd.Printf("      %s\n", preview(c.Text, 80))
	}
	cmd.Printf("\nTotal: %d chunks\n", len(chunks))
	return nil
}

func runDocumentSummary(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	if err := graphService.AttachSummary(context.Background(), args[0], args[1], nil); err != nil {
		return fmt.Errorf("failed to attach summary: %w", err)
	}

	cmd.Printf("Summary attached to %s.\n", args[0])
	return nil
}

func runDocumentMetadata(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	metadata, err := parseMetadata(args[1:])
	if err != nil {
		return err
	}

	if err := graphService.UpdateMetadata(context.Background(), args[0], metadata); err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}

	cmd.Printf("Metadata of %s updated (%d keys).\n", args[0], len(metadata))
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if graphService == nil {
		return errNotConfigured("graph")
	}

	if err := graphService.DeleteDocument(context.Background(), args[0], docCascade); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

// ingestionOrNew returns id, or a fresh ingestion ID when none was given.
func ingestionOrNew(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// splitPairs splits a comma-separated flag value, dropping empty parts.
func splitPairs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseMetadata converts key=value pairs into a metadata map.
func parseMetadata(pairs []string) (map[string]any, error) {
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: metadata %q must be key=value", domain.ErrInvalidInput, pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// preview returns the first n runes of s on one line.
func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
