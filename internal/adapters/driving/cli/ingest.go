package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driven"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/normalisers"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Chunk, embed and store extracted text",
	Long: `Creates a document from already extracted text, splits it into chunks,
embeds them, and stores document and chunks together. Use "-" to read
the text from standard input.

Markdown and HTML markup is stripped before chunking. The input format
follows the file extension unless --format is given; standard input is
read as plain text.

Examples:
  docgraph ingest notes/decision.md --ingestion req-42
  curl -s https://wiki/adr-7 | docgraph ingest - --format html
  pdftotext report.pdf - | docgraph ingest - --title "Q3 report" --type pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

// Flags for the ingest command.
var (
	ingestTitle     string
	ingestType      string
	ingestIngestion string
	ingestID        string
	ingestMeta      string
	ingestFormat    string
)

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

var inputFormats = normalisers.NewDefaultRegistry()

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (default: file name)")
	ingestCmd.Flags().StringVar(&ingestType, "type", string(domain.DocumentTypeText), "document type: text, pdf or image")
	ingestCmd.Flags().StringVar(&ingestIngestion, "ingestion", "", "ingestion request ID (default: generated)")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (default: generated)")
	ingestCmd.Flags().StringVar(&ingestMeta, "meta", "", "metadata as key=value pairs separated by commas")
	ingestCmd.Flags().StringVar(&ingestFormat, "format", "",
		"input format: "+strings.Join(inputFormats.Formats(), ", ")+" (default: from file extension)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	data, name, err := readInput(args[0])
	if err != nil {
		return err
	}

	normaliser, err := pickNormaliser(args[0], ingestFormat)
	if err != nil {
		return err
	}
	normalised, err := normaliser.Normalise(name, data)
	if err != nil {
		return fmt.Errorf("failed to normalise %s: %w", name, err)
	}

	title := ingestTitle
	if title == "" {
		title = normalised.Title
	}

	metadata, err := parseMetadata(splitPairs(ingestMeta))
	if err != nil {
		return err
	}
	if _, ok := metadata["format"]; !ok {
		metadata["format"] = normalised.Format
	}

	result, err := ingestService.Ingest(context.Background(), driving.IngestRequest{
		Document: driving.CreateDocumentRequest{
			ID:          ingestID,
			Title:       title,
			Text:        normalised.Text,
			Type:        domain.DocumentType(ingestType),
			Metadata:    metadata,
			IngestionID: ingestionOrNew(ingestIngestion),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to ingest: %w", err)
	}

	cmd.Printf("Ingested document %s (%d chunks, ingestion %s)\n",
		result.Document.ID, len(result.Chunks), result.Document.IngestionID)
	return nil
}

// pickNormaliser resolves the normaliser for path. An explicit format
// wins; standard input without one is plain text.
func pickNormaliser(path, format string) (driven.Normaliser, error) {
	if format == "" && path == "-" {
		format = "text"
	}
	if format != "" {
		return inputFormats.ForFormat(format)
	}
	n, ok := inputFormats.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for %s", domain.ErrInvalidInput, filepath.Base(path))
	}
	return n, nil
}

// readInput returns the content of path and the file name it was read
// from. Standard input is named "stdin".
func readInput(path string) (data []byte, name string, err error) {
	if path == "-" {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return nil, "", errors.New("no input piped to standard input")
		}
		piped, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return piped, "stdin", nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, filepath.Base(path), nil
}
