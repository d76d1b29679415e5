// Package cli provides the docgraph command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docgraph/internal/core/domain"
	"github.com/custodia-labs/docgraph/internal/core/ports/driving"
	"github.com/custodia-labs/docgraph/internal/logger"
)

// version is set at build time or by SetVersion.
var version = "dev"

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

// Global flags.
var (
	verbose    bool
	configPath string
	dataDir    string
)

// Services injected by the entrypoint.
var (
	graphService    driving.GraphService
	chunkService    driving.ChunkService
	retrievalPlan   driving.RetrievalPlanner
	contextAssemble driving.ContextAssembler
	ingestService   driving.IngestService
	settingsService driving.SettingsService
)

// Services bundles the driving ports the commands call.
type Services struct {
	Graph     driving.GraphService
	Chunk     driving.ChunkService
	Planner   driving.RetrievalPlanner
	Assembler driving.ContextAssembler
	Ingest    driving.IngestService
	Settings  driving.SettingsService
}

// Options carries the global flags to the bootstrap function.
type Options struct {
	ConfigPath string
	DataDir    string
	Verbose    bool
}

// Bootstrap builds the services once flags are parsed. The returned
// function releases them.
type Bootstrap func(opts Options) (Services, func(), error)

var (
	bootstrap Bootstrap
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "docgraph",
	Short: "Document graph retrieval for question answering",
	Long: `docgraph stores ingested documents as a typed graph, keeps their embedded
chunks, and builds budget-bounded retrieval plans and prompt context for
questions.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.docgraph/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (overrides storage.data_dir)")
}

// SetServices injects the services directly, bypassing bootstrap.
func SetServices(s Services) {
	graphService = s.Graph
	chunkService = s.Chunk
	retrievalPlan = s.Planner
	contextAssemble = s.Assembler
	ingestService = s.Ingest
	settingsService = s.Settings
}

// SetBootstrap registers the function that builds services after flag parsing.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases services afterwards.
func Execute() error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.Execute()
}

// ReportError writes err with its kind so scripts can branch on it.
func ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "Error [%s]: %v\n", domain.ErrorKind(err), err)
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if cmd.Annotations[skipBootstrap] != "" || bootstrap == nil {
		return nil
	}

	services, release, err := bootstrap(Options{
		ConfigPath: configPath,
		DataDir:    dataDir,
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}
	SetServices(services)
	cleanup = release
	return nil
}

// errNotConfigured is returned when a command's service was not injected.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
