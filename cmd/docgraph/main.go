// Command docgraph stores documents as a typed graph and builds
// budget-bounded retrieval context for questions.
package main

import (
	"os"

	"github.com/custodia-labs/docgraph/internal/adapters/driving/cli"
)

// version is set by the release build.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(1)
	}
}
