// Command taxlots is the CLI surface spec.md §6 describes: compute a
// tax-year realized-gain report from DEGIRO/IBKR exports under a
// configurable lot-selection policy, and validate the supporting
// strategy-map and split-table configuration files. Enrichment: the
// teacher (_examples/tugsousa-Rumoclaro/backend) has no CLI, it is a web
// backend; the Cobra/pflag command shape here is drawn from the other
// CLI-shaped repos in the retrieval pack.
package main

import (
	"os"

	"github.com/tugsousa/taxlots/internal/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.L.Error("command failed", "error", err)
		os.Exit(1)
	}
}
