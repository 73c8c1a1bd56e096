package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set by ldflags at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "portal",
	Short:   "AI tool usage governance portal",
	Long:    "Decision engine for AI tool usage declarations: adversarial screening, risk-oracle assessment, compliance mapping and model-card audit records.",
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
