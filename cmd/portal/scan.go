package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xela07ax/ai-governance-portal/internal/adversarial"
	"github.com/xela07ax/ai-governance-portal/internal/policy"
)

var scanKeywordsPath string

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanKeywordsPath, "keywords", "", "Path to policy keywords YAML")
}

var scanCmd = &cobra.Command{
	Use:   "scan <text>",
	Short: "Run the adversarial scanner offline",
	Long:  "Checks free text against the attack-phrase policy without touching the database or the risk oracle.\nUseful for tuning keyword files before rollout.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	keywords := policy.Default()
	if scanKeywordsPath != "" {
		var err error
		keywords, err = policy.Load(scanKeywordsPath)
		if err != nil {
			return fmt.Errorf("policy keywords: %w", err)
		}
	}

	scanner := adversarial.NewScanner(keywords)
	analysis := scanner.Scan(strings.Join(args, " "))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}
