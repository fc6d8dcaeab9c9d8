// cmd/preflight.go
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/siteforge-ai/siteforge-cli/internal/config"
	"github.com/siteforge-ai/siteforge-cli/internal/preflight"
)

var preflightConfigPath string

var preflightCmd = &cobra.Command{
	Use:   "preflight",
	Short: "Validate a job configuration before spending provider quota",
	Long: `Runs the three one-shot readiness checks: config shape, provider
credentials, and destination repository reachability. A job should only be
started once all checks pass with zero errors.`,
	Run: runPreflight,
}

func runPreflight(cmd *cobra.Command, args []string) {
	fmt.Println("--- Pre-flight checks ---")

	cfg, err := config.Load(preflightConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	report := preflight.Run(cmd.Context(), cfg, repoChecker())

	printCheck(report.Config)
	printCheck(report.Providers)
	printCheck(report.Repo)

	fmt.Println()
	if report.Overall {
		color.Green("GO: %s", report.Summary)
		return
	}
	color.Red("NO-GO: %s", report.Summary)
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(preflightCmd)

	preflightCmd.Flags().StringVarP(&preflightConfigPath, "config", "c", "siteforge.yaml", "Path to the job configuration file")
}
