// cmd/serve.go
package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/siteforge-ai/siteforge-cli/internal/api"
	"github.com/siteforge-ai/siteforge-cli/internal/config"
)

var (
	serveAddr       string
	serveConfigPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard HTTP API over the job store",
	Long: `Exposes job listing, job detail, status transitions and the pre-flight
report as JSON endpoints for the dashboard UI. The API reads the same job
documents the runner persists.`,
	Run: runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var cfg *config.Config
	if serveConfigPath != "" {
		cfg, err = config.Load(serveConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "   - ⚠️ Config not loaded, /preflight will report it: %v\n", err)
		}
	}

	handler := api.NewHandler(s, cfg, repoChecker())
	fmt.Printf("--- 🚀 Dashboard API listening on %s (store: %s) ---\n", serveAddr, s.Dir())
	if err := http.ListenAndServe(serveAddr, api.Routes(handler)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", getEnvOrDefault("SITEFORGE_ADDR", ":8787"), "Listen address")
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "siteforge.yaml", "Job configuration served to /preflight")
}
