// cmd/run.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
	"github.com/siteforge-ai/siteforge-cli/internal/config"
	"github.com/siteforge-ai/siteforge-cli/internal/events"
	"github.com/siteforge-ai/siteforge-cli/internal/generate"
	"github.com/siteforge-ai/siteforge-cli/internal/preflight"
	"github.com/siteforge-ai/siteforge-cli/internal/publish"
	"github.com/siteforge-ai/siteforge-cli/internal/runner"
	"github.com/siteforge-ai/siteforge-cli/internal/scheduler"
	"github.com/siteforge-ai/siteforge-cli/internal/store"
)

var (
	runConfigPath    string
	runJobID         string
	runSkipPreflight bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a new content backlog job, or resume an existing one",
	Long: `Builds a job queue from the configuration's content plan and drives it to
completion: each item is generated through the first available provider,
gated for quality, and published to the destination repository.

With --job, resumes the given job instead of creating a new one. Without
--job, an active job left over from a previous run is resumed if present.`,
	Run: runRun,
}

func runRun(cmd *cobra.Command, args []string) {
	fmt.Println("--- 🚀 Starting Siteforge runner ---")

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	Debug("loaded config from %s (%d providers, %d pillars)", runConfigPath, len(cfg.Providers), len(cfg.Plan.Pillars))

	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !runSkipPreflight {
		report := preflight.Run(ctx, cfg, repoChecker())
		if !report.Overall {
			fmt.Fprintf(os.Stderr, "Error: pre-flight failed (%s); run 'siteforge preflight' for details\n", report.Summary)
			os.Exit(1)
		}
		fmt.Printf("   - ✅ Pre-flight passed (%s)\n", report.Summary)
	}

	job, err := resolveJob(s, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	Debug("driving job %s from store %s", job.ID, s.Dir())
	fmt.Printf("   - Job: %s (%d items)\n", job.ID, job.Progress.Total)

	var eventsPub *events.Publisher
	if cfg.EventsURL != "" {
		eventsPub, err = events.Connect(ctx, cfg.EventsURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "   - ⚠️ Events broker unavailable, continuing without: %v\n", err)
			eventsPub = nil
		} else {
			defer eventsPub.Close()
			fmt.Println("   - ✅ Connected to events broker")
		}
	}

	var publisher publish.Publisher
	if token := githubToken(); token != "" {
		publisher = publish.NewGitHubClient(token)
	} else {
		fmt.Println("   - ⚠️ No GitHub token; items will complete unpublished")
	}

	r := runner.New(runner.NewRegistry(), runner.Options{
		Store:       s,
		Scheduler:   scheduler.New(cfg.Credentials()),
		Generator:   generate.NewHTTPGenerator(cfg.Endpoints()),
		Publisher:   publisher,
		Events:      eventsPub,
		Site:        cfg.Site,
		Destination: cfg.Destination,
	})

	fmt.Println("   - ✅ Runner started. Press Ctrl-C to stop; the job stays resumable.")
	if err := r.Run(ctx, job.ID); err != nil {
		fmt.Fprintf(os.Stderr, "   - ❌ Job failed: %v\n", err)
		os.Exit(1)
	}

	final, err := s.Load(job.ID)
	if err == nil {
		fmt.Printf("--- 🛑 Runner stopped: job %s is %s (%d/%d completed, %d failed) ---\n",
			final.ID, final.Status, final.Progress.Completed, final.Progress.Total, final.Progress.Failed)
	}
}

// resolveJob picks the job to drive: an explicit --job id, otherwise the
// most recent active job, otherwise a fresh job built from the config plan.
func resolveJob(s *store.Store, cfg *config.Config) (*backlog.Job, error) {
	if runJobID != "" {
		return s.Load(runJobID)
	}
	if job, err := s.Active(); err == nil {
		fmt.Printf("   - Resuming active job %s\n", job.ID)
		return job, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	job := backlog.NewJob(cfg.Site.Name, cfg.BuildQueue())
	if err := s.Save(job); err != nil {
		return nil, err
	}
	return job, nil
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "siteforge.yaml", "Path to the job configuration file")
	runCmd.Flags().StringVar(&runJobID, "job", "", "Resume the job with this id instead of creating a new one")
	runCmd.Flags().BoolVar(&runSkipPreflight, "skip-preflight", false, "Start without running pre-flight checks")
}
