// cmd/status.go
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the state of a job (default: the most recent one)",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var job *backlog.Job
	if len(args) == 1 {
		job, err = s.Load(args[0])
	} else {
		jobs, listErr := s.List()
		if listErr != nil {
			err = listErr
		} else if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return
		} else {
			job = jobs[0]
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Job %s", job.ID)
	if job.SiteName != "" {
		fmt.Printf(" (%s)", job.SiteName)
	}
	fmt.Printf("\n  Status:   %s\n", statusColor(job.Status))
	p := job.Progress
	fmt.Printf("  Progress: %d/%d completed, %d published, %d failed, %d retrying, %d pending\n",
		p.Completed, p.Total, p.Published, p.Failed, p.Retrying, p.Pending)
	fmt.Printf("  Updated:  %s\n", job.UpdatedAt.Local().Format("2006-01-02 15:04:05"))

	if job.CurrentItemID != "" {
		if item := job.Item(job.CurrentItemID); item != nil {
			fmt.Printf("  Working:  %q via %s\n", item.Topic, job.CurrentProvider)
		}
	}

	for provider, u := range job.ProviderUsage {
		fmt.Printf("  Provider %-12s %3d today", provider, u.RequestsToday)
		if u.CooldownUntil != nil {
			fmt.Printf("  (cooldown until %s)", u.CooldownUntil.Local().Format("15:04:05"))
		}
		fmt.Println()
	}

	if n := len(job.Errors); n > 0 {
		fmt.Printf("  Errors:   %d recorded, last: %s\n", n, job.Errors[n-1].Error)
	}
}

func statusColor(s backlog.JobStatus) string {
	switch s {
	case backlog.JobComplete:
		return color.GreenString(string(s))
	case backlog.JobFailed, backlog.JobCancelled:
		return color.RedString(string(s))
	case backlog.JobRunning:
		return color.CyanString(string(s))
	default:
		return color.YellowString(string(s))
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
