// cmd/jobs.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and manage stored jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all jobs, most recently updated first",
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		jobs, err := s.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return
		}
		fmt.Printf("%-36s  %-10s  %-22s  %s\n", "ID", "STATUS", "PROGRESS", "UPDATED")
		for _, job := range jobs {
			p := job.Progress
			fmt.Printf("%-36s  %-10s  %3d/%-3d done, %2d failed  %s\n",
				job.ID, job.Status, p.Completed, p.Total, p.Failed,
				job.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
	},
}

var jobsPauseCmd = &cobra.Command{
	Use:   "pause <job-id>",
	Short: "Pause a job; the runner stops at its next loop iteration",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setJobStatus(args[0], backlog.JobPaused, func(s backlog.JobStatus) bool {
			return s == backlog.JobRunning || s == backlog.JobPending
		})
	},
}

var jobsResumeCmd = &cobra.Command{
	Use:   "resume <job-id>",
	Short: "Move a paused job back to pending",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setJobStatus(args[0], backlog.JobPending, func(s backlog.JobStatus) bool {
			return s == backlog.JobPaused
		})
	},
}

var jobsCancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a job permanently",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setJobStatus(args[0], backlog.JobCancelled, func(s backlog.JobStatus) bool {
			return s.Active()
		})
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <job-id>",
	Short: "Delete a job document (saved content is kept)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s, err := openStore()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := s.Delete(args[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted job %s\n", args[0])
	},
}

// setJobStatus applies a whole-document status transition through the store.
func setJobStatus(id string, to backlog.JobStatus, allowed func(backlog.JobStatus) bool) {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	job, err := s.Load(id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !allowed(job.Status) {
		fmt.Fprintf(os.Stderr, "Error: job is %s\n", job.Status)
		os.Exit(1)
	}
	job.Status = to
	job.Touch()
	if err := s.Save(job); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Job %s is now %s\n", job.ID, job.Status)
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsPauseCmd)
	jobsCmd.AddCommand(jobsResumeCmd)
	jobsCmd.AddCommand(jobsCancelCmd)
	jobsCmd.AddCommand(jobsDeleteCmd)
}
