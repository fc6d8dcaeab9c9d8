// Package runner drives one content backlog job to completion: it pulls the
// next eligible queue item, generates content through whichever provider the
// scheduler allows, gates the output, attempts the publish, classifies the
// outcome and persists the job after every item. One runner loop is
// single-threaded per job and a process holds at most one active job.
package runner

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
	"github.com/siteforge-ai/siteforge-cli/internal/events"
	"github.com/siteforge-ai/siteforge-cli/internal/generate"
	"github.com/siteforge-ai/siteforge-cli/internal/publish"
	"github.com/siteforge-ai/siteforge-cli/internal/quality"
	"github.com/siteforge-ai/siteforge-cli/internal/scheduler"
	"github.com/siteforge-ai/siteforge-cli/internal/store"
)

// RetryDelays is the fixed backoff ladder for failed generations. Attempts
// beyond its length reuse the last value.
var RetryDelays = []time.Duration{30 * time.Second, 60 * time.Second, 120 * time.Second}

const (
	defaultInterItemDelay = 2 * time.Second
	defaultMaxStallSleep  = 30 * time.Second
)

// Options configures a Runner. Store, Scheduler and Generator are required;
// Publisher and Events may be nil (publishing then fails non-retryably, and
// events are dropped).
type Options struct {
	Store     *store.Store
	Scheduler *scheduler.Scheduler
	Generator generate.Generator
	Publisher publish.Publisher
	Events    *events.Publisher

	Site        generate.SiteContext
	Destination publish.Destination

	InterItemDelay time.Duration
	MaxStallSleep  time.Duration
	Clock          func() time.Time
}

// Runner executes the job state machine.
type Runner struct {
	reg  *Registry
	opts Options
}

// New creates a runner bound to the process registry.
func New(reg *Registry, opts Options) *Runner {
	if opts.InterItemDelay == 0 {
		opts.InterItemDelay = defaultInterItemDelay
	}
	if opts.MaxStallSleep == 0 {
		opts.MaxStallSleep = defaultMaxStallSleep
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{reg: reg, opts: opts}
}

func (r *Runner) now() time.Time { return r.opts.Clock() }

// Run drives the job until it reaches a terminal status, is paused or
// cancelled externally, or ctx is cancelled. A cancelled ctx leaves the job
// persisted and resumable; it is not an error.
func (r *Runner) Run(ctx context.Context, jobID string) error {
	if err := r.reg.Acquire(jobID); err != nil {
		return err
	}
	defer r.reg.Release(jobID)

	job, err := r.opts.Store.Load(jobID)
	if err != nil {
		return err
	}
	if !job.Status.Active() {
		return fmt.Errorf("job %s is %s and cannot be run", jobID, job.Status)
	}
	r.reconcile(job)
	if job.Status != backlog.JobPaused {
		job.Status = backlog.JobRunning
	}
	job.RecountProgress()
	job.Touch()
	if err := r.opts.Store.Save(job); err != nil {
		return err
	}
	r.opts.Events.JobStarted(ctx, job)
	log.Printf("[runner] job_id=%s status=running total=%d", job.ID, job.Progress.Total)

	for {
		if ctx.Err() != nil {
			log.Printf("[runner] job_id=%s stop requested", jobID)
			return nil
		}

		// Always act on the latest persisted truth; external edits
		// (pause, cancel) take effect here.
		job, err = r.opts.Store.Load(jobID)
		if err != nil {
			return err
		}
		if job.Status == backlog.JobCancelled || job.Status == backlog.JobPaused {
			log.Printf("[runner] job_id=%s status=%s, stopping", jobID, job.Status)
			r.opts.Events.JobFinished(ctx, job)
			return nil
		}

		now := r.now()
		item := job.NextEligible(now)
		if item == nil {
			if job.AllTerminal() {
				job.Status = backlog.JobComplete
				job.RecountProgress()
				job.Touch()
				if err := r.opts.Store.Save(job); err != nil {
					return err
				}
				r.opts.Events.JobFinished(ctx, job)
				log.Printf("[runner] job_id=%s status=complete completed=%d failed=%d",
					job.ID, job.Progress.Completed, job.Progress.Failed)
				return nil
			}
			// Everything schedulable is waiting on a future time.
			delay := r.opts.Scheduler.DelayUntilAvailable(job)
			if delay > r.opts.MaxStallSleep {
				delay = r.opts.MaxStallSleep
			}
			if delay <= 0 {
				delay = time.Second
			}
			if !r.wait(ctx, delay) {
				return nil
			}
			continue
		}

		if err := r.processItemSafe(ctx, job, item); err != nil {
			// Job-level failure: nothing item-local absorbed it.
			now := r.now()
			job.Errors = append(job.Errors, backlog.ErrorLogItem{
				ItemID: "job",
				Error:  err.Error(),
				At:     now,
			})
			job.Status = backlog.JobFailed
			job.CurrentItemID = ""
			job.CurrentProvider = ""
			job.RecountProgress()
			job.Touch()
			if saveErr := r.opts.Store.Save(job); saveErr != nil {
				log.Printf("[runner] job_id=%s save after failure: %v", job.ID, saveErr)
			}
			r.opts.Events.JobFinished(ctx, job)
			return err
		}

		if !r.wait(ctx, r.opts.InterItemDelay) {
			return nil
		}
	}
}

// reconcile resets items left in processing by a crash back to pending so a
// restart can pick them up again.
func (r *Runner) reconcile(job *backlog.Job) {
	for i := range job.Queue {
		if job.Queue[i].Status == backlog.ItemProcessing {
			job.Queue[i].Status = backlog.ItemPending
			job.Queue[i].LastError = "reset after interrupted run"
			log.Printf("[runner] job_id=%s item_id=%s reset from processing", job.ID, job.Queue[i].ID)
		}
	}
	job.CurrentItemID = ""
	job.CurrentProvider = ""
}

// processItemSafe runs one item, converting a panic into a job-level error.
// Per-item failures are absorbed inside and never surface here.
func (r *Runner) processItemSafe(ctx context.Context, job *backlog.Job, item *backlog.QueueItem) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while processing item %s: %v", item.ID, p)
		}
	}()
	return r.processItem(ctx, job, item)
}

func (r *Runner) processItem(ctx context.Context, job *backlog.Job, item *backlog.QueueItem) error {
	provider := r.opts.Scheduler.NextProvider(job)
	if provider == "" {
		// Scheduling stall: defer the item without counting a retry.
		at := r.now().Add(r.opts.Scheduler.DelayUntilAvailable(job))
		item.Status = backlog.ItemScheduled
		item.ScheduledAt = &at
		log.Printf("[runner] job_id=%s item_id=%s no provider available, deferred to %s",
			job.ID, item.ID, at.Format(time.RFC3339))
		return r.persistAfterItem(job)
	}

	item.Status = backlog.ItemProcessing
	item.ScheduledAt = nil
	job.CurrentItemID = item.ID
	job.CurrentProvider = provider
	job.RecountProgress()
	job.Touch()
	if err := r.opts.Store.Save(job); err != nil {
		return err
	}
	r.opts.Events.ItemStarted(ctx, job.ID, item, provider)
	log.Printf("[runner] job_id=%s item_id=%s type=%s provider=%s status=processing",
		job.ID, item.ID, item.Type, provider)

	res, genErr := r.opts.Generator.Generate(ctx, generate.Request{
		Provider:    provider,
		ContentType: item.Type,
		Topic:       item.Topic,
		Keywords:    item.Keywords,
		Site:        r.opts.Site,
	})
	r.opts.Scheduler.RecordUsage(job, provider, generate.IsRateLimited(genErr))

	if genErr == nil {
		gate := quality.Check(res.Content, item.Type)
		if !gate.Valid {
			// A regeneration may pass next time; treat exactly like a
			// generation failure.
			genErr = fmt.Errorf("quality gate: %s", gate.Errors())
		} else {
			for _, issue := range gate.Issues {
				log.Printf("[runner] job_id=%s item_id=%s gate_warning=%q", job.ID, item.ID, issue.Message)
			}
			genErr = r.completeItem(ctx, job, item, provider, res.Content, gate)
		}
	}

	if genErr != nil && item.Status != backlog.ItemComplete {
		r.retryOrFail(ctx, job, item, provider, genErr)
	}
	return r.persistAfterItem(job)
}

// completeItem saves the content durably, attempts the publish and records
// the outcome. A failed publish still completes the item: the content exists
// and is not lost, and publishing is never retried automatically.
func (r *Runner) completeItem(ctx context.Context, job *backlog.Job, item *backlog.QueueItem, provider, content string, gate quality.Result) error {
	cleaned, changes := quality.Cleanup(content)
	for _, change := range changes {
		log.Printf("[runner] job_id=%s item_id=%s cleanup=%q", job.ID, item.ID, change)
	}

	slug := Slugify(item.Topic)
	if _, err := r.opts.Store.SaveContent(slug, cleaned); err != nil {
		// Without the durable copy the item cannot complete; let the
		// retry ladder take it.
		return err
	}
	item.ArticleSlug = slug

	now := r.now()
	completed := backlog.CompletedItem{
		ItemID:        item.ID,
		Topic:         item.Topic,
		Type:          item.Type,
		Provider:      provider,
		ContentLength: len(cleaned),
		ArticleSlug:   slug,
		CompletedAt:   now,
	}

	var pubErr error
	var pubRes *publish.Result
	if r.opts.Publisher == nil {
		pubErr = fmt.Errorf("no publisher configured")
	} else {
		pubRes, pubErr = r.opts.Publisher.Publish(ctx, slug, cleaned, r.opts.Destination)
	}

	item.Status = backlog.ItemComplete
	if pubErr == nil {
		item.Published = true
		item.LastError = ""
		completed.Published = true
		completed.ArticleURL = pubRes.ArticleURL
		completed.CommitURL = pubRes.CommitURL
		log.Printf("[runner] job_id=%s item_id=%s published score=%d url=%s",
			job.ID, item.ID, gate.Score, pubRes.ArticleURL)
		if pubRes.ArticleURL != "" {
			if err := publish.VerifyDeployment(ctx, pubRes.ArticleURL, ""); err != nil {
				log.Printf("[runner] job_id=%s item_id=%s deploy_verify_warning=%v", job.ID, item.ID, err)
			}
		}
	} else {
		item.Published = false
		item.LastError = pubErr.Error()
		job.Errors = append(job.Errors, backlog.ErrorLogItem{
			ItemID:    item.ID,
			Topic:     item.Topic,
			Error:     fmt.Sprintf("publish failed: %v", pubErr),
			Provider:  provider,
			WillRetry: false,
			At:        now,
		})
		log.Printf("[runner] job_id=%s item_id=%s completed unpublished: %v", job.ID, item.ID, pubErr)
	}
	job.CompletedItems = append(job.CompletedItems, completed)
	job.RecountProgress()
	r.opts.Events.ItemCompleted(ctx, job, item)
	return nil
}

// retryOrFail applies the retry ladder to a failed generation or gate
// verdict.
func (r *Runner) retryOrFail(ctx context.Context, job *backlog.Job, item *backlog.QueueItem, provider string, cause error) {
	item.Retries++
	item.LastError = cause.Error()
	now := r.now()

	if item.Retries >= item.MaxRetries {
		item.Status = backlog.ItemFailed
		item.ScheduledAt = nil
		job.Errors = append(job.Errors, backlog.ErrorLogItem{
			ItemID:    item.ID,
			Topic:     item.Topic,
			Error:     cause.Error(),
			Provider:  provider,
			WillRetry: false,
			At:        now,
		})
		log.Printf("[runner] job_id=%s item_id=%s status=failed retries=%d: %v",
			job.ID, item.ID, item.Retries, cause)
	} else {
		delay := RetryDelays[len(RetryDelays)-1]
		if item.Retries-1 < len(RetryDelays) {
			delay = RetryDelays[item.Retries-1]
		}
		at := now.Add(delay)
		item.Status = backlog.ItemScheduled
		item.ScheduledAt = &at
		job.Errors = append(job.Errors, backlog.ErrorLogItem{
			ItemID:    item.ID,
			Topic:     item.Topic,
			Error:     cause.Error(),
			Provider:  provider,
			WillRetry: true,
			RetryAt:   &at,
			At:        now,
		})
		log.Printf("[runner] job_id=%s item_id=%s retry=%d at=%s: %v",
			job.ID, item.ID, item.Retries, at.Format(time.RFC3339), cause)
	}
	job.RecountProgress()
	r.opts.Events.ItemFailed(ctx, job, item, item.Status == backlog.ItemScheduled)
}

// persistAfterItem clears the live markers and saves unconditionally, so
// crash recovery never resumes a ghost processing item.
func (r *Runner) persistAfterItem(job *backlog.Job) error {
	job.CurrentItemID = ""
	job.CurrentProvider = ""
	job.RecountProgress()
	job.Touch()
	return r.opts.Store.Save(job)
}

func (r *Runner) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
