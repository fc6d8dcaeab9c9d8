// Package backlog defines the job and queue model for autonomous content
// generation runs. A Job owns an ordered queue of content items, per-provider
// usage counters, and append-only audit records; every other component reads
// and writes through this model.
package backlog

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a content backlog job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobPaused    JobStatus = "paused"
	JobComplete  JobStatus = "complete"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// Active reports whether a job in this status may still be driven by a runner.
func (s JobStatus) Active() bool {
	return s == JobPending || s == JobRunning || s == JobPaused
}

// Progress holds the derived per-status counters for a job's queue.
// Counters are recomputed from the queue after every item transition; they
// must always reconcile with a full scan of the queue.
type Progress struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Retrying   int `json:"retrying"`
	Published  int `json:"published"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
}

// ProviderUsage tracks sliding request counters for one text-generation
// provider. It is owned by the job and mutated only by the scheduler.
type ProviderUsage struct {
	RequestsThisMinute int        `json:"requestsThisMinute"`
	LastRequestAt      *time.Time `json:"lastRequestAt,omitempty"`
	RequestsToday      int        `json:"requestsToday"`
	Day                string     `json:"day,omitempty"`
	CooldownUntil      *time.Time `json:"cooldownUntil,omitempty"`
}

// CompletedItem is a write-once audit record of one successful generation.
type CompletedItem struct {
	ItemID        string    `json:"itemId"`
	Topic         string    `json:"topic"`
	Type          string    `json:"type"`
	Provider      string    `json:"provider"`
	ContentLength int       `json:"contentLength"`
	ArticleSlug   string    `json:"articleSlug"`
	ArticleURL    string    `json:"articleUrl,omitempty"`
	CommitURL     string    `json:"commitUrl,omitempty"`
	Published     bool      `json:"published"`
	CompletedAt   time.Time `json:"completedAt"`
}

// ErrorLogItem is a write-once audit record of one failure. WillRetry marks
// whether the runner scheduled another attempt, and RetryAt when.
type ErrorLogItem struct {
	ItemID    string     `json:"itemId"`
	Topic     string     `json:"topic"`
	Error     string     `json:"error"`
	Provider  string     `json:"provider,omitempty"`
	WillRetry bool       `json:"willRetry"`
	RetryAt   *time.Time `json:"retryAt,omitempty"`
	At        time.Time  `json:"at"`
}

// Job is the unit of work for building one site's content backlog.
type Job struct {
	ID        string    `json:"id"`
	SiteName  string    `json:"siteName,omitempty"`
	Status    JobStatus `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Queue          []QueueItem               `json:"queue"`
	CompletedItems []CompletedItem           `json:"completedItems"`
	Errors         []ErrorLogItem            `json:"errors"`
	ProviderUsage  map[string]*ProviderUsage `json:"providerUsage"`
	Progress       Progress                  `json:"progress"`

	// Live markers for external observers; cleared after every item.
	CurrentItemID   string `json:"currentItemId,omitempty"`
	CurrentProvider string `json:"currentProvider,omitempty"`
}

// NewJob creates a pending job owning the given queue.
func NewJob(siteName string, queue []QueueItem) *Job {
	now := time.Now().UTC()
	j := &Job{
		ID:             uuid.New().String(),
		SiteName:       siteName,
		Status:         JobPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		Queue:          queue,
		CompletedItems: []CompletedItem{},
		Errors:         []ErrorLogItem{},
		ProviderUsage:  map[string]*ProviderUsage{},
	}
	j.RecountProgress()
	return j
}

// Touch bumps the job's update timestamp.
func (j *Job) Touch() {
	j.UpdatedAt = time.Now().UTC()
}

// Usage returns the usage record for a provider, creating it on first access.
func (j *Job) Usage(provider string) *ProviderUsage {
	if j.ProviderUsage == nil {
		j.ProviderUsage = map[string]*ProviderUsage{}
	}
	u, ok := j.ProviderUsage[provider]
	if !ok {
		u = &ProviderUsage{}
		j.ProviderUsage[provider] = u
	}
	return u
}

// Item returns a pointer to the queue item with the given id, or nil.
func (j *Job) Item(id string) *QueueItem {
	for i := range j.Queue {
		if j.Queue[i].ID == id {
			return &j.Queue[i]
		}
	}
	return nil
}

// NextEligible returns the first queue item in array order that is eligible
// to run at the given instant, or nil if none is.
func (j *Job) NextEligible(now time.Time) *QueueItem {
	for i := range j.Queue {
		if j.Queue[i].EligibleAt(now) {
			return &j.Queue[i]
		}
	}
	return nil
}

// AllTerminal reports whether every queue item has reached a terminal status.
func (j *Job) AllTerminal() bool {
	for i := range j.Queue {
		if !j.Queue[i].Terminal() {
			return false
		}
	}
	return true
}

// RecountProgress recomputes the progress counters from a full queue scan.
func (j *Job) RecountProgress() {
	p := Progress{Total: len(j.Queue)}
	for i := range j.Queue {
		switch j.Queue[i].Status {
		case ItemPending:
			p.Pending++
		case ItemProcessing:
			p.Processing++
		case ItemScheduled:
			p.Retrying++
		case ItemComplete:
			p.Completed++
			if j.Queue[i].Published {
				p.Published++
			}
		case ItemFailed:
			p.Failed++
		}
	}
	j.Progress = p
}
