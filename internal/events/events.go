// Package events publishes job progress over Redis Pub/Sub so the dashboard
// can show live state without polling job documents. The publisher is
// optional: a nil *Publisher is a safe no-op, and a publish failure never
// affects the job itself.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

// Event is one progress notification.
type Event struct {
	Version   string         `json:"version"`
	Type      string         `json:"type"` // "job_started", "item_started", "item_completed", "item_failed", "job_finished"
	JobID     string         `json:"jobId"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Publisher emits events on the channel "siteforge:jobs:<jobID>".
type Publisher struct {
	client *redis.Client
}

// Connect creates a publisher from a Redis URL and verifies the connection.
func Connect(ctx context.Context, url string) (*Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse events URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to events broker: %w", err)
	}
	return &Publisher{client: client}, nil
}

// Close releases the underlying connection.
func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

func (p *Publisher) publish(ctx context.Context, jobID, eventType string, data map[string]any) {
	if p == nil || p.client == nil {
		return
	}
	event := Event{
		Version:   "1",
		Type:      eventType,
		JobID:     jobID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	// Best-effort: dropped events are invisible to the job.
	_ = p.client.Publish(ctx, Channel(jobID), payload).Err()
}

// Channel returns the pub/sub channel name for a job.
func Channel(jobID string) string {
	return "siteforge:jobs:" + jobID
}

// JobStarted announces that the runner picked up a job.
func (p *Publisher) JobStarted(ctx context.Context, job *backlog.Job) {
	p.publish(ctx, job.ID, "job_started", map[string]any{"total": job.Progress.Total})
}

// ItemStarted announces that an item entered processing.
func (p *Publisher) ItemStarted(ctx context.Context, jobID string, item *backlog.QueueItem, provider string) {
	p.publish(ctx, jobID, "item_started", map[string]any{
		"itemId":   item.ID,
		"topic":    item.Topic,
		"provider": provider,
	})
}

// ItemCompleted announces a completed item and the fresh counters.
func (p *Publisher) ItemCompleted(ctx context.Context, job *backlog.Job, item *backlog.QueueItem) {
	p.publish(ctx, job.ID, "item_completed", map[string]any{
		"itemId":    item.ID,
		"published": item.Published,
		"completed": job.Progress.Completed,
		"failed":    job.Progress.Failed,
	})
}

// ItemFailed announces a failed or rescheduled item.
func (p *Publisher) ItemFailed(ctx context.Context, job *backlog.Job, item *backlog.QueueItem, willRetry bool) {
	p.publish(ctx, job.ID, "item_failed", map[string]any{
		"itemId":    item.ID,
		"error":     item.LastError,
		"willRetry": willRetry,
	})
}

// JobFinished announces the job's terminal status.
func (p *Publisher) JobFinished(ctx context.Context, job *backlog.Job) {
	p.publish(ctx, job.ID, "job_finished", map[string]any{"status": string(job.Status)})
}
