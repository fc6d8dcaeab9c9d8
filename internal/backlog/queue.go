package backlog

import (
	"time"

	"github.com/google/uuid"
)

// ItemStatus represents the state of one queue item.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemProcessing ItemStatus = "processing"
	ItemComplete   ItemStatus = "complete"
	ItemFailed     ItemStatus = "failed"
	ItemScheduled  ItemStatus = "scheduled"
)

// Content types a queue item can carry. Pillar articles anchor a topic;
// cluster articles link back to a pillar; the rest are standard site pages.
const (
	TypePillar  = "pillar"
	TypeCluster = "cluster"
	TypeAbout   = "about"
	TypePrivacy = "privacy"
	TypeTerms   = "terms"
	TypeContact = "contact"
)

// QueueItem is one piece of content to be produced. Items are created when a
// job's queue is built, mutated only by the runner, and never deleted.
type QueueItem struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords,omitempty"`
	PillarID string   `json:"pillarId,omitempty"`

	Status      ItemStatus `json:"status"`
	Retries     int        `json:"retries"`
	MaxRetries  int        `json:"maxRetries"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`

	ArticleSlug string `json:"articleSlug,omitempty"`
	Published   bool   `json:"published"`
}

// NewQueueItem creates a pending item of the given content type.
func NewQueueItem(contentType, topic string, keywords []string, maxRetries int) QueueItem {
	return QueueItem{
		ID:         uuid.New().String(),
		Type:       contentType,
		Topic:      topic,
		Keywords:   keywords,
		Status:     ItemPending,
		MaxRetries: maxRetries,
	}
}

// EligibleAt reports whether the item may be attempted at the given instant:
// pending, or scheduled with its scheduled time elapsed.
func (q *QueueItem) EligibleAt(now time.Time) bool {
	switch q.Status {
	case ItemPending:
		return true
	case ItemScheduled:
		return q.ScheduledAt == nil || !q.ScheduledAt.After(now)
	default:
		return false
	}
}

// Terminal reports whether the item can no longer transition.
func (q *QueueItem) Terminal() bool {
	return q.Status == ItemComplete || q.Status == ItemFailed
}
