// Package scheduler decides which text-generation provider may serve the next
// request for a job, based on the job's credentials and its persisted
// per-provider usage counters. Side effects are confined to the job's
// ProviderUsage records; the scheduler never touches queue item status.
package scheduler

import (
	"time"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

const (
	// window is the sliding period for the per-minute request counter.
	window = 60 * time.Second

	// RateLimitPenalty is the cooldown applied after a provider rejects a
	// request for rate-limit reasons.
	RateLimitPenalty = 60 * time.Second

	// NoProviderDelay is returned by DelayUntilAvailable when no provider
	// has credentials at all, so callers never busy-loop.
	NoProviderDelay = 5 * time.Second
)

// Scheduler picks providers for one job run.
type Scheduler struct {
	creds    map[string]string
	table    map[string]ProviderLimits
	priority []string
	now      func() time.Time
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithRateTable overrides the static rate table.
func WithRateTable(table map[string]ProviderLimits) Option {
	return func(s *Scheduler) { s.table = table }
}

// WithPriority overrides the provider priority order.
func WithPriority(order []string) Option {
	return func(s *Scheduler) { s.priority = order }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler for a job whose provider credentials are the keys
// of creds. Providers without a credential are never selected.
func New(creds map[string]string, opts ...Option) *Scheduler {
	s := &Scheduler{
		creds:    creds,
		table:    DefaultRateTable,
		priority: DefaultPriority,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) hasCredentials(provider string) bool {
	return s.creds[provider] != ""
}

func (s *Scheduler) limits(provider string) ProviderLimits {
	if l, ok := s.table[provider]; ok {
		return l
	}
	// Unknown providers get a cautious default rather than a free pass.
	return ProviderLimits{RPM: 5, Cooldown: 10 * time.Second}
}

// IsAvailable reports whether the provider may serve a request right now.
func (s *Scheduler) IsAvailable(job *backlog.Job, provider string) bool {
	if !s.hasCredentials(provider) {
		return false
	}
	now := s.now()
	u := job.ProviderUsage[provider]
	if u == nil {
		return true
	}
	if u.CooldownUntil != nil && u.CooldownUntil.After(now) {
		return false
	}
	limits := s.limits(provider)
	if s.requestsInWindow(u, now) >= limits.RPM {
		return false
	}
	if limits.DailyCap > 0 && u.Day == day(now) && u.RequestsToday >= limits.DailyCap {
		return false
	}
	return true
}

// NextProvider returns the first provider in priority order that is
// available, or "" if none is.
func (s *Scheduler) NextProvider(job *backlog.Job) string {
	for _, provider := range s.priority {
		if s.IsAvailable(job, provider) {
			return provider
		}
	}
	return ""
}

// DelayUntilAvailable computes the shortest wait, over all credentialed
// providers, until one of them frees up.
func (s *Scheduler) DelayUntilAvailable(job *backlog.Job) time.Duration {
	now := s.now()
	best := time.Duration(-1)
	for _, provider := range s.priority {
		if !s.hasCredentials(provider) {
			continue
		}
		wait := s.waitFor(job.ProviderUsage[provider], s.limits(provider), now)
		if best < 0 || wait < best {
			best = wait
		}
	}
	if best < 0 {
		return NoProviderDelay
	}
	return best
}

func (s *Scheduler) waitFor(u *backlog.ProviderUsage, limits ProviderLimits, now time.Time) time.Duration {
	if u == nil || u.LastRequestAt == nil {
		return 0
	}
	var wait time.Duration
	if u.CooldownUntil != nil && u.CooldownUntil.After(now) {
		wait = u.CooldownUntil.Sub(now)
	}
	since := now.Sub(*u.LastRequestAt)
	if d := limits.Cooldown - since; d > wait {
		wait = d
	}
	if s.requestsInWindow(u, now) >= limits.RPM {
		if d := window - since; d > wait {
			wait = d
		}
	}
	return wait
}

// requestsInWindow returns the effective per-minute counter, treating a
// counter whose last request is older than the window as rolled over.
func (s *Scheduler) requestsInWindow(u *backlog.ProviderUsage, now time.Time) int {
	if u.LastRequestAt == nil || now.Sub(*u.LastRequestAt) > window {
		return 0
	}
	return u.RequestsThisMinute
}

// RecordUsage increments the provider's window and day counters on the job,
// resetting the 60s window when it has elapsed. A rate-limited rejection
// additionally puts the provider into a penalty cooldown.
func (s *Scheduler) RecordUsage(job *backlog.Job, provider string, rateLimited bool) {
	now := s.now()
	u := job.Usage(provider)

	if u.LastRequestAt == nil || now.Sub(*u.LastRequestAt) > window {
		u.RequestsThisMinute = 0
	}
	u.RequestsThisMinute++

	if u.Day != day(now) {
		u.Day = day(now)
		u.RequestsToday = 0
	}
	u.RequestsToday++

	t := now
	u.LastRequestAt = &t

	if rateLimited {
		until := now.Add(RateLimitPenalty)
		u.CooldownUntil = &until
	}
}

func day(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
