package scheduler

import (
	"testing"
	"time"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

// fakeClock lets tests advance scheduler time explicitly.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestScheduler(creds map[string]string, table map[string]ProviderLimits, priority []string) (*Scheduler, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	s := New(creds, WithRateTable(table), WithPriority(priority), WithClock(clock.now))
	return s, clock
}

func TestWindowCapAndRollover(t *testing.T) {
	table := map[string]ProviderLimits{"alpha": {RPM: 2, Cooldown: time.Second}}
	s, clock := newTestScheduler(map[string]string{"alpha": "key"}, table, []string{"alpha"})
	job := backlog.NewJob("x", nil)

	s.RecordUsage(job, "alpha", false)
	s.RecordUsage(job, "alpha", false)

	if s.IsAvailable(job, "alpha") {
		t.Error("IsAvailable() = true at the per-minute cap")
	}

	clock.advance(61 * time.Second)
	if !s.IsAvailable(job, "alpha") {
		t.Error("IsAvailable() = false after the window rolled over")
	}
}

func TestWindowResetsOnRecord(t *testing.T) {
	table := map[string]ProviderLimits{"alpha": {RPM: 2, Cooldown: 0}}
	s, clock := newTestScheduler(map[string]string{"alpha": "key"}, table, []string{"alpha"})
	job := backlog.NewJob("x", nil)

	s.RecordUsage(job, "alpha", false)
	s.RecordUsage(job, "alpha", false)
	clock.advance(2 * time.Minute)
	s.RecordUsage(job, "alpha", false)

	u := job.ProviderUsage["alpha"]
	if u.RequestsThisMinute != 1 {
		t.Errorf("RequestsThisMinute = %d after window reset, want 1", u.RequestsThisMinute)
	}
	if u.RequestsToday != 3 {
		t.Errorf("RequestsToday = %d, want 3", u.RequestsToday)
	}
}

func TestRateLimitPenalty(t *testing.T) {
	table := map[string]ProviderLimits{"alpha": {RPM: 100, Cooldown: 0}}
	s, clock := newTestScheduler(map[string]string{"alpha": "key"}, table, []string{"alpha"})
	job := backlog.NewJob("x", nil)

	s.RecordUsage(job, "alpha", true)
	if s.IsAvailable(job, "alpha") {
		t.Error("IsAvailable() = true during penalty cooldown")
	}

	clock.advance(RateLimitPenalty + time.Second)
	if !s.IsAvailable(job, "alpha") {
		t.Error("IsAvailable() = false after penalty expired")
	}
}

func TestDailyCap(t *testing.T) {
	table := map[string]ProviderLimits{"alpha": {RPM: 100, Cooldown: 0, DailyCap: 2}}
	s, clock := newTestScheduler(map[string]string{"alpha": "key"}, table, []string{"alpha"})
	job := backlog.NewJob("x", nil)

	s.RecordUsage(job, "alpha", false)
	clock.advance(2 * time.Minute)
	s.RecordUsage(job, "alpha", false)
	clock.advance(2 * time.Minute)

	if s.IsAvailable(job, "alpha") {
		t.Error("IsAvailable() = true at the daily cap")
	}

	// A new UTC day resets the counter.
	clock.advance(24 * time.Hour)
	if !s.IsAvailable(job, "alpha") {
		t.Error("IsAvailable() = false on the next day")
	}
}

func TestNextProviderHonorsPriority(t *testing.T) {
	table := map[string]ProviderLimits{
		"alpha": {RPM: 1, Cooldown: 0},
		"beta":  {RPM: 10, Cooldown: 0},
	}
	s, _ := newTestScheduler(map[string]string{"alpha": "key-a", "beta": "key-b"}, table, []string{"alpha", "beta"})
	job := backlog.NewJob("x", nil)

	if got := s.NextProvider(job); got != "alpha" {
		t.Errorf("NextProvider() = %q, want alpha", got)
	}

	s.RecordUsage(job, "alpha", false)
	if got := s.NextProvider(job); got != "beta" {
		t.Errorf("NextProvider() = %q after alpha capped, want beta", got)
	}
}

func TestNextProviderSkipsMissingCredentials(t *testing.T) {
	table := map[string]ProviderLimits{
		"alpha": {RPM: 10},
		"beta":  {RPM: 10},
	}
	s, _ := newTestScheduler(map[string]string{"beta": "key-b"}, table, []string{"alpha", "beta"})
	job := backlog.NewJob("x", nil)

	if got := s.NextProvider(job); got != "beta" {
		t.Errorf("NextProvider() = %q, want beta", got)
	}
}

func TestDelayUntilAvailable(t *testing.T) {
	table := map[string]ProviderLimits{
		"alpha": {RPM: 100, Cooldown: 10 * time.Second},
		"beta":  {RPM: 100, Cooldown: 30 * time.Second},
	}
	s, clock := newTestScheduler(map[string]string{"alpha": "a", "beta": "b"}, table, []string{"alpha", "beta"})
	job := backlog.NewJob("x", nil)

	if d := s.DelayUntilAvailable(job); d != 0 {
		t.Errorf("DelayUntilAvailable() = %v with no usage, want 0", d)
	}

	s.RecordUsage(job, "alpha", false)
	s.RecordUsage(job, "beta", false)
	clock.advance(2 * time.Second)

	// alpha frees up first: 10s cooldown, 2s elapsed.
	if d := s.DelayUntilAvailable(job); d != 8*time.Second {
		t.Errorf("DelayUntilAvailable() = %v, want 8s", d)
	}
}

func TestDelayFallbackWithoutCredentials(t *testing.T) {
	s, _ := newTestScheduler(map[string]string{}, map[string]ProviderLimits{"alpha": {RPM: 1}}, []string{"alpha"})
	job := backlog.NewJob("x", nil)

	if d := s.DelayUntilAvailable(job); d != NoProviderDelay {
		t.Errorf("DelayUntilAvailable() = %v with zero providers, want %v", d, NoProviderDelay)
	}
}
