package runner

import (
	"errors"
	"sync"
)

// ErrJobActive is returned when a second job tries to start while one is
// already being driven by this process.
var ErrJobActive = errors.New("another job is already running in this process")

// Registry is the process-wide single-flight guard: at most one job may be
// driven at a time. It is an owned object rather than package state so test
// instances never interfere.
type Registry struct {
	mu     sync.Mutex
	active string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Acquire claims the active slot for a job. Re-acquiring the same job id is
// allowed; any other job is rejected with ErrJobActive.
func (g *Registry) Acquire(jobID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active != "" && g.active != jobID {
		return ErrJobActive
	}
	g.active = jobID
	return nil
}

// Release frees the slot if it is held by the given job.
func (g *Registry) Release(jobID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active == jobID {
		g.active = ""
	}
}

// Active returns the id of the job currently being driven, if any.
func (g *Registry) Active() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active, g.active != ""
}
