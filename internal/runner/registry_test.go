package runner

import (
	"errors"
	"testing"
)

func TestRegistrySingleFlight(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Acquire("job-a"); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if err := reg.Acquire("job-b"); !errors.Is(err, ErrJobActive) {
		t.Fatalf("second acquire = %v, want ErrJobActive", err)
	}
	// Re-acquiring the held job is allowed.
	if err := reg.Acquire("job-a"); err != nil {
		t.Fatalf("re-acquire: %v", err)
	}

	if id, ok := reg.Active(); !ok || id != "job-a" {
		t.Errorf("Active() = %q, %v, want job-a, true", id, ok)
	}

	reg.Release("job-b") // wrong holder, must be a no-op
	if _, ok := reg.Active(); !ok {
		t.Error("Release by a non-holder freed the slot")
	}

	reg.Release("job-a")
	if _, ok := reg.Active(); ok {
		t.Error("slot still held after release")
	}
	if err := reg.Acquire("job-b"); err != nil {
		t.Errorf("acquire after release: %v", err)
	}
}
