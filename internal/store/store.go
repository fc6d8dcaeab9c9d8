// Package store persists jobs as one JSON document per job id. Writes are
// whole-document and atomic (temp file + rename); callers read-modify-write
// the entire job and accept last-writer-wins semantics, matching the runner's
// single-flight design.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/siteforge-ai/siteforge-cli/internal/backlog"
)

// ErrNotFound is returned when no job document exists for an id.
var ErrNotFound = errors.New("job not found")

// Store is a directory of job documents plus saved article content.
type Store struct {
	dir string
}

// Open creates the store directory if needed and returns a Store.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "content"), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) jobPath(id string) string {
	return filepath.Join(s.dir, sanitize(id)+".json")
}

// Save writes the whole job document atomically.
func (s *Store) Save(job *backlog.Job) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", job.ID, err)
	}
	data = append(data, '\n')
	return writeAtomic(s.jobPath(job.ID), data)
}

// Load reads the job document for an id, or ErrNotFound.
func (s *Store) Load(id string) (*backlog.Job, error) {
	data, err := os.ReadFile(s.jobPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}
	var job backlog.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("parse job %s: %w", id, err)
	}
	return &job, nil
}

// List returns all jobs sorted most recently updated first.
func (s *Store) List() ([]*backlog.Job, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory %s: %w", s.dir, err)
	}
	var jobs []*backlog.Job
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		job, err := s.Load(strings.TrimSuffix(e.Name(), ".json"))
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, k int) bool {
		return jobs[i].UpdatedAt.After(jobs[k].UpdatedAt)
	})
	return jobs, nil
}

// Active returns the most recently updated job whose status is still
// drivable (pending, running or paused), or ErrNotFound. Used to resume
// after a process restart.
func (s *Store) Active() (*backlog.Job, error) {
	jobs, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, job := range jobs {
		if job.Status.Active() {
			return job, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes a job document. Deleting a missing job is not an error.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.jobPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// SaveContent durably writes generated article text under the store's
// content directory before any publish attempt, so a publish failure never
// loses the content.
func (s *Store) SaveContent(slug, text string) (string, error) {
	path := filepath.Join(s.dir, "content", sanitize(slug)+".md")
	if err := writeAtomic(path, []byte(text)); err != nil {
		return "", err
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".siteforge-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", path, err)
	}
	return nil
}

// sanitize keeps ids and slugs filesystem-safe.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, name)
}
