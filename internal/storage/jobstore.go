package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"worker/internal/domain"
	"worker/internal/infra"
)

const jobFileExt = ".json"

// JobStore persists job records on the local filesystem, one JSON file per
// job. Writes go through a temporary file and a rename so readers never
// observe a partially written record. The queued→running transition is a
// compare-and-swap under the store mutex, which makes it the single
// admission gate for dispatch.
type JobStore struct {
	dir    string
	mu     sync.Mutex
	logger infra.Logger
}

// NewJobStore initializes a JobStore rooted at dir.
func NewJobStore(dir string, logger infra.Logger) (*JobStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: jobs dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure jobs dir: %w", err)
	}
	return &JobStore{dir: dir, logger: logger}, nil
}

// Dir returns the configured jobs directory.
func (s *JobStore) Dir() string {
	return s.dir
}

// List returns the identifiers of all persisted job records, in no
// particular order. Entries that are not job record files are skipped.
func (s *JobStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list jobs: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), jobFileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), jobFileExt))
	}
	return ids, nil
}

// Read loads a job record. A missing or malformed record yields
// domain.ErrNotFound; malformed records are logged, never fatal.
func (s *JobStore) Read(ctx context.Context, jobID string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(jobID)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("storage: read job %s: %w", jobID, err)
	}
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("storage: skipping malformed job record")
		return nil, domain.ErrNotFound
	}
	return &job, nil
}

// Write persists the full record atomically.
func (s *JobStore) Write(ctx context.Context, jobID string, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(jobID)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode job %s: %w", jobID, err)
	}
	tmp, err := os.CreateTemp(s.dir, jobID+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage: write job %s: %w", jobID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storage: write job %s: %w", jobID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: write job %s: %w", jobID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storage: write job %s: %w", jobID, err)
	}
	return nil
}

// Delete removes a job record. Deleting an absent record is not an error.
func (s *JobStore) Delete(ctx context.Context, jobID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(jobID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: delete job %s: %w", jobID, err)
	}
	return nil
}

// Claim atomically transitions a job from queued to running, stamping
// startedAt. It returns the claimed record and true on success, or false
// when the job is absent, malformed, or not queued. Exactly one caller can
// claim a given job.
func (s *JobStore) Claim(ctx context.Context, jobID string) (*domain.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.Read(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if job.Status != domain.JobStatusQueued {
		return nil, false, nil
	}
	job.Status = domain.JobStatusRunning
	job.StartedAt = time.Now().UnixMilli()
	if err := s.Write(ctx, jobID, job); err != nil {
		return nil, false, err
	}
	return job, true, nil
}

// ModTime returns the record file's modification time, used by the
// retention sweep.
func (s *JobStore) ModTime(jobID string) (time.Time, error) {
	path, err := s.path(jobID)
	if err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, domain.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("storage: stat job %s: %w", jobID, err)
	}
	return info.ModTime(), nil
}

// path maps a job identifier onto its record file, rejecting identifiers
// that would escape the jobs directory.
func (s *JobStore) path(jobID string) (string, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return "", errors.New("storage: job id is required")
	}
	if strings.ContainsAny(jobID, `/\`) || jobID == "." || jobID == ".." {
		return "", fmt.Errorf("storage: invalid job id %q", jobID)
	}
	return filepath.Join(s.dir, jobID+jobFileExt), nil
}
