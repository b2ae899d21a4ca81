package worker

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"worker/internal/infra"
	"worker/internal/storage"
)

// Janitor deletes job records and upload batch directories once they age
// past the retention threshold. Job and upload storage share the same
// clock: even done jobs expire.
type Janitor struct {
	jobs      *storage.JobStore
	uploads   *storage.UploadStore
	retention time.Duration
	logger    infra.Logger
}

// NewJanitor wires a Janitor.
func NewJanitor(jobs *storage.JobStore, uploads *storage.UploadStore, retention time.Duration, logger infra.Logger) *Janitor {
	return &Janitor{
		jobs:      jobs,
		uploads:   uploads,
		retention: retention,
		logger:    logger,
	}
}

// Sweep removes every expired entry. Individual failures are logged and
// never abort the rest of the sweep.
func (j *Janitor) Sweep(ctx context.Context) {
	now := time.Now()
	deletedJobs := j.sweepJobs(ctx, now)
	deletedUploads := j.sweepUploads(now)
	if deletedJobs > 0 || deletedUploads > 0 {
		j.logger.Info().Int("jobs", deletedJobs).Int("uploads", deletedUploads).Msg("worker: cleanup done")
	}
}

func (j *Janitor) sweepJobs(ctx context.Context, now time.Time) int {
	ids, err := j.jobs.List(ctx)
	if err != nil {
		j.logger.Warn().Err(err).Msg("worker: cleanup job listing failed")
		return 0
	}
	deleted := 0
	for _, id := range ids {
		mtime, err := j.jobs.ModTime(id)
		if err != nil {
			j.logger.Warn().Err(err).Str("job_id", id).Msg("worker: cleanup stat failed")
			continue
		}
		if now.Sub(mtime) <= j.retention {
			continue
		}
		if err := j.jobs.Delete(ctx, id); err != nil {
			j.logger.Warn().Err(err).Str("job_id", id).Msg("worker: cleanup delete failed")
			continue
		}
		deleted++
	}
	return deleted
}

func (j *Janitor) sweepUploads(now time.Time) int {
	if j.uploads == nil {
		return 0
	}
	entries, err := os.ReadDir(j.uploads.BasePath())
	if err != nil {
		j.logger.Warn().Err(err).Msg("worker: cleanup upload listing failed")
		return 0
	}
	deleted := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		full := filepath.Join(j.uploads.BasePath(), entry.Name())
		info, err := entry.Info()
		if err != nil {
			j.logger.Warn().Err(err).Str("dir", full).Msg("worker: cleanup stat failed")
			continue
		}
		if now.Sub(info.ModTime()) <= j.retention {
			continue
		}
		if err := os.RemoveAll(full); err != nil {
			j.logger.Warn().Err(err).Str("dir", full).Msg("worker: cleanup delete failed")
			continue
		}
		deleted++
	}
	return deleted
}
