package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"worker/internal/domain"
	"worker/internal/infra"
	"worker/internal/storage"
)

// JobRunner consumes a claimed job. Satisfied by JobProcessor.
type JobRunner interface {
	Process(ctx context.Context, job *domain.Job)
}

// Scheduler polls the job store on a fixed interval, claims queued jobs
// and dispatches them into a bounded pool. It also owns the cleanup
// cadence; the last-sweep timestamp is scheduler state, not a global.
type Scheduler struct {
	store           *storage.JobStore
	runner          JobRunner
	janitor         *Janitor
	scanInterval    time.Duration
	cleanupInterval time.Duration
	sem             *semaphore.Weighted
	lastCleanup     time.Time
	logger          infra.Logger
	wg              sync.WaitGroup
}

// NewScheduler wires a Scheduler with a job pool of size jobConcurrency.
func NewScheduler(store *storage.JobStore, runner JobRunner, janitor *Janitor, scanInterval, cleanupInterval time.Duration, jobConcurrency int, logger infra.Logger) *Scheduler {
	if jobConcurrency < 1 {
		jobConcurrency = 1
	}
	return &Scheduler{
		store:           store,
		runner:          runner,
		janitor:         janitor,
		scanInterval:    scanInterval,
		cleanupInterval: cleanupInterval,
		sem:             semaphore.NewWeighted(int64(jobConcurrency)),
		logger:          logger,
	}
}

// Run polls until the context is canceled, then waits for in-flight jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info().Str("jobs_dir", s.store.Dir()).Msg("worker: started")
	ticker := time.NewTicker(s.scanInterval)
	defer ticker.Stop()

	for {
		s.poll(ctx)
		s.maybeCleanup(ctx)

		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// poll claims every queued job and hands it to the pool. The claim write
// happens before dispatch so a job observed by two consecutive polls is
// dispatched at most once.
func (s *Scheduler) poll(ctx context.Context) {
	ids, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("worker: job listing failed")
		return
	}
	for _, id := range ids {
		job, err := s.store.Read(ctx, id)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.logger.Error().Err(err).Str("job_id", id).Msg("worker: job read failed")
			}
			continue
		}
		if job.Status != domain.JobStatusQueued {
			continue
		}
		claimed, ok, err := s.store.Claim(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("job_id", id).Msg("worker: job claim failed")
			continue
		}
		if !ok {
			continue
		}
		s.dispatch(ctx, claimed)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, job *domain.Job) {
	s.logger.Info().Str("job_id", job.JobID).Int("files", len(job.Files)).Msg("worker: job claimed")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(ctx, 1); err != nil {
			// Shutdown before a pool slot opened; the record stays
			// running and is left for an operator to requeue.
			return
		}
		defer s.sem.Release(1)
		s.runner.Process(ctx, job)
	}()
}

func (s *Scheduler) maybeCleanup(ctx context.Context) {
	if s.janitor == nil {
		return
	}
	now := time.Now()
	if !s.lastCleanup.IsZero() && now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.janitor.Sweep(ctx)
	s.lastCleanup = now
}
