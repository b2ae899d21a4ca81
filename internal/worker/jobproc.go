package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"worker/internal/domain"
	"worker/internal/infra"
	"worker/internal/providers/sogni"
	"worker/internal/storage"
)

// ClientFactory builds an authenticated generation client for a job's
// provider family using the job's stored credentials.
type ClientFactory func(ctx context.Context, job *domain.Job) (sogni.GenerationClient, error)

// JobProcessor orchestrates per-file processing for one claimed job and
// persists the terminal record. It never panics through to the scheduler
// loop: any orchestration failure downgrades the job to error.
type JobProcessor struct {
	store           *storage.JobStore
	newClient       ClientFactory
	retry           RetryPolicy
	fileConcurrency int
	postDelay       time.Duration
	logger          infra.Logger
}

// NewJobProcessor wires a JobProcessor.
func NewJobProcessor(store *storage.JobStore, newClient ClientFactory, retry RetryPolicy, fileConcurrency int, postDelay time.Duration, logger infra.Logger) *JobProcessor {
	if fileConcurrency < 1 {
		fileConcurrency = 1
	}
	return &JobProcessor{
		store:           store,
		newClient:       newClient,
		retry:           retry,
		fileConcurrency: fileConcurrency,
		postDelay:       postDelay,
		logger:          logger,
	}
}

// Process runs a job that the scheduler has already transitioned to
// running, and writes exactly one terminal state back to the store.
func (p *JobProcessor) Process(ctx context.Context, job *domain.Job) {
	log := p.logger.With().Str("job_id", job.JobID).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("worker: job orchestration panicked")
			p.fail(ctx, job, fmt.Sprintf("orchestration failure: %v", r))
		}
	}()

	if job.Username == "" || job.UserToken == "" {
		log.Error().Msg("worker: job is missing credentials")
		p.fail(ctx, job, domain.ErrMissingCredentials.Error())
		return
	}

	client, err := p.newClient(ctx, job)
	if err != nil {
		log.Error().Err(err).Str("username", job.Username).Str("token", domain.Redact(job.UserToken)).Msg("worker: authentication failed")
		p.fail(ctx, job, fmt.Sprintf("authenticate: %v", err))
		return
	}
	log.Info().Str("username", job.Username).Str("family", string(domain.DetectProviderFamily(job))).Msg("worker: session established")

	fp := NewFileProcessor(client, p.retry, p.postDelay, p.logger)

	outputs := make([]domain.Output, len(job.Files))
	var g errgroup.Group
	g.SetLimit(p.fileConcurrency)
	for i, file := range job.Files {
		i, file := i, file
		g.Go(func() error {
			outputs[i] = fp.Process(ctx, job, file)
			return nil
		})
	}
	// Join: final status needs every file's outcome.
	_ = g.Wait()

	job.Outputs = outputs
	job.Status = domain.JobStatusError
	for _, out := range outputs {
		if out.Error == "" {
			job.Status = domain.JobStatusDone
			break
		}
	}
	job.CompletedAt = time.Now().UnixMilli()

	if err := p.store.Write(ctx, job.JobID, job); err != nil {
		log.Error().Err(err).Msg("worker: persist job result failed")
		return
	}
	log.Info().Str("status", string(job.Status)).Int("files", len(job.Files)).Msg("worker: job finished")
}

// fail records a whole-job error without per-file detail.
func (p *JobProcessor) fail(ctx context.Context, job *domain.Job, msg string) {
	job.Status = domain.JobStatusError
	job.Error = msg
	job.CompletedAt = time.Now().UnixMilli()
	if err := p.store.Write(ctx, job.JobID, job); err != nil {
		p.logger.Error().Err(err).Str("job_id", job.JobID).Msg("worker: persist job error failed")
	}
}
