package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"worker/internal/domain"
	"worker/internal/infra"
	"worker/internal/providers/sogni"
	"worker/internal/storage"
	"worker/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs, err := storage.NewJobStore(cfg.JobsDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure job store")
	}
	uploads, err := storage.NewUploadStore(cfg.UploadsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure upload store")
	}

	newClient := func(ctx context.Context, job *domain.Job) (sogni.GenerationClient, error) {
		family := domain.DetectProviderFamily(job)
		client := sogni.NewClient(sogni.Options{
			BaseURL: cfg.SogniBaseURL,
			AppID:   cfg.SogniAppID,
			Network: family.Network(),
		})
		if err := client.Authenticate(ctx, job.Username, job.UserToken, job.RefreshToken); err != nil {
			return nil, err
		}
		return client, nil
	}

	retry := worker.DefaultRetryPolicy()
	retry.MaxAttempts = cfg.MaxRetries

	processor := worker.NewJobProcessor(jobs, newClient, retry, cfg.FileConcurrency, cfg.PostSuccessDelay, logger)
	janitor := worker.NewJanitor(jobs, uploads, cfg.RetentionAge, logger)
	scheduler := worker.NewScheduler(jobs, processor, janitor, cfg.ScanInterval, cfg.CleanupInterval, cfg.JobConcurrency, logger)

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
