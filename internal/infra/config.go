package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents worker configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	JobsDir          string
	UploadsDir       string
	ScanInterval     time.Duration
	JobConcurrency   int
	FileConcurrency  int
	PostSuccessDelay time.Duration
	MaxRetries       int
	CleanupInterval  time.Duration
	RetentionAge     time.Duration
	SogniAppID       string
	SogniBaseURL     string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		JobsDir:          getEnv("JOBS_DIR", "./jobs"),
		UploadsDir:       getEnv("UPLOADS_DIR", "./uploads"),
		ScanInterval:     time.Millisecond * time.Duration(getEnvInt("JOB_SCAN_INTERVAL_MS", 2000)),
		JobConcurrency:   getEnvInt("JOB_CONCURRENCY", 1),
		FileConcurrency:  getEnvInt("FILE_CONCURRENCY", 1),
		PostSuccessDelay: time.Millisecond * time.Duration(getEnvInt("POST_SUCCESS_DELAY_MS", 600)),
		MaxRetries:       getEnvInt("MAX_RETRIES", 5),
		CleanupInterval:  time.Millisecond * time.Duration(getEnvInt("CLEANUP_INTERVAL_MS", 10*60*1000)),
		RetentionAge:     time.Hour * time.Duration(getEnvInt("RETENTION_HOURS", 24)),
		SogniAppID:       getEnv("SOGNI_APPID_WORKER", "gimly-app"),
		SogniBaseURL:     os.Getenv("SOGNI_BASE_URL"),
	}

	if cfg.JobConcurrency < 1 {
		return nil, fmt.Errorf("JOB_CONCURRENCY must be at least 1")
	}
	if cfg.FileConcurrency < 1 {
		return nil, fmt.Errorf("FILE_CONCURRENCY must be at least 1")
	}
	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("MAX_RETRIES must be at least 1")
	}
	if cfg.ScanInterval <= 0 {
		return nil, fmt.Errorf("JOB_SCAN_INTERVAL_MS must be positive")
	}

	for _, dir := range []*string{&cfg.JobsDir, &cfg.UploadsDir} {
		if !filepath.IsAbs(*dir) {
			if abs, err := filepath.Abs(*dir); err == nil {
				*dir = abs
			}
		}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
