package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadStore persists raw input files under one directory per upload
// batch. The upload handler writes here and references the returned
// absolute paths in the job record's files list; the retention sweep
// deletes whole batch directories once they age out.
type UploadStore struct {
	basePath string
}

// NewUploadStore initializes an UploadStore rooted at basePath.
func NewUploadStore(basePath string) (*UploadStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: uploads base path is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure uploads dir: %w", err)
	}
	return &UploadStore{basePath: basePath}, nil
}

// BasePath returns the configured uploads root directory.
func (s *UploadStore) BasePath() string {
	return s.basePath
}

// NewBatchID returns a fresh upload batch identifier.
func (s *UploadStore) NewBatchID() string {
	return uuid.NewString()
}

// Save persists one input file under the given batch and returns its
// absolute path, suitable for a job record's files list. Names are
// validated to prevent escaping the uploads root.
func (s *UploadStore) Save(ctx context.Context, batchID, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	batchID, err := sanitizeName(batchID)
	if err != nil {
		return "", err
	}
	filename, err = sanitizeName(filename)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.basePath, batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure upload batch dir: %w", err)
	}
	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("storage: write upload: %w", err)
	}
	return fullPath, nil
}

// sanitizeName accepts a single path element and rejects traversal.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("storage: name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid name %q", name)
	}
	return name, nil
}
