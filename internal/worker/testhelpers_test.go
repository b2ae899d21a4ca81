package worker

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"worker/internal/providers/sogni"
	"worker/internal/storage"
)

// fakeClient implements sogni.GenerationClient with per-call hooks.
type fakeClient struct {
	mu          sync.Mutex
	models      []sogni.Model
	modelsErr   error
	submit      func(call int, params sogni.ProjectParams) (sogni.ProjectHandle, error)
	await       func(handle sogni.ProjectHandle) (any, error)
	submitCalls int
}

func (f *fakeClient) Authenticate(ctx context.Context, username, token, refreshToken string) error {
	return nil
}

func (f *fakeClient) AvailableModels(ctx context.Context) ([]sogni.Model, error) {
	return f.models, f.modelsErr
}

func (f *fakeClient) Submit(ctx context.Context, params sogni.ProjectParams) (sogni.ProjectHandle, error) {
	f.mu.Lock()
	f.submitCalls++
	call := f.submitCalls
	f.mu.Unlock()
	if f.submit != nil {
		return f.submit(call, params)
	}
	return sogni.ProjectHandle{ID: "p-1"}, nil
}

func (f *fakeClient) AwaitCompletion(ctx context.Context, handle sogni.ProjectHandle) (any, error) {
	if f.await != nil {
		return f.await(handle)
	}
	return "https://cdn.example.com/out.png", nil
}

func (f *fakeClient) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitCalls
}

func fastRetry(maxAttempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts, Base: time.Millisecond, Cap: 4 * time.Millisecond}
}

func newTestStore(t *testing.T) *storage.JobStore {
	t.Helper()
	store, err := storage.NewJobStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewJobStore returned error: %v", err)
	}
	return store
}

// ageJobFile rewinds a job record's modification time.
func ageJobFile(t *testing.T, store *storage.JobStore, jobID string, age time.Duration) {
	t.Helper()
	path := filepath.Join(store.Dir(), jobID+".json")
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("aging job file: %v", err)
	}
}

// writeTestPNG creates a small PNG input file and returns its path.
func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(32 * x), G: uint8(32 * y), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write test png: %v", err)
	}
	return path
}
