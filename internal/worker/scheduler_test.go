package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"worker/internal/domain"
	"worker/internal/storage"
)

type recordingRunner struct {
	mu   sync.Mutex
	jobs []string
}

func (r *recordingRunner) Process(ctx context.Context, job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job.JobID)
}

func (r *recordingRunner) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.jobs...)
}

func seedQueuedJob(t *testing.T, store *storage.JobStore, id string) {
	t.Helper()
	job := &domain.Job{JobID: id, Status: domain.JobStatusQueued, Files: []string{"a.png"}, CreatedAt: 1700000000000}
	if err := store.Write(context.Background(), id, job); err != nil {
		t.Fatalf("seeding job: %v", err)
	}
}

func TestSchedulerDispatchesQueuedJobsOnce(t *testing.T) {
	store := newTestStore(t)
	seedQueuedJob(t, store, "j1")
	seedQueuedJob(t, store, "j2")

	runner := &recordingRunner{}
	s := NewScheduler(store, runner, nil, time.Hour, time.Hour, 2, zerolog.Nop())
	ctx := context.Background()

	// Two consecutive polls before anything completes must dispatch each
	// job exactly once.
	s.poll(ctx)
	s.poll(ctx)
	s.wg.Wait()

	got := runner.processed()
	if len(got) != 2 {
		t.Fatalf("expected 2 dispatches, got %v", got)
	}
	seen := map[string]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("job %s dispatched twice", id)
		}
		seen[id] = true
	}
}

func TestSchedulerMarksRunningBeforeDispatch(t *testing.T) {
	store := newTestStore(t)
	seedQueuedJob(t, store, "j1")

	runner := &recordingRunner{}
	s := NewScheduler(store, runner, nil, time.Hour, time.Hour, 1, zerolog.Nop())
	ctx := context.Background()

	s.poll(ctx)

	// The running transition is persisted synchronously during the poll,
	// before the pool picks the job up.
	job, err := store.Read(ctx, "j1")
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if job.Status != domain.JobStatusRunning {
		t.Fatalf("status mismatch: %s", job.Status)
	}
	if job.StartedAt == 0 {
		t.Fatalf("startedAt not set")
	}
	s.wg.Wait()
}

func TestSchedulerSkipsNonQueuedJobs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for _, status := range []domain.JobStatus{domain.JobStatusRunning, domain.JobStatusDone, domain.JobStatusError} {
		job := &domain.Job{JobID: "j-" + string(status), Status: status, Files: []string{"a.png"}}
		if err := store.Write(ctx, job.JobID, job); err != nil {
			t.Fatalf("seeding job: %v", err)
		}
	}

	runner := &recordingRunner{}
	s := NewScheduler(store, runner, nil, time.Hour, time.Hour, 1, zerolog.Nop())
	s.poll(ctx)
	s.wg.Wait()

	if got := runner.processed(); len(got) != 0 {
		t.Fatalf("expected no dispatches, got %v", got)
	}
}

func TestSchedulerCleanupCadence(t *testing.T) {
	store := newTestStore(t)
	uploads, err := storage.NewUploadStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewUploadStore returned error: %v", err)
	}
	janitor := NewJanitor(store, uploads, time.Hour, zerolog.Nop())

	ctx := context.Background()
	seedQueuedJob(t, store, "old")
	ageJobFile(t, store, "old", 2*time.Hour)

	s := NewScheduler(store, &recordingRunner{}, janitor, time.Hour, time.Hour, 1, zerolog.Nop())

	// A recent sweep suppresses the next one.
	s.lastCleanup = time.Now()
	s.maybeCleanup(ctx)
	if _, err := store.Read(ctx, "old"); err != nil {
		t.Fatalf("job swept despite recent cleanup: %v", err)
	}

	// A stale timestamp triggers the sweep.
	s.lastCleanup = time.Now().Add(-2 * time.Hour)
	s.maybeCleanup(ctx)
	if _, err := store.Read(ctx, "old"); err == nil {
		t.Fatalf("expected job to be swept")
	}
	s.wg.Wait()
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	runner := &recordingRunner{}
	s := NewScheduler(store, runner, nil, time.Millisecond, time.Hour, 1, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
