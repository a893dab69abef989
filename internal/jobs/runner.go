// Package jobs runs sync batches in the background.
//
// A Runner serializes batches per root container with a keyed lock and keeps
// an observable record of every submitted job. A Scheduler drives a fixed set
// of roots through the same Runner, so scheduled and requested batches never
// overlap for one root.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"driveindex/internal/contextutil"
	"driveindex/internal/indexer"
	"driveindex/internal/storage"
)

// DefaultMaxJobs is the number of job records retained by a Runner.
const DefaultMaxJobs = 200

var (
	// ErrRootBusy is returned when a batch for the root is already running.
	ErrRootBusy = errors.New("sync already running for root")
	// ErrClosed is returned by a Runner that is shutting down.
	ErrClosed = errors.New("job runner closed")
)

// Status is the lifecycle state of a Job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is the observable record of one background batch.
type Job struct {
	ID         string               `json:"id"`
	FolderID   string               `json:"folderId"`
	BatchFiles int                  `json:"batchFiles"`
	Status     Status               `json:"status"`
	StartedAt  time.Time            `json:"startedAt"`
	FinishedAt *time.Time           `json:"finishedAt,omitempty"`
	Result     *indexer.BatchResult `json:"result,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// Engine is the part of the sync engine the runner drives.
type Engine interface {
	RunBatch(ctx context.Context, rootID string, maxFiles int) (*indexer.BatchResult, error)
	Reset(ctx context.Context, rootID string) (*storage.StateSummary, error)
}

// Runner executes batches, at most one per root at a time.
type Runner struct {
	engine  Engine
	locks   indexer.RootLocks
	maxJobs int

	// background jobs run under ctx; Close cancels it
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	jobs   map[string]*Job
	order  []string
	closed bool
}

// NewRunner creates a runner around an engine.
func NewRunner(engine Engine) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		engine:  engine,
		maxJobs: DefaultMaxJobs,
		ctx:     ctx,
		cancel:  cancel,
		jobs:    make(map[string]*Job),
	}
}

// Submit starts a batch for rootID in the background and returns its job.
// The logger of ctx is inherited; its cancellation is not.
func (r *Runner) Submit(ctx context.Context, rootID string, batchFiles int) (*Job, error) {
	if rootID == "" {
		return nil, indexer.ErrMissingRoot
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	if !r.locks.TryAcquire(rootID) {
		r.mu.Unlock()
		return nil, ErrRootBusy
	}
	job := &Job{
		ID:         uuid.New().String(),
		FolderID:   rootID,
		BatchFiles: batchFiles,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	r.store(job)
	r.wg.Add(1)
	snapshot := *job
	r.mu.Unlock()

	logger := contextutil.LoggerFromContext(ctx).With("job_id", job.ID)
	jobCtx := contextutil.WithLogger(r.ctx, logger)

	go func() {
		defer r.wg.Done()
		defer r.locks.Release(rootID)

		logger.InfoContext(jobCtx, "sync job started", "root_id", rootID, "batch_files", batchFiles)
		result, err := r.engine.RunBatch(jobCtx, rootID, batchFiles)
		r.finish(job.ID, result, err)
		if err != nil {
			logger.ErrorContext(jobCtx, "sync job failed", "root_id", rootID, "error", err)
			return
		}
		logger.InfoContext(jobCtx, "sync job finished", "root_id", rootID, "done", result.Done)
	}()

	return &snapshot, nil
}

// Run executes one batch synchronously under the root's lock.
func (r *Runner) Run(ctx context.Context, rootID string, batchFiles int) (*indexer.BatchResult, error) {
	if rootID == "" {
		return nil, indexer.ErrMissingRoot
	}
	if !r.locks.TryAcquire(rootID) {
		return nil, ErrRootBusy
	}
	defer r.locks.Release(rootID)
	return r.engine.RunBatch(ctx, rootID, batchFiles)
}

// Reset rewrites the root's crawl state unless a batch is running for it.
func (r *Runner) Reset(ctx context.Context, rootID string) (*storage.StateSummary, error) {
	if rootID == "" {
		return nil, indexer.ErrMissingRoot
	}
	if !r.locks.TryAcquire(rootID) {
		return nil, ErrRootBusy
	}
	defer r.locks.Release(rootID)
	return r.engine.Reset(ctx, rootID)
}

// Running reports whether a batch currently holds rootID.
func (r *Runner) Running(rootID string) bool {
	return r.locks.Held(rootID)
}

// Get returns a copy of the job with the given id.
func (r *Runner) Get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, false
	}
	snapshot := *job
	return &snapshot, true
}

// Wait blocks until every submitted job has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Close stops accepting jobs, cancels the running ones and waits for them.
// Cancelled batches persist their progress and resume on the next run.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}

func (r *Runner) finish(id string, result *indexer.BatchResult, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return
	}
	now := time.Now().UTC()
	job.FinishedAt = &now
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		return
	}
	job.Status = StatusSucceeded
	job.Result = result
}

// store records a job, evicting the oldest finished jobs beyond maxJobs.
// Callers hold r.mu.
func (r *Runner) store(job *Job) {
	r.jobs[job.ID] = job
	r.order = append(r.order, job.ID)
	for len(r.order) > r.maxJobs {
		evicted := false
		for i, id := range r.order {
			if r.jobs[id].Status != StatusRunning {
				delete(r.jobs, id)
				r.order = append(r.order[:i], r.order[i+1:]...)
				evicted = true
				break
			}
		}
		if !evicted {
			return
		}
	}
}
