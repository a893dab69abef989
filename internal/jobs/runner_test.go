package jobs

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"driveindex/internal/indexer"
	"driveindex/internal/storage"
)

// fakeEngine finishes a root's crawl after batchesToDone calls. When gate is
// set, RunBatch blocks until it is closed or ctx is done.
type fakeEngine struct {
	mu            sync.Mutex
	batchesToDone int
	batches       map[string]int
	resets        map[string]int
	maxFiles      []int
	err           error
	gate          chan struct{}
	started       chan string
}

func newFakeEngine(batchesToDone int) *fakeEngine {
	return &fakeEngine{
		batchesToDone: batchesToDone,
		batches:       make(map[string]int),
		resets:        make(map[string]int),
		started:       make(chan string, 16),
	}
}

func (f *fakeEngine) RunBatch(ctx context.Context, rootID string, maxFiles int) (*indexer.BatchResult, error) {
	select {
	case f.started <- rootID:
	default:
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxFiles = append(f.maxFiles, maxFiles)
	if f.err != nil {
		return nil, f.err
	}
	f.batches[rootID]++
	done := f.batches[rootID] >= f.batchesToDone
	return &indexer.BatchResult{
		Done:   done,
		State:  storage.StateSummary{Done: done, ScannedFiles: f.batches[rootID]},
		Counts: indexer.BatchCounts{Processed: 1},
	}, nil
}

func (f *fakeEngine) Reset(_ context.Context, rootID string) (*storage.StateSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets[rootID]++
	f.batches[rootID] = 0
	return &storage.StateSummary{QueueRemaining: 1}, nil
}

func (f *fakeEngine) counts(rootID string) (batches, resets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches[rootID], f.resets[rootID]
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitForStatus(t *testing.T, r *Runner, id string, want Status) *Job {
	t.Helper()
	var job *Job
	eventually(t, func() bool {
		var ok bool
		job, ok = r.Get(id)
		return ok && job.Status == want
	})
	return job
}

func TestRunner_Submit(t *testing.T) {
	engine := newFakeEngine(1)
	r := NewRunner(engine)
	defer r.Close()

	job, err := r.Submit(context.Background(), "root", 7)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.ID == "" || job.FolderID != "root" || job.BatchFiles != 7 {
		t.Errorf("Submit() job = %+v", job)
	}
	if job.Status != StatusRunning || job.StartedAt.IsZero() {
		t.Errorf("Submit() status = %q startedAt = %v", job.Status, job.StartedAt)
	}

	finished := waitForStatus(t, r, job.ID, StatusSucceeded)
	if finished.Result == nil || !finished.Result.Done {
		t.Errorf("Result = %+v, want a done result", finished.Result)
	}
	if finished.FinishedAt == nil || finished.Error != "" {
		t.Errorf("FinishedAt = %v Error = %q", finished.FinishedAt, finished.Error)
	}
	if !reflect.DeepEqual(engine.maxFiles, []int{7}) {
		t.Errorf("maxFiles = %v, want [7]", engine.maxFiles)
	}

	r.Wait()
	if r.Running("root") {
		t.Error("Running() = true after Wait()")
	}
}

func TestRunner_Submit_Failure(t *testing.T) {
	engine := newFakeEngine(1)
	engine.err = errors.New("listing failed")
	r := NewRunner(engine)
	defer r.Close()

	job, err := r.Submit(context.Background(), "root", 0)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	finished := waitForStatus(t, r, job.ID, StatusFailed)
	if finished.Error != "listing failed" {
		t.Errorf("Error = %q, want %q", finished.Error, "listing failed")
	}
	if finished.Result != nil {
		t.Errorf("Result = %+v, want nil", finished.Result)
	}
}

func TestRunner_Submit_MissingRoot(t *testing.T) {
	r := NewRunner(newFakeEngine(1))
	defer r.Close()

	if _, err := r.Submit(context.Background(), "", 1); !errors.Is(err, indexer.ErrMissingRoot) {
		t.Errorf("Submit() error = %v, want ErrMissingRoot", err)
	}
}

func TestRunner_SingleFlightPerRoot(t *testing.T) {
	engine := newFakeEngine(1)
	engine.gate = make(chan struct{})
	r := NewRunner(engine)
	defer r.Close()
	ctx := context.Background()

	first, err := r.Submit(ctx, "root-a", 1)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-engine.started
	if !r.Running("root-a") {
		t.Error("Running(root-a) = false while a batch runs")
	}

	if _, err := r.Submit(ctx, "root-a", 1); !errors.Is(err, ErrRootBusy) {
		t.Errorf("Submit() error = %v, want ErrRootBusy", err)
	}
	if _, err := r.Run(ctx, "root-a", 1); !errors.Is(err, ErrRootBusy) {
		t.Errorf("Run() error = %v, want ErrRootBusy", err)
	}
	if _, err := r.Reset(ctx, "root-a"); !errors.Is(err, ErrRootBusy) {
		t.Errorf("Reset() error = %v, want ErrRootBusy", err)
	}

	// A different root is independent.
	other, err := r.Submit(ctx, "root-b", 1)
	if err != nil {
		t.Fatalf("Submit(root-b) error = %v", err)
	}
	<-engine.started

	close(engine.gate)
	waitForStatus(t, r, first.ID, StatusSucceeded)
	waitForStatus(t, r, other.ID, StatusSucceeded)
	r.Wait()

	if _, err := r.Submit(ctx, "root-a", 1); err != nil {
		t.Errorf("Submit() after finish error = %v", err)
	}
}

func TestRunner_Get_Unknown(t *testing.T) {
	r := NewRunner(newFakeEngine(1))
	defer r.Close()

	if _, ok := r.Get("nope"); ok {
		t.Error("Get(nope) ok = true, want false")
	}
}

func TestRunner_Get_ReturnsCopy(t *testing.T) {
	engine := newFakeEngine(1)
	r := NewRunner(engine)
	defer r.Close()

	job, err := r.Submit(context.Background(), "root", 1)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForStatus(t, r, job.ID, StatusSucceeded)

	got, ok := r.Get(job.ID)
	if !ok {
		t.Fatal("Get() ok = false")
	}
	got.Status = StatusFailed

	if again, _ := r.Get(job.ID); again.Status != StatusSucceeded {
		t.Errorf("stored Status = %q, want %q", again.Status, StatusSucceeded)
	}
}

func TestRunner_Close_CancelsRunningJobs(t *testing.T) {
	engine := newFakeEngine(1)
	engine.gate = make(chan struct{})
	r := NewRunner(engine)

	job, err := r.Submit(context.Background(), "root", 1)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	<-engine.started

	r.Close()

	got, ok := r.Get(job.ID)
	if !ok {
		t.Fatal("Get() ok = false")
	}
	if got.Status != StatusFailed || !strings.Contains(got.Error, context.Canceled.Error()) {
		t.Errorf("job = %+v, want failed with a cancellation error", got)
	}

	if _, err := r.Submit(context.Background(), "root", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Submit() after Close error = %v, want ErrClosed", err)
	}
}

func TestRunner_Run_And_Reset(t *testing.T) {
	engine := newFakeEngine(2)
	r := NewRunner(engine)
	defer r.Close()
	ctx := context.Background()

	for i, wantDone := range []bool{false, true} {
		res, err := r.Run(ctx, "root", 3)
		if err != nil {
			t.Fatalf("Run() #%d error = %v", i+1, err)
		}
		if res.Done != wantDone {
			t.Errorf("Run() #%d Done = %v, want %v", i+1, res.Done, wantDone)
		}
	}

	summary, err := r.Reset(ctx, "root")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if summary.QueueRemaining != 1 {
		t.Errorf("QueueRemaining = %d, want 1", summary.QueueRemaining)
	}

	if batches, resets := engine.counts("root"); batches != 0 || resets != 1 {
		t.Errorf("batches = %d resets = %d, want 0 and 1", batches, resets)
	}
	if r.Running("root") {
		t.Error("Running() = true after Reset()")
	}

	if _, err := r.Run(ctx, "", 1); !errors.Is(err, indexer.ErrMissingRoot) {
		t.Errorf("Run() error = %v, want ErrMissingRoot", err)
	}
	if _, err := r.Reset(ctx, ""); !errors.Is(err, indexer.ErrMissingRoot) {
		t.Errorf("Reset() error = %v, want ErrMissingRoot", err)
	}
}

func TestRunner_EvictsFinishedJobs(t *testing.T) {
	engine := newFakeEngine(1)
	r := NewRunner(engine)
	r.maxJobs = 2
	defer r.Close()

	var ids []string
	for range 3 {
		job, err := r.Submit(context.Background(), "root", 1)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		waitForStatus(t, r, job.ID, StatusSucceeded)
		r.Wait()
		ids = append(ids, job.ID)
	}

	if _, ok := r.Get(ids[0]); ok {
		t.Error("oldest job should be evicted")
	}
	for _, id := range ids[1:] {
		if _, ok := r.Get(id); !ok {
			t.Errorf("job %s evicted, want kept", id)
		}
	}
}
