package jobs

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"driveindex/internal/contextutil"
)

// Root is a root container driven by the Scheduler.
type Root struct {
	ID         string
	BatchFiles int
}

// Scheduler crawls a fixed set of roots to completion. With a positive
// interval it also re-crawls every root from scratch on each tick; unchanged
// files are detected and cost no embedding calls.
type Scheduler struct {
	runner   *Runner
	roots    []Root
	interval time.Duration
	// busyRetry is how long a root waits for a running sync before the
	// initial crawl is tried again when no interval is set.
	busyRetry time.Duration
}

// DefaultBusyRetry is the wait before retrying a root held by another sync.
const DefaultBusyRetry = 5 * time.Second

// NewScheduler creates a scheduler over roots.
func NewScheduler(runner *Runner, roots []Root, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, roots: roots, interval: interval, busyRetry: DefaultBusyRetry}
}

type drainResult int

const (
	drainDone drainResult = iota
	drainBusy
	drainStopped
)

// Run drives every root concurrently until ctx is done, or until each root
// finished its crawl when no interval is set.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, root := range s.roots {
		g.Go(func() error {
			s.loop(gctx, root)
			return nil
		})
	}
	return g.Wait()
}

func (s *Scheduler) loop(ctx context.Context, root Root) {
	logger := contextutil.LoggerFromContext(ctx).With("root_id", root.ID)
	ctx = contextutil.WithLogger(ctx, logger)

	res := s.drain(ctx, root)
	if s.interval <= 0 {
		// without ticks a root held by a manual sync would never be crawled
		for res == drainBusy {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.busyRetry):
			}
			res = s.drain(ctx, root)
		}
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// An unfinished crawl resumes; a finished one starts over.
			if res == drainDone {
				if _, err := s.runner.Reset(ctx, root.ID); err != nil {
					if errors.Is(err, ErrRootBusy) {
						logger.InfoContext(ctx, "skipping scheduled crawl, sync already running")
					} else {
						logger.ErrorContext(ctx, "failed to reset crawl state", "error", err)
					}
					continue
				}
			}
			res = s.drain(ctx, root)
		}
	}
}

// drain runs batches until the crawl is done, the root is busy, a batch
// fails or ctx is done.
func (s *Scheduler) drain(ctx context.Context, root Root) drainResult {
	logger := contextutil.LoggerFromContext(ctx)
	for ctx.Err() == nil {
		result, err := s.runner.Run(ctx, root.ID, root.BatchFiles)
		if err != nil {
			if errors.Is(err, ErrRootBusy) {
				logger.InfoContext(ctx, "sync already running, scheduler yields")
				return drainBusy
			}
			if ctx.Err() == nil {
				logger.ErrorContext(ctx, "scheduled batch failed", "error", err)
			}
			return drainStopped
		}
		if result.Done {
			logger.InfoContext(ctx, "crawl finished",
				"scanned_files", result.State.ScannedFiles,
				"indexed", result.State.Indexed,
				"skipped", result.State.Skipped,
				"errors", result.State.Errors,
			)
			return drainDone
		}
	}
	return drainStopped
}
