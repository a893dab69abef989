package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"driveindex/internal/contextutil"
	"driveindex/internal/source"
	"driveindex/internal/storage"
)

// DefaultBatchFiles is the per-batch file limit used when none is given.
const DefaultBatchFiles = 10

const untitled = "(untitled)"

// Skip reasons recorded on FileRecords.
const (
	reasonEmptyText   = "unsupported type or empty text"
	reasonEmptyChunks = "empty text after chunking"
)

// ErrMissingRoot is returned when a batch is requested without a root container id.
var ErrMissingRoot = errors.New("root container id is required")

// Embedder maps texts to vectors, one per text, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Extractor returns the normalized text of a file, or "" for unsupported formats.
type Extractor interface {
	Extract(ctx context.Context, src source.Fetcher, entry source.Entry) (string, error)
}

// Mirror receives every committed chunk set. previous is the number of chunks
// the file had before the commit.
type Mirror interface {
	Sync(ctx context.Context, folderID, fileID string, chunks []*storage.ChunkRecord, previous int) error
}

// Deps are the collaborators of an Engine. Mirror is optional.
type Deps struct {
	States    storage.StateStore
	Files     storage.FileStore
	Chunks    storage.ChunkStore
	Source    source.Source
	Extractor Extractor
	Embedder  Embedder
	Mirror    Mirror
}

// Options tune an Engine.
type Options struct {
	BatchFiles    int   // default file limit per batch
	MaxFileBytes  int64 // files reporting more bytes are skipped; 0 disables the check
	ChunkMaxChars int
	ChunkOverlap  int
}

// BatchCounts are the per-call outcome counters of RunBatch.
type BatchCounts struct {
	Processed int `json:"processed"`
	Indexed   int `json:"indexed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Unchanged int `json:"unchanged"`
}

// BatchResult is the report of one RunBatch call.
type BatchResult struct {
	Done           bool                 `json:"done"`
	QueueRemaining int                  `json:"queueRemaining"`
	State          storage.StateSummary `json:"state"`
	Counts         BatchCounts          `json:"result"`
}

type outcome int

const (
	outcomeIndexed outcome = iota
	outcomeSkipped
	outcomeUnchanged
)

// Engine drives the crawl of root containers one bounded batch at a time.
//
// Concurrent RunBatch calls for the same root are not synchronized here;
// callers serialize them (see RootLocks).
type Engine struct {
	deps    Deps
	opts    Options
	chunker *Chunker
}

// NewEngine creates a new sync engine.
func NewEngine(deps Deps, opts Options) *Engine {
	if opts.BatchFiles <= 0 {
		opts.BatchFiles = DefaultBatchFiles
	}
	return &Engine{
		deps:    deps,
		opts:    opts,
		chunker: NewChunker(opts.ChunkMaxChars, opts.ChunkOverlap),
	}
}

// BatchFiles returns the default per-batch file limit.
func (e *Engine) BatchFiles() int {
	return e.opts.BatchFiles
}

// RunBatch processes at most maxFiles files of rootID's crawl and persists the
// progress. maxFiles <= 0 selects the configured default. A finished crawl
// returns immediately without doing any work.
//
// A listing failure puts the failed queue entry back, saves the state and
// returns the error. Per-file failures are recorded and never abort the batch.
func (e *Engine) RunBatch(ctx context.Context, rootID string, maxFiles int) (*BatchResult, error) {
	if rootID == "" {
		return nil, ErrMissingRoot
	}
	if maxFiles <= 0 {
		maxFiles = e.opts.BatchFiles
	}

	logger := contextutil.LoggerFromContext(ctx).With("root_id", rootID)
	ctx = contextutil.WithLogger(ctx, logger)
	// progress is saved even when ctx is cancelled mid-batch
	persistCtx := context.WithoutCancel(ctx)

	state, err := e.deps.States.GetOrInit(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to load crawl state: %w", err)
	}
	if state.Done {
		return newBatchResult(state, BatchCounts{}), nil
	}

	var counts BatchCounts
	for !state.Done && counts.Processed < maxFiles {
		if len(state.Queue) == 0 {
			state.Done = true
			break
		}

		entry := state.Queue[0]
		state.Queue = state.Queue[1:]
		if entry.ID == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			state.Queue = prepend(state.Queue, entry)
			return nil, e.abort(ctx, rootID, state, err)
		}

		page, err := e.deps.Source.ListChildren(ctx, entry.ID, entry.PageToken)
		if err != nil {
			state.Queue = prepend(state.Queue, entry)
			return nil, e.abort(ctx, rootID, state, fmt.Errorf("failed to list container %s: %w", entry.ID, err))
		}
		state.ScannedFolders++

		// A re-entered page already queued its continuation on the first visit.
		if page.NextPageToken != "" && entry.Offset == 0 {
			state.Queue = prepend(state.Queue, storage.QueueEntry{ID: entry.ID, PageToken: page.NextPageToken})
		}

		for i := entry.Offset; i < len(page.Entries); i++ {
			child := page.Entries[i]
			if child.IsContainer {
				state.Queue = append(state.Queue, storage.QueueEntry{ID: child.ID})
				continue
			}
			if counts.Processed >= maxFiles || ctx.Err() != nil {
				requeue(state, entry, page, i)
				break
			}

			if !e.handleFile(ctx, rootID, child, state, &counts) {
				// interrupted files are retried on the next call
				requeue(state, entry, page, i)
				break
			}
			state.ScannedFiles++
			counts.Processed++
		}

		if err := e.deps.States.Save(persistCtx, rootID, state); err != nil {
			return nil, fmt.Errorf("failed to save crawl state: %w", err)
		}
	}

	if len(state.Queue) == 0 {
		state.Done = true
	}
	if err := e.deps.States.Save(persistCtx, rootID, state); err != nil {
		return nil, fmt.Errorf("failed to save crawl state: %w", err)
	}

	logger.InfoContext(ctx, "batch completed",
		"done", state.Done,
		"queue_remaining", len(state.Queue),
		"processed", counts.Processed,
		"indexed", counts.Indexed,
		"skipped", counts.Skipped,
		"errors", counts.Errors,
		"unchanged", counts.Unchanged,
	)
	return newBatchResult(state, counts), nil
}

// State returns the compact summary of a root's crawl, initializing it on first access.
func (e *Engine) State(ctx context.Context, rootID string) (*storage.StateSummary, error) {
	if rootID == "" {
		return nil, ErrMissingRoot
	}
	state, err := e.deps.States.GetOrInit(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to load crawl state: %w", err)
	}
	summary := state.Summary()
	return &summary, nil
}

// Reset rewrites a root's crawl state to its initial form.
func (e *Engine) Reset(ctx context.Context, rootID string) (*storage.StateSummary, error) {
	if rootID == "" {
		return nil, ErrMissingRoot
	}
	state, err := e.deps.States.Reset(ctx, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to reset crawl state: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "crawl state reset", "root_id", rootID)
	summary := state.Summary()
	return &summary, nil
}

// abort persists the state after a failed listing and returns cause.
func (e *Engine) abort(ctx context.Context, rootID string, state *storage.CrawlState, cause error) error {
	if err := e.deps.States.Save(context.WithoutCancel(ctx), rootID, state); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to save crawl state", "error", err)
	}
	return cause
}

// handleFile processes one file and books its outcome. Errors are recorded on
// the file's record and never propagate. It returns false when ctx was
// cancelled before the file finished; nothing is booked in that case.
func (e *Engine) handleFile(ctx context.Context, rootID string, entry source.Entry, state *storage.CrawlState, counts *BatchCounts) bool {
	logger := contextutil.LoggerFromContext(ctx).With("file_id", entry.ID)
	ctx = contextutil.WithLogger(ctx, logger)
	persistCtx := context.WithoutCancel(ctx)

	out, err := e.processFile(ctx, logger, rootID, entry)
	if err != nil && ctx.Err() != nil {
		logger.InfoContext(ctx, "file processing interrupted", "name", entry.Name, "error", err)
		rec := newFileRecord(rootID, entry, storage.StatusSkipped, fmt.Sprintf("processing interrupted: %v", err))
		if uErr := e.deps.Files.Upsert(persistCtx, rec); uErr != nil {
			logger.ErrorContext(ctx, "failed to record file interruption", "error", uErr)
		}
		return false
	}
	if err != nil {
		counts.Errors++
		state.Errors++
		logger.WarnContext(ctx, "failed to process file", "name", entry.Name, "error", err)

		rec := newFileRecord(rootID, entry, storage.StatusSkipped, fmt.Sprintf("processing failed: %v", err))
		if uErr := e.deps.Files.Upsert(persistCtx, rec); uErr != nil {
			logger.ErrorContext(ctx, "failed to record file error", "error", uErr)
		}
		return true
	}

	switch out {
	case outcomeIndexed:
		counts.Indexed++
		state.Indexed++
	case outcomeSkipped:
		counts.Skipped++
		state.Skipped++
	case outcomeUnchanged:
		counts.Unchanged++
	}
	return true
}

func (e *Engine) processFile(ctx context.Context, logger *slog.Logger, rootID string, entry source.Entry) (outcome, error) {
	if e.opts.MaxFileBytes > 0 && entry.SizeBytes > e.opts.MaxFileBytes {
		return e.skip(ctx, logger, rootID, entry, fmt.Sprintf("file too large (%d bytes)", entry.SizeBytes))
	}

	existing, err := e.deps.Files.Get(ctx, rootID, entry.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("failed to load file record: %w", err)
	}
	if existing != nil && unchanged(existing, entry) {
		logger.DebugContext(ctx, "skipping unchanged file", "name", entry.Name)
		return outcomeUnchanged, nil
	}

	if err := e.deps.Files.Upsert(ctx, newFileRecord(rootID, entry, storage.StatusProcessing, "")); err != nil {
		return 0, err
	}

	text, err := e.deps.Extractor.Extract(ctx, e.deps.Source, entry)
	if err != nil {
		return 0, fmt.Errorf("failed to extract text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return e.skip(ctx, logger, rootID, entry, reasonEmptyText)
	}

	pieces := e.chunker.Split(text)
	if len(pieces) == 0 {
		return e.skip(ctx, logger, rootID, entry, reasonEmptyChunks)
	}

	vectors, err := e.deps.Embedder.EmbedTexts(ctx, pieces)
	if err != nil {
		return 0, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(pieces) {
		return 0, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(pieces), len(vectors))
	}

	meta := chunkMetadata(entry)
	records := make([]*storage.ChunkRecord, len(pieces))
	for i, piece := range pieces {
		records[i] = &storage.ChunkRecord{
			ID:         uuid.New().String(),
			FolderID:   rootID,
			FileID:     entry.ID,
			ChunkIndex: i,
			Content:    piece,
			Embedding:  vectors[i],
			Metadata:   meta,
		}
	}

	previous, err := e.deps.Chunks.ReplaceForFile(ctx, rootID, entry.ID, records)
	if err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	if e.deps.Mirror != nil {
		if err := e.deps.Mirror.Sync(ctx, rootID, entry.ID, records, previous); err != nil {
			logger.WarnContext(ctx, "failed to mirror chunks", "error", err)
		}
	}

	logger.InfoContext(ctx, "indexed file", "name", entry.Name, "chunks", len(records), "replaced", previous)
	return outcomeIndexed, nil
}

func (e *Engine) skip(ctx context.Context, logger *slog.Logger, rootID string, entry source.Entry, reason string) (outcome, error) {
	if err := e.deps.Files.Upsert(ctx, newFileRecord(rootID, entry, storage.StatusSkipped, reason)); err != nil {
		return 0, err
	}
	logger.WarnContext(ctx, "skipped file", "name", entry.Name, "reason", reason)
	return outcomeSkipped, nil
}

// unchanged reports whether an indexed record still matches the listed
// metadata by checksum or by modification instant.
func unchanged(rec *storage.FileRecord, entry source.Entry) bool {
	if rec.Status != storage.StatusIndexed {
		return false
	}
	sameHash := entry.ContentHash != "" && rec.ContentHash == entry.ContentHash
	sameTime := !entry.ModifiedTime.IsZero() && !rec.ModifiedTime.IsZero() && rec.ModifiedTime.Equal(entry.ModifiedTime)
	return sameHash || sameTime
}

func newFileRecord(rootID string, entry source.Entry, status storage.FileStatus, message string) *storage.FileRecord {
	return &storage.FileRecord{
		FolderID:     rootID,
		FileID:       entry.ID,
		Name:         displayName(entry),
		MimeType:     entry.MimeType,
		ViewLink:     entry.ViewLink,
		ModifiedTime: entry.ModifiedTime,
		ContentHash:  entry.ContentHash,
		SizeBytes:    entry.SizeBytes,
		Status:       status,
		ErrorMessage: message,
	}
}

func chunkMetadata(entry source.Entry) storage.ChunkMetadata {
	meta := storage.ChunkMetadata{
		FileName:    displayName(entry),
		MimeType:    entry.MimeType,
		WebViewLink: entry.ViewLink,
	}
	if !entry.ModifiedTime.IsZero() {
		meta.ModifiedTime = entry.ModifiedTime.UTC().Format(time.RFC3339)
	}
	return meta
}

func displayName(entry source.Entry) string {
	if entry.Name == "" {
		return untitled
	}
	return entry.Name
}

// requeue puts a partly handled page back at the front of the queue, resuming
// at index i. A page resumed from its start queues its continuation again, so
// the continuation pushed on this visit is dropped.
func requeue(state *storage.CrawlState, entry storage.QueueEntry, page *source.Page, i int) {
	if i == 0 && entry.Offset == 0 && page.NextPageToken != "" && len(state.Queue) > 0 &&
		state.Queue[0].ID == entry.ID && state.Queue[0].PageToken == page.NextPageToken {
		state.Queue = state.Queue[1:]
	}
	state.Queue = prepend(state.Queue, storage.QueueEntry{ID: entry.ID, PageToken: entry.PageToken, Offset: i})
}

func prepend(queue []storage.QueueEntry, entry storage.QueueEntry) []storage.QueueEntry {
	return append([]storage.QueueEntry{entry}, queue...)
}

func newBatchResult(state *storage.CrawlState, counts BatchCounts) *BatchResult {
	return &BatchResult{
		Done:           state.Done,
		QueueRemaining: len(state.Queue),
		State:          state.Summary(),
		Counts:         counts,
	}
}
