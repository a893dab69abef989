package handlers

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_sync.go -package=mocks driveindex/internal/handlers StateReader,JobRunner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"driveindex/internal/contextutil"
	"driveindex/internal/jobs"
	"driveindex/internal/storage"
)

// StateReader reads crawl progress.
type StateReader interface {
	State(ctx context.Context, rootID string) (*storage.StateSummary, error)
	BatchFiles() int
}

// JobRunner starts and tracks background batches.
type JobRunner interface {
	Submit(ctx context.Context, rootID string, batchFiles int) (*jobs.Job, error)
	Reset(ctx context.Context, rootID string) (*storage.StateSummary, error)
	Get(id string) (*jobs.Job, bool)
	Running(rootID string) bool
}

// SyncHandler serves the administrative sync endpoints.
type SyncHandler struct {
	states      StateReader
	runner      JobRunner
	defaultRoot string
}

// NewSyncHandler creates a new SyncHandler. defaultRoot is used when a
// request names no folder.
func NewSyncHandler(states StateReader, runner JobRunner, defaultRoot string) *SyncHandler {
	return &SyncHandler{
		states:      states,
		runner:      runner,
		defaultRoot: defaultRoot,
	}
}

// SyncRequest is the optional body of the sync and reset endpoints.
type SyncRequest struct {
	FolderID   string `json:"folderId,omitempty"`
	BatchFiles int    `json:"batchFiles,omitempty"`
}

// SyncResponse acknowledges a started batch.
type SyncResponse struct {
	OK         bool                  `json:"ok"`
	Started    bool                  `json:"started"`
	FolderID   string                `json:"folderId"`
	BatchFiles int                   `json:"batchFiles"`
	JobID      string                `json:"jobId"`
	Previous   *storage.StateSummary `json:"previous"`
}

// StateResponse reports the crawl progress of a folder.
type StateResponse struct {
	OK       bool                  `json:"ok"`
	FolderID string                `json:"folderId"`
	Running  bool                  `json:"running"`
	State    *storage.StateSummary `json:"state"`
}

// Sync starts a background batch.
//
// POST /api/drive/sync answers 202 right away; the batch keeps running after
// the response. 409 means a batch for the folder is already running.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	req, err := decodeSyncRequest(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid sync request", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rootID := h.rootID(r, req.FolderID)
	batchFiles := req.BatchFiles
	if batchFiles <= 0 {
		batchFiles = h.states.BatchFiles()
	}

	if rootID == "" {
		writeError(ctx, w, http.StatusBadRequest, "folderId is required")
		return
	}

	previous, err := h.states.State(ctx, rootID)
	if err != nil {
		logger.ErrorContext(ctx, "failed to read crawl state", "root_id", rootID, "error", err)
		writeDomainError(ctx, w, err)
		return
	}

	job, err := h.runner.Submit(ctx, rootID, batchFiles)
	if err != nil {
		if errors.Is(err, jobs.ErrRootBusy) {
			logger.InfoContext(ctx, "sync already running", "root_id", rootID)
		} else {
			logger.ErrorContext(ctx, "failed to start sync", "root_id", rootID, "error", err)
		}
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusAccepted, SyncResponse{
		OK:         true,
		Started:    true,
		FolderID:   rootID,
		BatchFiles: batchFiles,
		JobID:      job.ID,
		Previous:   previous,
	})
}

// State reports the compact crawl state of a folder.
//
// GET /api/drive/sync/state?folderId=
func (h *SyncHandler) State(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rootID := h.rootID(r, "")
	if rootID == "" {
		writeError(ctx, w, http.StatusBadRequest, "folderId is required")
		return
	}

	state, err := h.states.State(ctx, rootID)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to read crawl state", "root_id", rootID, "error", err)
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, StateResponse{
		OK:       true,
		FolderID: rootID,
		Running:  h.runner.Running(rootID),
		State:    state,
	})
}

// Reset restarts the crawl of a folder from scratch.
//
// POST /api/drive/sync/reset
func (h *SyncHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	req, err := decodeSyncRequest(r)
	if err != nil {
		logger.WarnContext(ctx, "invalid reset request", "error", err)
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}
	rootID := h.rootID(r, req.FolderID)
	if rootID == "" {
		writeError(ctx, w, http.StatusBadRequest, "folderId is required")
		return
	}

	state, err := h.runner.Reset(ctx, rootID)
	if err != nil {
		logger.WarnContext(ctx, "failed to reset crawl state", "root_id", rootID, "error", err)
		writeDomainError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, StateResponse{
		OK:       true,
		FolderID: rootID,
		State:    state,
	})
}

// Job reports the status of a background batch.
//
// GET /api/drive/sync/jobs/{id}
func (h *SyncHandler) Job(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	job, ok := h.runner.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(ctx, w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(ctx, w, http.StatusOK, job)
}

// rootID picks the folder from the body, then the query, then the default.
func (h *SyncHandler) rootID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if q := r.URL.Query().Get("folderId"); q != "" {
		return q
	}
	return h.defaultRoot
}

// decodeSyncRequest reads an optional JSON body; an empty body is valid.
func decodeSyncRequest(r *http.Request) (SyncRequest, error) {
	var req SyncRequest
	if r.Body == nil {
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	if errors.Is(err, io.EOF) {
		return req, nil
	}
	return req, err
}
