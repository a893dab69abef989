package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/mock/gomock"

	"driveindex/internal/handlers"
	"driveindex/internal/handlers/mocks"
	"driveindex/internal/jobs"
	"driveindex/internal/storage"
)

func newTestRouter(t *testing.T) (http.Handler, *mocks.MockStateReader, *mocks.MockJobRunner) {
	t.Helper()
	ctrl := gomock.NewController(t)
	states := mocks.NewMockStateReader(ctrl)
	runner := mocks.NewMockJobRunner(ctrl)

	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router := NewRouter(&Deps{
		Sync:   handlers.NewSyncHandler(states, runner, "root-1"),
		Health: health,
	})
	return router, states, runner
}

func TestNewRouter(t *testing.T) {
	router, _, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	router, states, runner := newTestRouter(t)

	states.EXPECT().BatchFiles().Return(10).AnyTimes()
	states.EXPECT().State(gomock.Any(), "root-1").Return(&storage.StateSummary{}, nil).AnyTimes()
	runner.EXPECT().Submit(gomock.Any(), "root-1", 10).Return(&jobs.Job{ID: "job-1"}, nil)
	runner.EXPECT().Running("root-1").Return(true)
	runner.EXPECT().Reset(gomock.Any(), "root-1").Return(&storage.StateSummary{QueueRemaining: 1}, nil)
	runner.EXPECT().Get("job-1").Return(&jobs.Job{ID: "job-1"}, true)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", wantStatus: http.StatusOK},
		{name: "start sync", method: http.MethodPost, path: "/api/drive/sync", wantStatus: http.StatusAccepted},
		{name: "state", method: http.MethodGet, path: "/api/drive/sync/state", wantStatus: http.StatusOK},
		{name: "reset", method: http.MethodPost, path: "/api/drive/sync/reset", wantStatus: http.StatusOK},
		{name: "job", method: http.MethodGet, path: "/api/drive/sync/jobs/job-1", wantStatus: http.StatusOK},
		{name: "sync method not allowed", method: http.MethodGet, path: "/api/drive/sync", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/chat", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_RecoversFromPanic(t *testing.T) {
	ctrl := gomock.NewController(t)
	sync := handlers.NewSyncHandler(mocks.NewMockStateReader(ctrl), mocks.NewMockJobRunner(ctrl), "")
	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	router := NewRouter(&Deps{Sync: sync, Health: health})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Router panic status = %v, want %v", w.Code, http.StatusInternalServerError)
	}
}
