package storage

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestStateRepo_GetOrInit(t *testing.T) {
	db := newTestDB(t)
	repo := NewStateRepo(db)
	ctx := context.Background()

	state, err := repo.GetOrInit(ctx, "root")
	if err != nil {
		t.Fatalf("GetOrInit() error = %v", err)
	}

	want := NewCrawlState("root")
	if !reflect.DeepEqual(state, want) {
		t.Errorf("GetOrInit() = %+v, want %+v", state, want)
	}

	// A second call must read the stored document, not create another one.
	state.Indexed = 3
	if err := repo.Save(ctx, "root", state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := repo.GetOrInit(ctx, "root")
	if err != nil {
		t.Fatalf("GetOrInit() error = %v", err)
	}
	if again.Indexed != 3 {
		t.Errorf("GetOrInit() Indexed = %d, want 3", again.Indexed)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM drive_sync_state").Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("drive_sync_state rows = %d, want 1", rows)
	}
}

func TestStateRepo_SaveRoundTrip(t *testing.T) {
	repo := NewStateRepo(newTestDB(t))
	ctx := context.Background()

	state := &CrawlState{
		Queue: []QueueEntry{
			{ID: "folder-a", PageToken: "tok", Offset: 3},
			{ID: "folder-b"},
		},
		ScannedFolders: 4,
		ScannedFiles:   9,
		Indexed:        5,
		Skipped:        2,
		Errors:         1,
	}
	if err := repo.Save(ctx, "root", state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := repo.GetOrInit(ctx, "root")
	if err != nil {
		t.Fatalf("GetOrInit() error = %v", err)
	}
	if got.Version != CrawlStateVersion {
		t.Errorf("Version = %d, want %d", got.Version, CrawlStateVersion)
	}
	if !reflect.DeepEqual(got.Queue, state.Queue) {
		t.Errorf("Queue = %+v, want %+v", got.Queue, state.Queue)
	}
	if got.Summary() != state.Summary() {
		t.Errorf("Summary() = %+v, want %+v", got.Summary(), state.Summary())
	}
}

func TestStateRepo_Reset(t *testing.T) {
	repo := NewStateRepo(newTestDB(t))
	ctx := context.Background()

	done := &CrawlState{Done: true, Queue: []QueueEntry{}, Indexed: 10, Errors: 2}
	if err := repo.Save(ctx, "root", done); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		state, err := repo.Reset(ctx, "root")
		if err != nil {
			t.Fatalf("Reset() error = %v", err)
		}
		if !reflect.DeepEqual(state, NewCrawlState("root")) {
			t.Errorf("Reset() = %+v, want initial state", state)
		}
	}

	got, err := repo.GetOrInit(ctx, "root")
	if err != nil {
		t.Fatalf("GetOrInit() error = %v", err)
	}
	if got.Done || got.Indexed != 0 || len(got.Queue) != 1 || got.Queue[0].ID != "root" {
		t.Errorf("state after Reset() = %+v", got)
	}

	// Reset of a root that was never seen creates it.
	fresh, err := repo.Reset(ctx, "other")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if fresh.Queue[0].ID != "other" {
		t.Errorf("Reset() queue = %+v", fresh.Queue)
	}
}

func TestStateRepo_GetOrInit_MigratesLegacyDocument(t *testing.T) {
	db := newTestDB(t)
	repo := NewStateRepo(db)

	legacy := `{"queue":["a","b"],"done":false,"scannedFolders":2,"indexed":1}`
	if _, err := db.Exec("INSERT INTO drive_sync_state (folder_id, state) VALUES (?, ?)", "root", legacy); err != nil {
		t.Fatalf("insert legacy state: %v", err)
	}

	state, err := repo.GetOrInit(context.Background(), "root")
	if err != nil {
		t.Fatalf("GetOrInit() error = %v", err)
	}
	want := []QueueEntry{{ID: "a"}, {ID: "b"}}
	if !reflect.DeepEqual(state.Queue, want) {
		t.Errorf("Queue = %+v, want %+v", state.Queue, want)
	}
	if state.Version != CrawlStateVersion || state.ScannedFolders != 2 || state.Indexed != 1 {
		t.Errorf("migrated state = %+v", state)
	}
}

func TestMigrateCrawlState(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantQueue []QueueEntry
		wantDone  bool
		wantErr   string
	}{
		{
			name:      "legacy string queue",
			raw:       `{"queue":["x","y"]}`,
			wantQueue: []QueueEntry{{ID: "x"}, {ID: "y"}},
		},
		{
			name:      "legacy object queue with null token",
			raw:       `{"queue":[{"id":"x","pageToken":null},{"id":"y","pageToken":"p2"}]}`,
			wantQueue: []QueueEntry{{ID: "x"}, {ID: "y", PageToken: "p2"}},
		},
		{
			name:      "legacy entries without id are dropped",
			raw:       `{"queue":[{"pageToken":"p"},"",null,"z"]}`,
			wantQueue: []QueueEntry{{ID: "z"}},
		},
		{
			name:      "legacy empty queue restarts from root",
			raw:       `{"queue":[],"done":false}`,
			wantQueue: []QueueEntry{{ID: "root"}},
		},
		{
			name:      "legacy missing queue restarts from root",
			raw:       `{}`,
			wantQueue: []QueueEntry{{ID: "root"}},
		},
		{
			name:      "legacy finished crawl keeps empty queue",
			raw:       `{"queue":[],"done":true}`,
			wantQueue: []QueueEntry{},
			wantDone:  true,
		},
		{
			name:      "current version passes through",
			raw:       `{"version":1,"queue":[{"id":"x","pageToken":"t","offset":2}],"done":false}`,
			wantQueue: []QueueEntry{{ID: "x", PageToken: "t", Offset: 2}},
		},
		{
			name:      "current version empty queue is not coerced",
			raw:       `{"version":1,"queue":[],"done":true}`,
			wantQueue: []QueueEntry{},
			wantDone:  true,
		},
		{
			name:    "future version",
			raw:     `{"version":7,"queue":[]}`,
			wantErr: "unsupported crawl state version",
		},
		{
			name:    "legacy queue of wrong type",
			raw:     `{"queue":"abc"}`,
			wantErr: "legacy queue is not an array",
		},
		{
			name:    "not json",
			raw:     `nope`,
			wantErr: "invalid crawl state document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MigrateCrawlState([]byte(tt.raw), "root")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("MigrateCrawlState() error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MigrateCrawlState() error = %v", err)
			}
			if got.Version != CrawlStateVersion {
				t.Errorf("Version = %d, want %d", got.Version, CrawlStateVersion)
			}
			if !reflect.DeepEqual(got.Queue, tt.wantQueue) {
				t.Errorf("Queue = %+v, want %+v", got.Queue, tt.wantQueue)
			}
			if got.Done != tt.wantDone {
				t.Errorf("Done = %v, want %v", got.Done, tt.wantDone)
			}
		})
	}
}
