package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_state_store.go -package=mocks driveindex/internal/storage StateStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// StateStore defines the interface for crawl state persistence.
type StateStore interface {
	// GetOrInit returns the state of a root, creating the initial state on first access.
	GetOrInit(ctx context.Context, rootID string) (*CrawlState, error)
	// Save overwrites the persisted state of a root.
	Save(ctx context.Context, rootID string, state *CrawlState) error
	// Reset rewrites the state of a root to its initial form.
	Reset(ctx context.Context, rootID string) (*CrawlState, error)
}

// StateRepo stores one JSON CrawlState document per root container.
// It implements the StateStore interface.
type StateRepo struct {
	db *DB
}

// NewStateRepo creates a new StateRepo.
func NewStateRepo(db *DB) *StateRepo {
	return &StateRepo{db: db}
}

// GetOrInit returns the state of a root. Documents written by older versions
// are migrated on read; the migrated form is persisted on the next Save.
func (r *StateRepo) GetOrInit(ctx context.Context, rootID string) (*CrawlState, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT state FROM drive_sync_state WHERE folder_id = ?"),
		rootID,
	).Scan(&raw)

	if errors.Is(err, sql.ErrNoRows) {
		state := NewCrawlState(rootID)
		if err := r.insertInitial(ctx, rootID, state); err != nil {
			return nil, err
		}
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl state: %w", err)
	}

	state, err := MigrateCrawlState([]byte(raw), rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode crawl state for %s: %w", rootID, err)
	}
	return state, nil
}

func (r *StateRepo) insertInitial(ctx context.Context, rootID string, state *CrawlState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode crawl state: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO drive_sync_state (folder_id, state) VALUES (?, ?)
		 ON CONFLICT (folder_id) DO NOTHING`),
		rootID, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl state: %w", err)
	}
	return nil
}

// Save overwrites the persisted state of a root.
func (r *StateRepo) Save(ctx context.Context, rootID string, state *CrawlState) error {
	state.Version = CrawlStateVersion
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode crawl state: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO drive_sync_state (folder_id, state, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (folder_id) DO UPDATE SET
		 state = excluded.state, updated_at = CURRENT_TIMESTAMP`),
		rootID, string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to save crawl state: %w", err)
	}
	return nil
}

// Reset rewrites the state of a root to its initial form.
// It is idempotent and safe to call at any time.
func (r *StateRepo) Reset(ctx context.Context, rootID string) (*CrawlState, error) {
	state := NewCrawlState(rootID)
	if err := r.Save(ctx, rootID, state); err != nil {
		return nil, err
	}
	return state, nil
}
