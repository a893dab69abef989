package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_file_store.go -package=mocks driveindex/internal/storage FileStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FileStore defines the interface for file record operations.
type FileStore interface {
	// Get gets a file record by its (folder, file) identity.
	// Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, folderID, fileID string) (*FileRecord, error)
	// Upsert inserts a file record or overwrites all attributes of an existing one.
	Upsert(ctx context.Context, rec *FileRecord) error
}

// FileRepo provides methods for file record operations.
// It implements the FileStore interface.
type FileRepo struct {
	db *DB
}

// NewFileRepo creates a new FileRepo.
func NewFileRepo(db *DB) *FileRepo {
	return &FileRepo{db: db}
}

// Get gets a file record by its (folder, file) identity.
func (r *FileRepo) Get(ctx context.Context, folderID, fileID string) (*FileRecord, error) {
	var (
		rec       FileRecord
		link      sql.NullString
		modified  sql.NullString
		checksum  sql.NullString
		size      sql.NullInt64
		errMsg    sql.NullString
		status    string
		updatedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT folder_id, drive_file_id, name, mime_type, web_view_link, modified_time,
		 md5_checksum, size_bytes, status, error_message, updated_at
		 FROM drive_files WHERE folder_id = ? AND drive_file_id = ?`),
		folderID, fileID,
	).Scan(&rec.FolderID, &rec.FileID, &rec.Name, &rec.MimeType, &link, &modified,
		&checksum, &size, &status, &errMsg, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query file record: %w", err)
	}

	rec.ViewLink = link.String
	rec.ContentHash = checksum.String
	rec.SizeBytes = size.Int64
	rec.Status = FileStatus(status)
	rec.ErrorMessage = errMsg.String
	rec.UpdatedAt = updatedAt.Time
	if modified.Valid && modified.String != "" {
		rec.ModifiedTime, err = time.Parse(time.RFC3339Nano, modified.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse modified_time: %w", err)
		}
	}

	return &rec, nil
}

// Upsert inserts a file record or overwrites all attributes of an existing one.
// An empty ErrorMessage clears any previously stored error.
func (r *FileRepo) Upsert(ctx context.Context, rec *FileRecord) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind(`INSERT INTO drive_files
		 (folder_id, drive_file_id, name, mime_type, web_view_link, modified_time, md5_checksum, size_bytes, status, error_message, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (folder_id, drive_file_id) DO UPDATE SET
		 name = excluded.name,
		 mime_type = excluded.mime_type,
		 web_view_link = excluded.web_view_link,
		 modified_time = excluded.modified_time,
		 md5_checksum = excluded.md5_checksum,
		 size_bytes = excluded.size_bytes,
		 status = excluded.status,
		 error_message = excluded.error_message,
		 updated_at = CURRENT_TIMESTAMP`),
		rec.FolderID, rec.FileID, rec.Name, rec.MimeType,
		nullString(rec.ViewLink), nullTime(rec.ModifiedTime), nullString(rec.ContentHash),
		nullInt64(rec.SizeBytes), string(rec.Status), nullString(rec.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert file record: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}

// nullTime stores instants as RFC 3339 text in UTC so both dialects compare them identically.
func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}
