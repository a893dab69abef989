package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks driveindex/internal/storage ChunkStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// ReplaceForFile atomically replaces the whole chunk set of a file and marks
	// its FileRecord indexed. It returns the number of chunks that were replaced.
	// On failure nothing is changed.
	ReplaceForFile(ctx context.Context, folderID, fileID string, chunks []*ChunkRecord) (int, error)
	// ListByFile returns all chunks of a file ordered by chunk_index.
	ListByFile(ctx context.Context, folderID, fileID string) ([]*ChunkRecord, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// ReplaceForFile deletes every chunk of the file, inserts the new set and flips
// the FileRecord to indexed with its error cleared, all in one transaction.
// The chunk IDs must be set (UUID) before calling this method.
func (r *ChunkRepo) ReplaceForFile(ctx context.Context, folderID, fileID string, chunks []*ChunkRecord) (previous int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.QueryRowContext(ctx,
		r.db.Rebind("SELECT COUNT(*) FROM drive_chunks WHERE folder_id = ? AND drive_file_id = ?"),
		folderID, fileID,
	).Scan(&previous); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		r.db.Rebind("DELETE FROM drive_chunks WHERE folder_id = ? AND drive_file_id = ?"),
		folderID, fileID,
	); err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.db.Rebind(
		`INSERT INTO drive_chunks (id, folder_id, drive_file_id, chunk_index, content, embedding, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, chunk := range chunks {
		meta, mErr := json.Marshal(chunk.Metadata)
		if mErr != nil {
			err = fmt.Errorf("failed to encode chunk metadata: %w", mErr)
			return 0, err
		}
		if _, err = stmt.ExecContext(ctx,
			chunk.ID, folderID, fileID, chunk.ChunkIndex, chunk.Content,
			EncodeEmbedding(chunk.Embedding), string(meta),
		); err != nil {
			return 0, fmt.Errorf("failed to insert chunk %d: %w", chunk.ChunkIndex, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		r.db.Rebind(`UPDATE drive_files SET status = ?, error_message = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE folder_id = ? AND drive_file_id = ?`),
		string(StatusIndexed), folderID, fileID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark file indexed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		err = fmt.Errorf("file %s/%s: %w", folderID, fileID, ErrNotFound)
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chunks: %w", err)
	}
	return previous, nil
}

// ListByFile returns all chunks of a file ordered by chunk_index.
// Returns an empty slice if no chunks exist (not an error).
func (r *ChunkRepo) ListByFile(ctx context.Context, folderID, fileID string) ([]*ChunkRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		r.db.Rebind(`SELECT id, folder_id, drive_file_id, chunk_index, content, embedding, metadata
		 FROM drive_chunks WHERE folder_id = ? AND drive_file_id = ? ORDER BY chunk_index`),
		folderID, fileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	chunks := []*ChunkRecord{}
	for rows.Next() {
		var (
			chunk ChunkRecord
			blob  []byte
			meta  sql.NullString
		)
		if err := rows.Scan(&chunk.ID, &chunk.FolderID, &chunk.FileID, &chunk.ChunkIndex,
			&chunk.Content, &blob, &meta); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.Embedding, err = DecodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", chunk.ID, err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return chunks, nil
}
