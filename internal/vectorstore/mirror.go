package vectorstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"driveindex/internal/contextutil"
	"driveindex/internal/storage"
)

// Payload keys of mirrored points.
const (
	PayloadFolderID     = "folder_id"
	PayloadFileID       = "file_id"
	PayloadChunkIndex   = "chunk_index"
	PayloadContent      = "content"
	PayloadFileName     = "file_name"
	PayloadMimeType     = "mime_type"
	PayloadModifiedTime = "modified_time"
	PayloadWebViewLink  = "web_view_link"
)

// Mirror copies committed chunk sets into a vector collection.
// Point ids are derived from (folder, file, chunk index), so re-indexing a
// file overwrites its previous points in place.
type Mirror struct {
	store      VectorStore
	collection string
}

// NewMirror creates a mirror writing to collection.
func NewMirror(store VectorStore, collection string) *Mirror {
	return &Mirror{store: store, collection: collection}
}

// PointID returns the point id of one chunk.
func PointID(folderID, fileID string, chunkIndex int) string {
	name := fmt.Sprintf("%s/%s/%d", folderID, fileID, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Sync upserts the chunks of a file and deletes the points of chunk indexes
// that existed before (previous) but are gone now.
func (m *Mirror) Sync(ctx context.Context, folderID, fileID string, chunks []*storage.ChunkRecord, previous int) error {
	points := make([]Point, 0, len(chunks))
	for _, c := range chunks {
		meta := map[string]any{
			PayloadFolderID:   folderID,
			PayloadFileID:     fileID,
			PayloadChunkIndex: int64(c.ChunkIndex),
			PayloadContent:    c.Content,
			PayloadFileName:   c.Metadata.FileName,
			PayloadMimeType:   c.Metadata.MimeType,
		}
		if c.Metadata.ModifiedTime != "" {
			meta[PayloadModifiedTime] = c.Metadata.ModifiedTime
		}
		if c.Metadata.WebViewLink != "" {
			meta[PayloadWebViewLink] = c.Metadata.WebViewLink
		}
		points = append(points, Point{
			ID:   PointID(folderID, fileID, c.ChunkIndex),
			Vec:  c.Embedding,
			Meta: meta,
		})
	}

	if err := m.store.Upsert(ctx, m.collection, points); err != nil {
		return err
	}

	var stale []string
	for i := len(chunks); i < previous; i++ {
		stale = append(stale, PointID(folderID, fileID, i))
	}
	if len(stale) > 0 {
		if err := m.store.Delete(ctx, m.collection, stale); err != nil {
			return err
		}
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "mirrored chunks",
		"collection", m.collection,
		"upserted", len(points),
		"deleted", len(stale),
	)
	return nil
}
