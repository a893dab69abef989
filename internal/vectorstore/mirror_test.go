package vectorstore_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"driveindex/internal/storage"
	"driveindex/internal/vectorstore"
	vectorstore_mocks "driveindex/internal/vectorstore/mocks"
)

func chunks(n int) []*storage.ChunkRecord {
	out := make([]*storage.ChunkRecord, n)
	for i := range out {
		out[i] = &storage.ChunkRecord{
			ChunkIndex: i,
			Content:    "text",
			Embedding:  []float32{float32(i)},
			Metadata: storage.ChunkMetadata{
				FileName:     "doc.txt",
				MimeType:     "text/plain",
				ModifiedTime: "2024-01-01T00:00:00Z",
			},
		}
	}
	return out
}

func TestPointID(t *testing.T) {
	a := vectorstore.PointID("root", "f1", 0)
	if a != vectorstore.PointID("root", "f1", 0) {
		t.Error("PointID() is not deterministic")
	}
	for _, other := range []string{
		vectorstore.PointID("root", "f1", 1),
		vectorstore.PointID("root", "f2", 0),
		vectorstore.PointID("other", "f1", 0),
	} {
		if other == a {
			t.Errorf("PointID() collision: %s", other)
		}
	}
}

func TestMirror_Sync(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	mirror := vectorstore.NewMirror(store, "drive_chunks")

	store.EXPECT().
		Upsert(gomock.Any(), "drive_chunks", gomock.Len(2)).
		DoAndReturn(func(_ context.Context, _ string, points []vectorstore.Point) error {
			for i, p := range points {
				if p.ID != vectorstore.PointID("root", "f1", i) {
					t.Errorf("point %d ID = %s", i, p.ID)
				}
				if p.Meta[vectorstore.PayloadFileID] != "f1" || p.Meta[vectorstore.PayloadChunkIndex] != int64(i) {
					t.Errorf("point %d Meta = %v", i, p.Meta)
				}
				if _, ok := p.Meta[vectorstore.PayloadWebViewLink]; ok {
					t.Errorf("point %d has empty web view link in payload", i)
				}
			}
			return nil
		})
	store.EXPECT().
		Delete(gomock.Any(), "drive_chunks", []string{
			vectorstore.PointID("root", "f1", 2),
			vectorstore.PointID("root", "f1", 3),
		}).
		Return(nil)

	if err := mirror.Sync(context.Background(), "root", "f1", chunks(2), 4); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestMirror_Sync_NoStalePoints(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	mirror := vectorstore.NewMirror(store, "c")

	store.EXPECT().Upsert(gomock.Any(), "c", gomock.Len(3)).Return(nil)

	if err := mirror.Sync(context.Background(), "root", "f1", chunks(3), 2); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
}

func TestMirror_Sync_UpsertError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := vectorstore_mocks.NewMockVectorStore(ctrl)
	mirror := vectorstore.NewMirror(store, "c")

	boom := errors.New("unavailable")
	store.EXPECT().Upsert(gomock.Any(), "c", gomock.Any()).Return(boom)

	if err := mirror.Sync(context.Background(), "root", "f1", chunks(1), 5); !errors.Is(err, boom) {
		t.Errorf("Sync() error = %v, want %v", err, boom)
	}
}
