// Package source defines the contracts for remote hierarchical file stores:
// listing a container page by page and retrieving file content.
package source

import (
	"context"
	"errors"
	"time"
)

// ErrExportUnsupported is returned by a Fetcher that cannot convert a
// document into another representation.
var ErrExportUnsupported = errors.New("export not supported by source")

// Entry is a single child of a listed container.
type Entry struct {
	ID           string
	Name         string
	IsContainer  bool
	MimeType     string
	ViewLink     string
	ModifiedTime time.Time // zero when the source does not report it
	ContentHash  string    // empty when the source does not report it
	SizeBytes    int64     // zero when the source does not report it
}

// Page is one page of a container listing.
// NextPageToken is empty when there are no more pages.
type Page struct {
	Entries       []Entry
	NextPageToken string
}

// Walker lists the children of a container.
// An empty pageToken requests the first page. Pagination must be stable for
// an unchanged container: listing the same token twice yields the same entries.
type Walker interface {
	ListChildren(ctx context.Context, containerID, pageToken string) (*Page, error)
}

// Fetcher retrieves file content.
type Fetcher interface {
	// FetchBytes downloads the stored bytes of a file.
	FetchBytes(ctx context.Context, fileID string) ([]byte, error)
	// ExportBytes asks the source to convert a native document to targetFormat
	// (a MIME type) and returns the converted bytes.
	ExportBytes(ctx context.Context, fileID, targetFormat string) ([]byte, error)
}

// Source is a store that can be both walked and read.
type Source interface {
	Walker
	Fetcher
}
