// Package afsource implements the crawl source over github.com/viant/afs, so
// local directories and any afs-supported storage can be indexed like a
// Drive folder.
//
// Container and file ids are afs URLs. A directory listing is paginated in
// memory: entries are ordered by URL and the page token is the offset of the
// next page.
package afsource

import (
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"

	"driveindex/internal/source"
)

// DefaultPageSize is the page size used when none is configured.
const DefaultPageSize = 200

const defaultMimeType = "application/octet-stream"

// Mime types of the formats the extractor understands. Platform mime tables
// are incomplete for office formats, so these take precedence.
var extensionTypes = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".log":  "text/plain",
	".csv":  "text/csv",
	".md":   "text/markdown",
	".json": "application/json",
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
}

// Source walks afs locations.
type Source struct {
	fs       afs.Service
	pageSize int
}

var _ source.Source = (*Source)(nil)

// New creates a source backed by the default afs service.
func New(pageSize int) *Source {
	return NewWithService(afs.New(), pageSize)
}

// NewWithService creates a source over an existing afs service.
func NewWithService(fs afs.Service, pageSize int) *Source {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Source{fs: fs, pageSize: pageSize}
}

// ListChildren returns one page of the entries of a directory.
func (s *Source) ListChildren(ctx context.Context, containerID, pageToken string) (*source.Page, error) {
	offset := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid page token %q", pageToken)
		}
		offset = n
	}

	location, err := normalize(containerID)
	if err != nil {
		return nil, err
	}

	objects, err := s.fs.List(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", location, err)
	}

	self := strings.TrimSuffix(url.Path(location), "/")
	children := make([]storage.Object, 0, len(objects))
	for _, object := range objects {
		if object.IsDir() && strings.TrimSuffix(url.Path(object.URL()), "/") == self {
			continue
		}
		children = append(children, object)
	}
	sort.Slice(children, func(i, j int) bool {
		return children[i].URL() < children[j].URL()
	})

	page := &source.Page{}
	if offset >= len(children) {
		return page, nil
	}
	end := min(offset+s.pageSize, len(children))
	for _, object := range children[offset:end] {
		page.Entries = append(page.Entries, toEntry(object))
	}
	if end < len(children) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

// FetchBytes downloads the content at a file URL.
func (s *Source) FetchBytes(ctx context.Context, fileID string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", fileID, err)
	}
	return data, nil
}

// ExportBytes always fails: plain storage has no native documents to convert.
func (s *Source) ExportBytes(_ context.Context, fileID, targetFormat string) ([]byte, error) {
	return nil, fmt.Errorf("cannot export %s as %s: %w", fileID, targetFormat, source.ErrExportUnsupported)
}

// normalize turns relative and absolute OS paths into file URLs and leaves
// URLs with a scheme untouched.
func normalize(location string) (string, error) {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		abs, err := filepath.Abs(norm)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path for %s: %w", location, err)
		}
		norm = abs
	}
	if url.Scheme(norm, "") == "" && !url.IsRelative(norm) {
		norm = url.ToFileURL(norm)
	}
	return norm, nil
}

func toEntry(object storage.Object) source.Entry {
	entry := source.Entry{
		ID:           object.URL(),
		Name:         object.Name(),
		IsContainer:  object.IsDir(),
		ViewLink:     object.URL(),
		ModifiedTime: object.ModTime(),
	}
	if !entry.IsContainer {
		entry.MimeType = mimeType(object.Name())
		entry.SizeBytes = object.Size()
	}
	return entry
}

func mimeType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return defaultMimeType
}
