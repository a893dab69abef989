// Package drive implements the crawl source over the Google Drive v3 API.
package drive

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"driveindex/internal/source"
)

// FolderMimeType marks Drive folders.
const FolderMimeType = "application/vnd.google-apps.folder"

// DefaultPageSize is the listing page size used when none is configured.
const DefaultPageSize = 200

const listFields = "nextPageToken, files(id, name, mimeType, webViewLink, modifiedTime, md5Checksum, size)"

// listOrder keeps a page token's entries in the same order across listings,
// so a stored page offset points at the same file.
const listOrder = "folder,name,createdTime"

// Client lists folders and reads file content through a Drive service.
type Client struct {
	srv      *drive.Service
	pageSize int64
}

var _ source.Source = (*Client)(nil)

// NewClient creates a read-only Drive client from a service-account key file.
func NewClient(ctx context.Context, credentialsFile string, pageSize int) (*Client, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	srv, err := drive.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return NewClientWithService(srv, pageSize), nil
}

// NewClientWithService wraps an existing Drive service.
func NewClientWithService(srv *drive.Service, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{srv: srv, pageSize: int64(pageSize)}
}

// ListChildren returns one page of the non-trashed children of a folder.
func (c *Client) ListChildren(ctx context.Context, containerID, pageToken string) (*source.Page, error) {
	req := c.srv.Files.List().
		Context(ctx).
		Q(fmt.Sprintf("'%s' in parents and trashed = false", containerID)).
		PageSize(c.pageSize).
		OrderBy(listOrder).
		Fields(listFields).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true)

	if pageToken != "" {
		req = req.PageToken(pageToken)
	}

	resp, err := req.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	page := &source.Page{
		Entries:       make([]source.Entry, 0, len(resp.Files)),
		NextPageToken: resp.NextPageToken,
	}
	for _, f := range resp.Files {
		page.Entries = append(page.Entries, toEntry(f))
	}
	return page, nil
}

// FetchBytes downloads the stored content of a file.
func (c *Client) FetchBytes(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.srv.Files.Get(fileID).Context(ctx).SupportsAllDrives(true).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	return data, nil
}

// ExportBytes converts a Google Workspace document to targetFormat.
func (c *Client) ExportBytes(ctx context.Context, fileID, targetFormat string) ([]byte, error) {
	resp, err := c.srv.Files.Export(fileID, targetFormat).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to export file: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read exported content: %w", err)
	}
	return data, nil
}

func toEntry(f *drive.File) source.Entry {
	entry := source.Entry{
		ID:          f.Id,
		Name:        f.Name,
		IsContainer: f.MimeType == FolderMimeType,
		MimeType:    f.MimeType,
		ViewLink:    f.WebViewLink,
		ContentHash: f.Md5Checksum,
		SizeBytes:   f.Size,
	}
	// Malformed timestamps leave ModifiedTime zero, which disables time-based
	// change detection for the file.
	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			entry.ModifiedTime = t
		}
	}
	return entry
}
