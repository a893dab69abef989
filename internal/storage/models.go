package storage

import "time"

// CrawlStateVersion is the current schema version of a persisted CrawlState.
const CrawlStateVersion = 1

// FileStatus is the indexing status of a FileRecord.
type FileStatus string

const (
	StatusProcessing FileStatus = "processing"
	StatusIndexed    FileStatus = "indexed"
	StatusSkipped    FileStatus = "skipped"
)

// QueueEntry is a pending container listing.
// Offset is the index of the first entry of the page that has not been
// visited yet; it is non-zero only when a batch stopped in the middle of a page.
type QueueEntry struct {
	ID        string `json:"id"`
	PageToken string `json:"pageToken,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// CrawlState is the durable crawl progress of one root container.
type CrawlState struct {
	Version        int          `json:"version"`
	Queue          []QueueEntry `json:"queue"`
	Done           bool         `json:"done"`
	ScannedFolders int          `json:"scannedFolders"`
	ScannedFiles   int          `json:"scannedFiles"`
	Indexed        int          `json:"indexed"`
	Skipped        int          `json:"skipped"`
	Errors         int          `json:"errors"`
}

// NewCrawlState returns the initial state for a root: a queue holding only
// the root, all counters zero.
func NewCrawlState(rootID string) *CrawlState {
	return &CrawlState{
		Version: CrawlStateVersion,
		Queue:   []QueueEntry{{ID: rootID}},
	}
}

// StateSummary is the compacted view of a CrawlState; it never exposes the queue.
type StateSummary struct {
	Done           bool `json:"done"`
	ScannedFolders int  `json:"scannedFolders"`
	ScannedFiles   int  `json:"scannedFiles"`
	Indexed        int  `json:"indexed"`
	Skipped        int  `json:"skipped"`
	Errors         int  `json:"errors"`
	QueueRemaining int  `json:"queueRemaining"`
}

// Summary compacts the state for reporting.
func (s *CrawlState) Summary() StateSummary {
	return StateSummary{
		Done:           s.Done,
		ScannedFolders: s.ScannedFolders,
		ScannedFiles:   s.ScannedFiles,
		Indexed:        s.Indexed,
		Skipped:        s.Skipped,
		Errors:         s.Errors,
		QueueRemaining: len(s.Queue),
	}
}

// FileRecord is the indexing status of one remote file under one root.
type FileRecord struct {
	FolderID     string
	FileID       string
	Name         string
	MimeType     string
	ViewLink     string
	ModifiedTime time.Time // zero if unknown
	ContentHash  string
	SizeBytes    int64
	Status       FileStatus
	ErrorMessage string // empty means no error
	UpdatedAt    time.Time
}

// ChunkMetadata is denormalized file information stored with every chunk.
type ChunkMetadata struct {
	FileName     string `json:"fileName"`
	MimeType     string `json:"mimeType"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
	WebViewLink  string `json:"webViewLink,omitempty"`
}

// ChunkRecord is one embedded text segment of a file.
type ChunkRecord struct {
	ID         string // UUID
	FolderID   string
	FileID     string
	ChunkIndex int // zero-based position within the file
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
}
