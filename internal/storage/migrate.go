package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// legacyQueueEntry is a version-0 queue element written as an object.
// Its pageToken was nullable.
type legacyQueueEntry struct {
	ID        string  `json:"id"`
	PageToken *string `json:"pageToken"`
}

// MigrateCrawlState decodes a persisted CrawlState document of any known
// version and returns it in the current form.
//
// Version 0 documents carry no version field; their queue holds either plain
// container id strings or {id, pageToken|null} objects, and counters may be
// missing. An empty version-0 queue of an unfinished crawl is restarted from
// the root. Entries without an id are dropped.
func MigrateCrawlState(raw []byte, rootID string) (*CrawlState, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("invalid crawl state document: %w", err)
	}

	switch head.Version {
	case 0:
		return migrateV0(raw, rootID)
	case CrawlStateVersion:
		var state CrawlState
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, fmt.Errorf("invalid crawl state document: %w", err)
		}
		if state.Queue == nil {
			state.Queue = []QueueEntry{}
		}
		return &state, nil
	default:
		return nil, fmt.Errorf("unsupported crawl state version %d", head.Version)
	}
}

func migrateV0(raw []byte, rootID string) (*CrawlState, error) {
	var doc struct {
		Queue          json.RawMessage `json:"queue"`
		Done           bool            `json:"done"`
		ScannedFolders int             `json:"scannedFolders"`
		ScannedFiles   int             `json:"scannedFiles"`
		Indexed        int             `json:"indexed"`
		Skipped        int             `json:"skipped"`
		Errors         int             `json:"errors"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid legacy crawl state: %w", err)
	}

	queue, err := migrateV0Queue(doc.Queue)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 && !doc.Done {
		queue = []QueueEntry{{ID: rootID}}
	}

	return &CrawlState{
		Version:        CrawlStateVersion,
		Queue:          queue,
		Done:           doc.Done,
		ScannedFolders: doc.ScannedFolders,
		ScannedFiles:   doc.ScannedFiles,
		Indexed:        doc.Indexed,
		Skipped:        doc.Skipped,
		Errors:         doc.Errors,
	}, nil
}

func migrateV0Queue(raw json.RawMessage) ([]QueueEntry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []QueueEntry{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("legacy queue is not an array: %w", err)
	}

	queue := make([]QueueEntry, 0, len(items))
	for i, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var id string
			if err := json.Unmarshal(item, &id); err != nil {
				return nil, fmt.Errorf("legacy queue entry %d: %w", i, err)
			}
			if id != "" {
				queue = append(queue, QueueEntry{ID: id})
			}
			continue
		}

		var entry legacyQueueEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, fmt.Errorf("legacy queue entry %d: %w", i, err)
		}
		if entry.ID == "" {
			continue
		}
		qe := QueueEntry{ID: entry.ID}
		if entry.PageToken != nil {
			qe.PageToken = *entry.PageToken
		}
		queue = append(queue, qe)
	}
	return queue, nil
}
