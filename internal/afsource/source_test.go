package afsource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"driveindex/internal/source"
)

func writeTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"a.txt":      "alpha",
		"b.md":       "# beta",
		"c.pdf":      "%PDF-1.4",
		"sub/d.json": `{"k": "v"}`,
		"sub/e.bin":  "\x00\x01",
	}
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll() error = %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}
	return dir
}

func TestSource_ListChildren_Paginates(t *testing.T) {
	dir := writeTree(t)
	src := New(2)
	ctx := context.Background()

	first, err := src.ListChildren(ctx, dir, "")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(first.Entries) != 2 || first.NextPageToken != "2" {
		t.Fatalf("first page = %+v", first)
	}
	if first.Entries[0].Name != "a.txt" || first.Entries[1].Name != "b.md" {
		t.Errorf("first page names = %s, %s", first.Entries[0].Name, first.Entries[1].Name)
	}
	if first.Entries[0].MimeType != "text/plain" || first.Entries[1].MimeType != "text/markdown" {
		t.Errorf("first page mime types = %s, %s", first.Entries[0].MimeType, first.Entries[1].MimeType)
	}
	if first.Entries[0].SizeBytes != int64(len("alpha")) {
		t.Errorf("SizeBytes = %d", first.Entries[0].SizeBytes)
	}
	if first.Entries[0].ModifiedTime.IsZero() {
		t.Error("ModifiedTime is zero")
	}

	second, err := src.ListChildren(ctx, dir, first.NextPageToken)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if second.NextPageToken != "" {
		t.Errorf("second page NextPageToken = %q, want empty", second.NextPageToken)
	}
	if len(second.Entries) != 2 {
		t.Fatalf("second page len = %d, want 2", len(second.Entries))
	}
	if second.Entries[0].Name != "c.pdf" || second.Entries[0].MimeType != "application/pdf" {
		t.Errorf("second page file = %+v", second.Entries[0])
	}
	sub := second.Entries[1]
	if !sub.IsContainer || sub.Name != "sub" {
		t.Errorf("second page folder = %+v", sub)
	}

	// Listing the same token again yields the same entries.
	again, err := src.ListChildren(ctx, dir, first.NextPageToken)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(again.Entries) != 2 || again.Entries[0].ID != second.Entries[0].ID {
		t.Errorf("repeated page = %+v", again)
	}
}

func TestSource_ListChildren_Subfolder(t *testing.T) {
	dir := writeTree(t)
	src := New(10)
	ctx := context.Background()

	root, err := src.ListChildren(ctx, dir, "")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	var subID string
	for _, e := range root.Entries {
		if e.IsContainer {
			subID = e.ID
		}
	}
	if subID == "" {
		t.Fatal("no folder entry in root listing")
	}

	page, err := src.ListChildren(ctx, subID, "")
	if err != nil {
		t.Fatalf("ListChildren(sub) error = %v", err)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("sub entries = %+v", page.Entries)
	}
	if page.Entries[0].MimeType != "application/json" || page.Entries[1].MimeType != defaultMimeType {
		t.Errorf("sub mime types = %s, %s", page.Entries[0].MimeType, page.Entries[1].MimeType)
	}

	data, err := src.FetchBytes(ctx, page.Entries[0].ID)
	if err != nil {
		t.Fatalf("FetchBytes() error = %v", err)
	}
	if string(data) != `{"k": "v"}` {
		t.Errorf("FetchBytes() = %q", data)
	}
}

func TestSource_ListChildren_InvalidToken(t *testing.T) {
	src := New(2)
	for _, token := range []string{"abc", "-1"} {
		if _, err := src.ListChildren(context.Background(), t.TempDir(), token); err == nil {
			t.Errorf("ListChildren(token=%q) expected error, got nil", token)
		}
	}
}

func TestSource_ListChildren_PastEnd(t *testing.T) {
	dir := writeTree(t)
	page, err := New(2).ListChildren(context.Background(), dir, "99")
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if len(page.Entries) != 0 || page.NextPageToken != "" {
		t.Errorf("page = %+v, want empty", page)
	}
}

func TestSource_ExportBytes_Unsupported(t *testing.T) {
	_, err := New(0).ExportBytes(context.Background(), "file:///tmp/x", "text/plain")
	if !errors.Is(err, source.ErrExportUnsupported) {
		t.Errorf("ExportBytes() error = %v, want ErrExportUnsupported", err)
	}
}

func TestMimeType(t *testing.T) {
	tests := map[string]string{
		"report.PDF": "application/pdf",
		"sheet.xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"legacy.xls": "application/vnd.ms-excel",
		"noext":      defaultMimeType,
		"README.md":  "text/markdown",
	}
	for name, want := range tests {
		if got := mimeType(name); got != want {
			t.Errorf("mimeType(%q) = %q, want %q", name, got, want)
		}
	}
}
