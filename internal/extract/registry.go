// Package extract turns typed document bytes into plain text.
//
// A Registry maps a declared MIME type to a Strategy. A strategy either
// downloads the stored bytes and parses them, or asks the source to export a
// native document into a readable representation first. Formats without a
// strategy extract to empty text.
package extract

import (
	"context"
	"fmt"
	"strings"

	"driveindex/internal/source"
)

// Well-known MIME types handled by the default registry.
const (
	MimeGoogleDoc    = "application/vnd.google-apps.document"
	MimeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeGoogleSlides = "application/vnd.google-apps.presentation"
	MimePDF          = "application/pdf"
	MimeDOCX         = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeXLSX         = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimePPTX         = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimeXLS          = "application/vnd.ms-excel"
	MimeMarkdown     = "text/markdown"
	MimePlain        = "text/plain"
	MimeCSV          = "text/csv"
	MimeJSON         = "application/json"
)

// Parser converts raw bytes of one format into text.
type Parser func(data []byte) (string, error)

// Strategy produces the text of one file.
type Strategy interface {
	Extract(ctx context.Context, src source.Fetcher, fileID string) (string, error)
}

// Download fetches the stored bytes and parses them.
type Download struct {
	Parse Parser
}

// Extract implements Strategy.
func (d Download) Extract(ctx context.Context, src source.Fetcher, fileID string) (string, error) {
	data, err := src.FetchBytes(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	return d.Parse(data)
}

// Export asks the source to convert the document to Format, then parses the result.
type Export struct {
	Format string
	Parse  Parser
}

// Extract implements Strategy.
func (e Export) Extract(ctx context.Context, src source.Fetcher, fileID string) (string, error) {
	data, err := src.ExportBytes(ctx, fileID, e.Format)
	if err != nil {
		return "", fmt.Errorf("failed to export as %s: %w", e.Format, err)
	}
	return e.Parse(data)
}

// Registry dispatches extraction by MIME type.
// It is built once and safe for concurrent use after construction.
type Registry struct {
	strategies map[string]Strategy
	maxChars   int
}

// NewRegistry returns a registry with every built-in format registered.
// Extracted text is truncated to maxChars runes; zero disables truncation.
func NewRegistry(maxChars int) *Registry {
	r := &Registry{
		strategies: make(map[string]Strategy),
		maxChars:   maxChars,
	}

	r.Register(MimeGoogleDoc, Export{Format: MimePlain, Parse: ParseText})
	r.Register(MimeGoogleSheet, Export{Format: MimeCSV, Parse: ParseText})
	r.Register(MimeGoogleSlides, Export{Format: MimePDF, Parse: ParsePDF})
	r.Register(MimePDF, Download{Parse: ParsePDF})
	r.Register(MimeDOCX, Download{Parse: ParseDOCX})
	r.Register(MimeXLSX, Download{Parse: ParseXLSX})
	r.Register(MimePPTX, Download{Parse: ParsePPTX})
	r.Register(MimeXLS, Download{Parse: ParseXLS})
	r.Register(MimeMarkdown, Download{Parse: ParseMarkdown})
	r.Register(MimeJSON, Download{Parse: ParseText})
	r.Register(MimePlain, Download{Parse: ParseText})

	return r
}

// Register binds a strategy to a MIME type, replacing any previous binding.
func (r *Registry) Register(mimeType string, s Strategy) {
	r.strategies[mimeType] = s
}

// Lookup returns the strategy for a MIME type. Unregistered text/* types fall
// back to plain text.
func (r *Registry) Lookup(mimeType string) (Strategy, bool) {
	mimeType = baseMime(mimeType)
	if s, ok := r.strategies[mimeType]; ok {
		return s, true
	}
	if strings.HasPrefix(mimeType, "text/") {
		return r.strategies[MimePlain], true
	}
	return nil, false
}

// Extract returns the normalized text of a file. Unsupported formats return
// an empty string and no error.
func (r *Registry) Extract(ctx context.Context, src source.Fetcher, entry source.Entry) (string, error) {
	s, ok := r.Lookup(entry.MimeType)
	if !ok {
		return "", nil
	}
	text, err := s.Extract(ctx, src, entry.ID)
	if err != nil {
		return "", err
	}
	return Normalize(text, r.maxChars), nil
}

// baseMime drops parameters such as "; charset=utf-8".
func baseMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
