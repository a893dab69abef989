package indexer

import "strings"

const (
	// DefaultChunkMaxChars is the chunk length used when none is configured.
	DefaultChunkMaxChars = 1800
	// DefaultChunkOverlap is the overlap used when none is configured.
	DefaultChunkOverlap = 250
)

// Chunker splits text into fixed-length overlapping segments.
// Lengths are measured in runes.
type Chunker struct {
	maxChars int
	overlap  int
}

// NewChunker creates a chunker. A non-positive maxChars selects the default;
// the overlap is clamped to [0, maxChars-1] so the cursor always advances.
func NewChunker(maxChars, overlap int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultChunkMaxChars
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars - 1
	}
	return &Chunker{maxChars: maxChars, overlap: overlap}
}

// Split removes carriage returns, trims the text and cuts it into chunks of
// at most maxChars runes. Consecutive chunks share overlap runes. Each slice is
// trimmed and empty slices are dropped.
func (c *Chunker) Split(text string) []string {
	clean := strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
	if clean == "" {
		return nil
	}

	runes := []rune(clean)
	var chunks []string
	for i := 0; i < len(runes); {
		end := min(len(runes), i+c.maxChars)
		if s := strings.TrimSpace(string(runes[i:end])); s != "" {
			chunks = append(chunks, s)
		}
		if end >= len(runes) {
			break
		}
		i = max(0, end-c.overlap)
	}
	return chunks
}
