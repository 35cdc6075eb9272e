package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Chunker splits cleaned text into overlapping fragments sized for the
// embedder's context.
type Chunker struct {
	size    int // target chunk length in bytes
	overlap int // bytes shared between consecutive chunks
}

// NewChunker creates a Chunker. size must be positive and overlap must be
// smaller than size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ingest: chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("ingest: overlap %d must be in [0, %d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// separators are tried in order when looking for a cut point near the
// chunk boundary: paragraph break, sentence end, then any space.
var separators = []string{"\n\n", ". ", " "}

// Split divides text into chunks of roughly c.size bytes, preferring to
// cut at paragraph or sentence boundaries, with c.overlap bytes carried
// into the next chunk. Empty input yields no chunks.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + c.size
		if end >= len(text) {
			chunk := strings.TrimSpace(text[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := c.findCut(text, start, end)
		chunk := strings.TrimSpace(text[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.overlap
		if next <= start {
			// overlap would stall the scan; force progress
			next = cut
		}
		start = next
	}
	return chunks
}

// findCut looks backwards from end for the best separator within the
// second half of the window. Falls back to a hard cut at end, backed up
// to a rune boundary so accented text is never split mid-character.
func (c *Chunker) findCut(text string, start, end int) int {
	window := text[start:end]
	floor := len(window) / 2
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i > floor {
			return start + i + len(sep)
		}
	}
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
