package textproc

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize bounds each chunk to 500 characters where possible.
	DefaultChunkSize = 500

	// DefaultChunkOverlap carries up to 100 trailing characters of context
	// into the next chunk.
	DefaultChunkOverlap = 100
)

// Chunker splits normalized text into overlapping bounded-size segments.
// Splitting is a pure function of input and parameters, so re-chunking the
// same document yields an identical sequence.
type Chunker struct {
	splitter textsplitter.RecursiveCharacter
}

// NewChunker creates a recursive-character chunker. Non-positive size or
// overlap fall back to the defaults.
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap <= 0 {
		overlap = DefaultChunkOverlap
	}
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", " ", ""}),
	)
	return &Chunker{splitter: splitter}
}

// Split returns the ordered chunk sequence for text. Empty or whitespace-only
// text yields no chunks.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	chunks, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	return chunks, nil
}
