package textproc

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_EmptyText(t *testing.T) {
	chunker := NewChunker(500, 100)

	chunks, err := chunker.Split("")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	chunks, err = chunker.Split("   \n\n  ")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestChunker_Deterministic(t *testing.T) {
	chunker := NewChunker(500, 100)
	text := strings.Repeat("The detector lamp requires a thirty minute warm up period. ", 40)

	first, err := chunker.Split(text)
	require.NoError(t, err)
	second, err := chunker.Split(text)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestChunker_BoundedOverlappingChunks ingests a 1200-character flow of
// distinct words and expects three bounded chunks whose consecutive pairs
// share at most 100 characters of context.
func TestChunker_BoundedOverlappingChunks(t *testing.T) {
	// 119 nine-character words plus one ten-character word, single-space
	// joined: exactly 1200 characters.
	words := make([]string, 120)
	for i := 0; i < 119; i++ {
		words[i] = fmt.Sprintf("word%04d!", i+1)
	}
	words[119] = "word0120!!"
	text := strings.Join(words, " ")
	require.Len(t, text, 1200)

	chunker := NewChunker(500, 100)
	chunks, err := chunker.Split(text)
	require.NoError(t, err)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 500, "chunk %d exceeds size bound", i)
	}

	// Consecutive chunks share trailing/leading context bounded by the
	// configured overlap.
	for i := 0; i < len(chunks)-1; i++ {
		overlap := overlapLen(chunks[i], chunks[i+1])
		assert.Greater(t, overlap, 0, "chunks %d and %d share no context", i, i+1)
		assert.LessOrEqual(t, overlap, 100, "chunks %d and %d overlap too much", i, i+1)
	}

	// Order is stable and every word survives chunking.
	joined := strings.Join(chunks, " ")
	for _, word := range words {
		assert.Contains(t, joined, word)
	}
	assert.True(t, strings.HasPrefix(chunks[0], "word0001!"))
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "word0120!!"))
}

func TestChunker_ShortTextSingleChunk(t *testing.T) {
	chunker := NewChunker(500, 100)

	chunks, err := chunker.Split("Replace the inlet frit when back pressure rises.")
	require.NoError(t, err)

	require.Len(t, chunks, 1)
	assert.Equal(t, "Replace the inlet frit when back pressure rises.", chunks[0])
}

// overlapLen returns the length of the longest suffix of a that is also a
// prefix of b.
func overlapLen(a, b string) int {
	max := min(len(a), len(b))
	for n := max; n > 0; n-- {
		if strings.HasSuffix(a, b[:n]) {
			return n
		}
	}
	return 0
}
