package store

import (
	"strconv"
	"time"
)

// ChunkKey is the surrogate chunk identifier. The relational store owns it;
// the vector index addresses the same chunk through its string form. Keeping
// the conversion on one type prevents the two stores from drifting apart.
type ChunkKey int64

// String returns the vector-index id form of the key.
func (k ChunkKey) String() string {
	return strconv.FormatInt(int64(k), 10)
}

// ParseChunkKey converts a vector-index id back into a chunk key.
func ParseChunkKey(s string) (ChunkKey, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return ChunkKey(n), nil
}

// Document is one row of the documents table: a single ingested manual.
// Rows are immutable once written and never deleted by the pipeline.
type Document struct {
	ID            int64
	Filename      string
	SourceType    string
	Text          string
	ProcessedDate string
}

// Chunk is one row of the chunks table. (DocumentID, Index) is unique.
type Chunk struct {
	Key        ChunkKey
	DocumentID int64
	Index      int
	Text       string
	Length     int
	CreatedAt  time.Time
}
