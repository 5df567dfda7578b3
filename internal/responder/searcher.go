package responder

import (
	"context"

	"github.com/labaid/labaid/internal/vecindex"
)

// IndexSearcher adapts the Qdrant index to the Searcher interface.
type IndexSearcher struct {
	index *vecindex.Index
}

// NewIndexSearcher wraps a vector index for retrieval.
func NewIndexSearcher(index *vecindex.Index) *IndexSearcher {
	return &IndexSearcher{index: index}
}

// Search returns the top-k chunks for the query vector, best-first.
func (s *IndexSearcher) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	results, err := s.index.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}
	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			Text:       r.Text,
			DocumentID: r.DocumentID,
			ChunkIndex: r.ChunkIndex,
		}
	}
	return hits, nil
}
