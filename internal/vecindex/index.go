// Package vecindex is the Qdrant-backed similarity index over chunk
// embeddings. Entries are keyed by the relational store's chunk ids and are
// append-only: ingestion re-derives index membership from the chunk table and
// adds only what is missing.
package vecindex

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"

	"github.com/labaid/labaid/internal/store"
)

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536

// Entry is one chunk to be indexed: its key, embedding, and a denormalized
// copy of the text plus source metadata for retrieval display.
type Entry struct {
	Key        store.ChunkKey
	Vector     []float32
	Text       string
	DocumentID int64
	ChunkIndex int
}

// Hit is one retrieval result, best-first.
type Hit struct {
	Key        store.ChunkKey
	Text       string
	DocumentID int64
	ChunkIndex int
	Score      float32
}

// Index wraps the Qdrant client for a single named collection.
type Index struct {
	client     *qdrant.Client
	collection string
}

// New creates a Qdrant client and verifies the server is reachable, retrying
// with exponential backoff before failing fast.
func New(host string, port int, collection string) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	idx := &Index{client: client, collection: collection}

	if err := idx.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrIndexUnavailable, err)
	}
	return idx, nil
}

// Close closes the Qdrant client connection.
func (x *Index) Close() error {
	if x.client != nil {
		return x.client.Close()
	}
	return nil
}

func (x *Index) healthCheckWithRetry(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		return x.Health(ctx)
	}, backoff.WithContext(b, ctx))
}

// Health performs a single health check against Qdrant.
func (x *Index) Health(ctx context.Context) error {
	result, err := x.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// EnsureCollection creates the chunk collection if it does not exist.
// Idempotent, safe to call on every ingestion run.
func (x *Index) EnsureCollection(ctx context.Context) error {
	collections, err := x.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", ErrIndexUnavailable, err)
	}
	for _, name := range collections {
		if name == x.collection {
			return nil
		}
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     VectorDimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("%w: create collection: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// ExistingKeys lists the chunk keys already present in the collection,
// scrolling through all points without payloads or vectors.
func (x *Index) ExistingKeys(ctx context.Context) (map[store.ChunkKey]struct{}, error) {
	keys := make(map[store.ChunkKey]struct{})
	var offset *qdrant.PointId
	batchSize := uint32(500)

	for {
		points, err := x.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: x.collection,
			Limit:          qdrant.PtrOf(batchSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(false),
			WithVectors:    qdrant.NewWithVectors(false),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: scroll points: %v", ErrIndexUnavailable, err)
		}

		for _, point := range points {
			keys[store.ChunkKey(point.Id.GetNum())] = struct{}{}
		}

		if uint32(len(points)) < batchSize {
			break
		}
		offset = points[len(points)-1].Id
	}

	return keys, nil
}

// UpsertMissing adds the entries whose keys are not yet in the collection and
// returns how many were added. The check-then-add sequence assumes a single
// offline writer; concurrent ingestion would need a native upsert guard
// instead.
func (x *Index) UpsertMissing(ctx context.Context, entries []Entry) (int, error) {
	for _, e := range entries {
		if len(e.Vector) != VectorDimension {
			return 0, fmt.Errorf("%w: chunk %s has %d dimensions, expected %d",
				ErrDimensionMismatch, e.Key, len(e.Vector), VectorDimension)
		}
	}

	existing, err := x.ExistingKeys(ctx)
	if err != nil {
		return 0, err
	}
	missing := missingEntries(entries, existing)
	if len(missing) == 0 {
		return 0, nil
	}

	batchSize := 100
	for i := 0; i < len(missing); i += batchSize {
		end := min(i+batchSize, len(missing))
		batch := missing[i:end]

		points := make([]*qdrant.PointStruct, len(batch))
		for j, e := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(e.Key)),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"content":     e.Text,
					"document_id": e.DocumentID,
					"chunk_index": e.ChunkIndex,
				}),
			}
		}

		if err := x.upsertWithRetry(ctx, points); err != nil {
			return 0, fmt.Errorf("%w: upsert batch %d-%d: %v", ErrIndexUnavailable, i, end, err)
		}
	}

	return len(missing), nil
}

// missingEntries filters entries to those whose keys are absent from existing,
// preserving input order.
func missingEntries(entries []Entry, existing map[store.ChunkKey]struct{}) []Entry {
	var missing []Entry
	for _, e := range entries {
		if _, ok := existing[e.Key]; !ok {
			missing = append(missing, e)
		}
	}
	return missing
}

func (x *Index) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second

	return backoff.Retry(func() error {
		_, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: x.collection,
			Points:         points,
		})
		return err
	}, backoff.WithContext(b, ctx))
}

// Search returns the k nearest chunks to the query vector, best-first. The
// similarity metric is the collection's; callers only rely on the ordering.
func (x *Index) Search(ctx context.Context, vector []float32, k int) ([]Hit, error) {
	if len(vector) != VectorDimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), VectorDimension)
	}

	results, err := x.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query points: %v", ErrIndexUnavailable, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, result := range results {
		payload := result.Payload
		hits = append(hits, Hit{
			Key:        store.ChunkKey(result.Id.GetNum()),
			Text:       payload["content"].GetStringValue(),
			DocumentID: payload["document_id"].GetIntegerValue(),
			ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
			Score:      result.Score,
		})
	}
	return hits, nil
}

// Count returns the number of points in the collection. The responder warns
// at startup when the collection is empty.
func (x *Index) Count(ctx context.Context) (uint64, error) {
	collection, err := x.client.GetCollectionInfo(ctx, x.collection)
	if err != nil {
		return 0, fmt.Errorf("%w: get collection: %v", ErrIndexUnavailable, err)
	}
	return collection.GetPointsCount(), nil
}
