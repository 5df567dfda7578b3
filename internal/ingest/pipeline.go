// Package ingest orchestrates the batch ingestion path: extract, normalize,
// chunk, persist, embed, index. Every write is a no-op on previously
// completed work, so the job can be re-invoked safely after partial failures
// or corpus growth.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labaid/labaid/internal/store"
	"github.com/labaid/labaid/internal/textproc"
	"github.com/labaid/labaid/internal/vecindex"
)

// Extractor pulls raw text out of a source document.
type Extractor interface {
	Extract(path string) (string, error)
}

// Embedder maps a batch of chunk texts to vectors, one per text in order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the similarity index side of the pipeline.
type VectorIndex interface {
	ExistingKeys(ctx context.Context) (map[store.ChunkKey]struct{}, error)
	UpsertMissing(ctx context.Context, entries []vecindex.Entry) (int, error)
}

// Result contains statistics about one ingestion run.
type Result struct {
	TotalDocs      int
	SuccessfulDocs int
	FailedDocs     []FailedDoc
	NewChunks      int
	NewVectors     int
	Duration       time.Duration
}

// FailedDoc records a document that could not be processed.
type FailedDoc struct {
	Filename string
	Reason   string
}

// Pipeline wires the ingestion components together.
type Pipeline struct {
	extractor Extractor
	chunker   *textproc.Chunker
	store     *store.Store
	embedder  Embedder
	index     VectorIndex
	logger    *slog.Logger
}

// New creates an ingestion pipeline with the given components.
func New(
	extractor Extractor,
	chunker *textproc.Chunker,
	st *store.Store,
	embedder Embedder,
	index VectorIndex,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		store:     st,
		embedder:  embedder,
		index:     index,
		logger:    logger,
	}
}

// Run ingests every PDF under dir. A document that fails extraction or
// storage is recorded and the run continues with the next one; only listing
// the directory or the final embedding stage can fail the run as a whole.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	filenames, err := listPDFs(dir)
	if err != nil {
		return nil, fmt.Errorf("list input directory: %w", err)
	}
	result.TotalDocs = len(filenames)
	p.logger.Info("Starting ingestion", "dir", dir, "documents", len(filenames))

	for _, filename := range filenames {
		inserted, err := p.processDocument(ctx, dir, filename)
		if err != nil {
			p.logger.Warn("Failed to process document", "filename", filename, "error", err)
			result.FailedDocs = append(result.FailedDocs, FailedDoc{
				Filename: filename,
				Reason:   err.Error(),
			})
			continue
		}
		result.SuccessfulDocs++
		result.NewChunks += inserted
	}

	added, err := p.embedMissing(ctx)
	if err != nil {
		return nil, fmt.Errorf("embedding stage: %w", err)
	}
	result.NewVectors = added

	result.Duration = time.Since(start)
	p.logger.Info("Ingestion complete",
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"new_chunks", result.NewChunks,
		"new_vectors", result.NewVectors,
		"duration", result.Duration,
	)
	return result, nil
}

// processDocument handles one manual through the relational store. Returns
// the number of chunk rows inserted (0 when the document's chunks already
// exist).
func (p *Pipeline) processDocument(ctx context.Context, dir, filename string) (int, error) {
	docID, err := p.ensureDocument(ctx, dir, filename)
	if err != nil {
		return 0, err
	}

	text, err := p.store.DocumentText(ctx, docID)
	if err != nil {
		return 0, fmt.Errorf("read stored text: %w", err)
	}

	chunks, err := p.chunker.Split(text)
	if err != nil {
		return 0, fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks produced")
	}

	inserted, err := p.store.InsertChunks(ctx, docID, chunks)
	if err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	if inserted == 0 {
		p.logger.Info("Chunks already present", "filename", filename, "document_id", docID)
	} else {
		p.logger.Info("Stored chunks", "filename", filename, "document_id", docID, "chunks", inserted)
	}
	return inserted, nil
}

// ensureDocument returns the document id for filename, extracting and
// normalizing only when the document is not already stored.
func (p *Pipeline) ensureDocument(ctx context.Context, dir, filename string) (int64, error) {
	existing, err := p.store.DocumentByFilename(ctx, filename)
	if err == nil {
		p.logger.Info("Document already ingested", "filename", filename, "document_id", existing.ID)
		return existing.ID, nil
	}
	if !errors.Is(err, store.ErrDocumentNotFound) {
		return 0, fmt.Errorf("look up document: %w", err)
	}

	raw, err := p.extractor.Extract(filepath.Join(dir, filename))
	if err != nil {
		// Extraction failure degrades to no content rather than aborting
		// the run; the document is reported failed and skipped.
		p.logger.Warn("Extraction failed", "filename", filename, "error", err)
		raw = ""
	}

	normalized := textproc.Normalize(raw)
	if normalized == "" {
		return 0, fmt.Errorf("no content extracted")
	}

	date := time.Now().UTC().Format("2006-01-02")
	docID, err := p.store.InsertDocument(ctx, filename, "PDF", normalized, date)
	if err != nil {
		return 0, fmt.Errorf("store document: %w", err)
	}
	p.logger.Info("Stored document", "filename", filename, "document_id", docID)
	return docID, nil
}

// embedMissing embeds every chunk not yet present in the vector index and
// adds the results. Chunk order is the store's deterministic
// (document id, chunk index) order.
func (p *Pipeline) embedMissing(ctx context.Context) (int, error) {
	chunks, err := p.store.ChunksForEmbedding(ctx)
	if err != nil {
		return 0, fmt.Errorf("list chunks: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	existing, err := p.index.ExistingKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list index keys: %w", err)
	}

	var pending []store.Chunk
	for _, c := range chunks {
		if _, ok := existing[c.Key]; !ok {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		p.logger.Info("Vector index already up to date", "chunks", len(chunks))
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, c := range pending {
		texts[i] = c.Text
	}
	vectors, err := p.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("generate embeddings: %w", err)
	}
	if len(vectors) != len(pending) {
		return 0, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(pending), len(vectors))
	}

	entries := make([]vecindex.Entry, len(pending))
	for i, c := range pending {
		entries[i] = vecindex.Entry{
			Key:        c.Key,
			Vector:     vectors[i],
			Text:       c.Text,
			DocumentID: c.DocumentID,
			ChunkIndex: c.Index,
		}
	}

	added, err := p.index.UpsertMissing(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("index chunks: %w", err)
	}
	p.logger.Info("Indexed chunks", "added", added)
	return added, nil
}

// listPDFs returns the PDF filenames in dir in lexical order.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var filenames []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			filenames = append(filenames, entry.Name())
		}
	}
	return filenames, nil
}
