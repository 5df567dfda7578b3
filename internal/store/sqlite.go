// Package store is the durable relational home of documents and chunks.
// It owns their identity: the vector index is always re-derived from the
// chunk id set here, never the reverse.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    original_filename TEXT NOT NULL UNIQUE,
    source_type TEXT,
    processed_text TEXT NOT NULL,
    processed_date TEXT
);

CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id INTEGER NOT NULL,
    chunk_index INTEGER NOT NULL,
    chunk_content TEXT NOT NULL,
    chunk_length INTEGER,
    created_at TEXT,
    UNIQUE(document_id, chunk_index),
    FOREIGN KEY (document_id) REFERENCES documents(id)
);
`

// Store wraps the SQLite handle for the documents and chunks tables.
type Store struct {
	db *sql.DB
}

// New opens the database at path and ensures the schema exists. The handle is
// closed again on any setup failure.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ensure schema: %v", ErrStoreUnavailable, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertDocument stores one processed manual. A filename that is already
// present is not an error: the existing id is returned and nothing is
// written, which makes re-ingestion of an unchanged corpus a no-op.
func (s *Store) InsertDocument(ctx context.Context, filename, sourceType, text, date string) (int64, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM documents WHERE original_filename = ?", filename).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("%w: query document: %v", ErrStoreUnavailable, err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO documents (original_filename, source_type, processed_text, processed_date) VALUES (?, ?, ?, ?)",
		filename, sourceType, text, date)
	if err != nil {
		return 0, fmt.Errorf("%w: insert document: %v", ErrStoreUnavailable, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", ErrStoreUnavailable, err)
	}
	return id, nil
}

// InsertChunks stores all chunks of a document in index order inside one
// transaction, sharing a single creation timestamp. When chunks already exist
// for the document the call is a no-op and returns 0. Partial insertion is
// never observable: the transaction either commits fully or rolls back.
func (s *Store) InsertChunks(ctx context.Context, documentID int64, chunks []string) (int, error) {
	existing, err := s.ChunkCount(ctx, documentID)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (document_id, chunk_index, chunk_content, chunk_length, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("%w: prepare chunk insert: %v", ErrStoreUnavailable, err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for i, chunk := range chunks {
		if _, err := stmt.ExecContext(ctx, documentID, i, chunk, len(chunk), createdAt); err != nil {
			return 0, fmt.Errorf("%w: insert chunk %d: %v", ErrStoreUnavailable, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit chunks: %v", ErrStoreUnavailable, err)
	}
	return len(chunks), nil
}

// ChunkCount returns the number of chunks stored for a document.
func (s *Store) ChunkCount(ctx context.Context, documentID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chunks WHERE document_id = ?", documentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: count chunks: %v", ErrStoreUnavailable, err)
	}
	return count, nil
}

// Document retrieves a document row by id.
func (s *Store) Document(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx,
		"SELECT id, original_filename, source_type, processed_text, processed_date FROM documents WHERE id = ?", id).
		Scan(&doc.ID, &doc.Filename, &doc.SourceType, &doc.Text, &doc.ProcessedDate)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query document: %v", ErrStoreUnavailable, err)
	}
	return &doc, nil
}

// DocumentByFilename retrieves a document row by its original filename.
func (s *Store) DocumentByFilename(ctx context.Context, filename string) (*Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx,
		"SELECT id, original_filename, source_type, processed_text, processed_date FROM documents WHERE original_filename = ?", filename).
		Scan(&doc.ID, &doc.Filename, &doc.SourceType, &doc.Text, &doc.ProcessedDate)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query document: %v", ErrStoreUnavailable, err)
	}
	return &doc, nil
}

// DocumentText returns the normalized full text of a document.
func (s *Store) DocumentText(ctx context.Context, id int64) (string, error) {
	doc, err := s.Document(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// ChunksForEmbedding returns every chunk ordered by (document id, chunk
// index), so embedding batches are built in a deterministic order.
func (s *Store) ChunksForEmbedding(ctx context.Context) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id, chunk_index, chunk_content FROM chunks ORDER BY document_id, chunk_index")
	if err != nil {
		return nil, fmt.Errorf("%w: query chunks: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.Key, &c.DocumentID, &c.Index, &c.Text); err != nil {
			return nil, fmt.Errorf("%w: scan chunk: %v", ErrStoreUnavailable, err)
		}
		c.Length = len(c.Text)
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate chunks: %v", ErrStoreUnavailable, err)
	}
	return chunks, nil
}
