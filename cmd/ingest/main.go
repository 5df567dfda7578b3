// Package main provides the batch ingestion CLI for the manual knowledge base.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/labaid/labaid/internal/config"
	"github.com/labaid/labaid/internal/embedding"
	"github.com/labaid/labaid/internal/extract"
	"github.com/labaid/labaid/internal/ingest"
	"github.com/labaid/labaid/internal/store"
	"github.com/labaid/labaid/internal/textproc"
	"github.com/labaid/labaid/internal/vecindex"
)

var inputDir string

var rootCmd = &cobra.Command{
	Use:   "labaid-ingest",
	Short: "LabAid manual knowledge base ingestion tool",
	Long:  "CLI tool for building the manual chunk index from a directory of PDF manuals",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest all PDF manuals into the knowledge base",
	Long: `Extracts, normalizes, chunks, embeds and indexes every PDF manual.

Re-running against the same stores is safe: documents, chunks and vector
entries that already exist are skipped.

Environment variables:
  OPENAI_API_KEY     OpenAI API key for embeddings (required)
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  LABAID_DB          SQLite database path (default: database/processed_documents.db)
  LABAID_COLLECTION  Qdrant collection name (default: manual_chunks)
  LABAID_INPUT_DIR   PDF input directory (default: input)`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&inputDir, "input", "", "input directory of PDF manuals (overrides LABAID_INPUT_DIR)")
	rootCmd.AddCommand(ingestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg := config.Load()
	if inputDir != "" {
		cfg.InputDir = inputDir
	}

	// A missing credential is fatal for the batch job.
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	fmt.Println("Starting ingestion...")
	fmt.Println()

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	defer st.Close()
	fmt.Printf("Document store ready at %s\n", cfg.DatabasePath)

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	index, err := vecindex.New(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection)
	if err != nil {
		return fmt.Errorf("connect to vector index: %w", err)
	}
	defer index.Close()

	if err := index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	fmt.Printf("Collection %q ready\n", cfg.Collection)

	client, err := embedding.NewClient(cfg.OpenAIAPIKey)
	if err != nil {
		return fmt.Errorf("create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, 0)

	pipeline := ingest.New(
		extract.NewPDF(),
		textproc.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		st,
		embedder,
		index,
		slog.Default(),
	)

	fmt.Println()
	fmt.Printf("Ingesting manuals from %s...\n", cfg.InputDir)
	result, err := pipeline.Run(ctx, cfg.InputDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Documents: %d/%d\n", result.SuccessfulDocs, result.TotalDocs)
	fmt.Printf("  New chunks: %d\n", result.NewChunks)
	fmt.Printf("  New vectors: %d\n", result.NewVectors)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedDocs) > 0 {
		fmt.Println()
		fmt.Println("Failed documents:")
		for _, failed := range result.FailedDocs {
			fmt.Printf("  - %s: %s\n", failed.Filename, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))
	return nil
}
