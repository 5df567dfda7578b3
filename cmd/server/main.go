// Package main runs the HTTP chat API over the manual knowledge base.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/labaid/labaid/internal/api"
	"github.com/labaid/labaid/internal/config"
	"github.com/labaid/labaid/internal/embedding"
	"github.com/labaid/labaid/internal/llm"
	"github.com/labaid/labaid/internal/responder"
	"github.com/labaid/labaid/internal/vecindex"
)

var rootCmd = &cobra.Command{
	Use:   "labaid-server",
	Short: "LabAid manual troubleshooting chat API",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat API over HTTP",
	Long: `Starts the retrieval-augmented chat API.

A missing credential or unreachable vector index does not prevent startup:
every query then returns a fixed not-initialized answer until the problem is
fixed and the server restarted.

Environment variables:
  OPENAI_API_KEY     OpenAI API key for embeddings and completions
  QDRANT_HOST        Qdrant hostname (default: localhost)
  QDRANT_PORT        Qdrant gRPC port (default: 6334)
  LABAID_COLLECTION  Qdrant collection name (default: manual_chunks)
  HTTP_PORT          Listen port (default: 8080)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()
	logger := slog.Default()

	// Construction fails softly: any collaborator that cannot be built is
	// left nil and the responder degrades per request instead of crashing.
	var (
		embedder  responder.Embedder
		searcher  responder.Searcher
		completer responder.Completer
	)

	client, err := embedding.NewClient(cfg.OpenAIAPIKey)
	if err != nil {
		logger.Warn("embedding client unavailable", "error", err)
	} else {
		embedder = embedding.NewEmbedder(client, 0)
		completer = llm.NewClient(client.OpenAI(), "")
	}

	index, err := vecindex.New(cfg.QdrantHost, cfg.QdrantPort, cfg.Collection)
	if err != nil {
		logger.Warn("vector index unavailable", "error", err)
	} else {
		defer index.Close()
		searcher = responder.NewIndexSearcher(index)

		count, err := index.Count(ctx)
		if err != nil {
			logger.Warn("could not read collection size", "error", err)
		} else if count == 0 {
			logger.Warn("collection is empty, run the ingest job to populate the knowledge base",
				"collection", cfg.Collection)
		}
	}

	resp := responder.New(embedder, searcher, completer, logger, responder.Options{
		TopK: cfg.TopK,
	})
	if !resp.Ready() {
		logger.Warn("responder not fully initialized, queries will return a fixed message")
	}

	handler := api.NewHandler(resp, logger)
	addr := ":" + cfg.HTTPPort
	fmt.Printf("Serving chat API on %s\n", addr)
	return http.ListenAndServe(addr, api.NewRouter(handler))
}
