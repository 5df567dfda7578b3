// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every tunable the pipeline and responder need. It is built
// once at process start and passed to constructors; no package-level state.
type Config struct {
	OpenAIAPIKey string

	QdrantHost string
	QdrantPort int
	Collection string

	DatabasePath string
	InputDir     string

	ChunkSize    int
	ChunkOverlap int
	TopK         int

	HTTPPort string
}

// Load reads a .env file if present, then the environment. Missing optional
// values fall back to defaults; the API key is validated by the callers that
// require it (the ingest job treats it as fatal, the server degrades).
func Load() Config {
	_ = godotenv.Load()

	return Config{
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   getEnvInt("QDRANT_PORT", 6334),
		Collection:   getEnv("LABAID_COLLECTION", "manual_chunks"),
		DatabasePath: getEnv("LABAID_DB", "database/processed_documents.db"),
		InputDir:     getEnv("LABAID_INPUT_DIR", "input"),
		ChunkSize:    getEnvInt("LABAID_CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("LABAID_CHUNK_OVERLAP", 100),
		TopK:         getEnvInt("LABAID_TOP_K", 5),
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
	}
}

// RequireAPIKey returns an error when no OpenAI credential is configured.
func (c Config) RequireAPIKey() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
