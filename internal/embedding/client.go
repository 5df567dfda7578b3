package embedding

import (
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client wraps the OpenAI client for embedding generation.
type Client struct {
	client *openai.Client
}

// NewClient creates an OpenAI client from the given API key and returns an
// error if it is empty. The responder treats that error as a soft
// construction failure; the ingest job treats it as fatal.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}, nil
}

// OpenAI returns the underlying client for reuse by the completion client.
func (c *Client) OpenAI() *openai.Client {
	return c.client
}
