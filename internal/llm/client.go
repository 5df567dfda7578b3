// Package llm is the narrow completion interface to the chat model: one
// composed prompt in, one text out. No streaming, no retries.
package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// Temperature keeps answers close to the retrieved material.
const Temperature = 0.3

// Client issues single chat completions.
type Client struct {
	client *openai.Client
	model  string
}

// NewClient wraps an OpenAI client for completions. An empty model selects
// gpt-4o-mini.
func NewClient(client *openai.Client, model string) *Client {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &Client{
		client: client,
		model:  model,
	}
}

// Complete sends one system+user message pair and returns the model's text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       c.model,
		Temperature: openai.Float(Temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
