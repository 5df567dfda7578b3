// Package responder answers troubleshooting questions grounded in retrieved
// manual chunks plus the conversation so far.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const (
	// DefaultTopK is how many chunks ground each answer.
	DefaultTopK = 5

	// DefaultMaxInputLength caps serialized history plus question. Oversized
	// input is rejected locally before any external call.
	DefaultMaxInputLength = 6000
)

// Fixed user-facing messages. The conversation continues on every failure;
// errors never escape the responder boundary.
const (
	MsgEmptyQuestion = "Please enter a question."
	MsgTooLong       = "The question and chat history are too long. Please shorten them."
	MsgNotReady      = "AI system not initialized. Please ensure the knowledge base has been ingested and check your API key."
)

// systemPrompt is the domain-expert persona for every completion.
const systemPrompt = `You are a professional HPLC instrument troubleshooting expert who specializes in helping junior researchers and students.
Your task is to answer the user's troubleshooting questions in detail and clearly based on the HPLC instrument knowledge provided below.
If there is no direct answer in the knowledge, please provide the most reasonable speculative suggestions based on your expert judgment, or ask further clarifying questions.
Please ensure that your answers are logically clear, easy to understand, and directly address the user's questions.`

// Turn is one conversation turn held by the caller. The responder itself is
// stateless across calls.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder turns the composed question into a query vector.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Searcher returns the best-first grounding chunks for a query vector.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)
}

// Hit is one retrieved chunk text with its source metadata.
type Hit struct {
	Text       string
	DocumentID int64
	ChunkIndex int
}

// Completer produces the final answer from the assembled prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Options tunes the responder; zero values select the defaults.
type Options struct {
	TopK           int
	MaxInputLength int
}

// Responder implements the answer pipeline: validate, compose, retrieve,
// assemble, complete. Collaborators may be nil when construction failed
// softly (missing credential, unreachable index); every answer then degrades
// to a fixed message instead of crashing the serving process.
type Responder struct {
	embedder  Embedder
	searcher  Searcher
	completer Completer
	logger    *slog.Logger

	topK     int
	maxInput int
}

// New creates a Responder around the given collaborators.
func New(embedder Embedder, searcher Searcher, completer Completer, logger *slog.Logger, opts Options) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	maxInput := opts.MaxInputLength
	if maxInput <= 0 {
		maxInput = DefaultMaxInputLength
	}
	return &Responder{
		embedder:  embedder,
		searcher:  searcher,
		completer: completer,
		logger:    logger,
		topK:      topK,
		maxInput:  maxInput,
	}
}

// Ready reports whether all collaborators were constructed.
func (r *Responder) Ready() bool {
	return r.embedder != nil && r.searcher != nil && r.completer != nil
}

// Answer runs one question through the pipeline and always returns displayable
// text. Retrieval happens before prompt assembly, which happens before the
// model call; history influences retrieval because the composed question is
// what gets embedded.
func (r *Responder) Answer(ctx context.Context, question string, history []Turn) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return MsgEmptyQuestion
	}

	composed := composeQuestion(question, history)
	if len(composed) > r.maxInput {
		return MsgTooLong
	}

	if !r.Ready() {
		return MsgNotReady
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{composed})
	if err != nil {
		r.logger.Warn("failed to embed question", "error", err)
		return errorAnswer(err)
	}

	hits, err := r.searcher.Search(ctx, vectors[0], r.topK)
	if err != nil {
		r.logger.Warn("retrieval failed", "error", err)
		return errorAnswer(err)
	}

	prompt := assemblePrompt(hits, composed)
	answer, err := r.completer.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		r.logger.Warn("completion failed", "error", err)
		return errorAnswer(err)
	}
	return answer
}

// composeQuestion renders the history one turn per line and appends the new
// question as a final User line. With no history it is the bare question.
func composeQuestion(question string, history []Turn) string {
	serialized := formatHistory(history)
	if serialized == "" {
		return question
	}
	return fmt.Sprintf("%s\nUser: %s", serialized, question)
}

// formatHistory renders each turn as "<Role>: <text>" in original order.
// Roles other than user and assistant are skipped.
func formatHistory(history []Turn) string {
	var lines []string
	for _, turn := range history {
		switch turn.Role {
		case "user":
			lines = append(lines, fmt.Sprintf("User: %s", turn.Content))
		case "assistant":
			lines = append(lines, fmt.Sprintf("Assistant: %s", turn.Content))
		}
	}
	return strings.Join(lines, "\n")
}

// assemblePrompt concatenates the retrieved chunk texts as context and keeps
// the original composed question as the question.
func assemblePrompt(hits []Hit, composed string) string {
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		if hit.Text != "" {
			texts = append(texts, hit.Text)
		}
	}
	return fmt.Sprintf("Context: %s\n\nQuestion: %s", strings.Join(texts, "\n\n"), composed)
}

func errorAnswer(err error) string {
	return fmt.Sprintf("An error occurred while generating the answer: %v\n\nPlease check your API key, model availability, or the setup of your knowledge base.", err)
}
