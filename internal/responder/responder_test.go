package responder

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	texts  [][]string
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.texts = append(f.texts, texts)
	if f.err != nil {
		return nil, f.err
	}
	return [][]float32{f.vector}, nil
}

type fakeSearcher struct {
	vectors [][]float32
	ks      []int
	hits    []Hit
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, vector []float32, k int) ([]Hit, error) {
	f.vectors = append(f.vectors, vector)
	f.ks = append(f.ks, k)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeCompleter struct {
	systems []string
	users   []string
	answer  string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.systems = append(f.systems, system)
	f.users = append(f.users, user)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestResponder(e *fakeEmbedder, s *fakeSearcher, c *fakeCompleter) *Responder {
	return New(e, s, c, nil, Options{})
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	embedder := &fakeEmbedder{}
	searcher := &fakeSearcher{}
	completer := &fakeCompleter{}
	r := newTestResponder(embedder, searcher, completer)

	assert.Equal(t, MsgEmptyQuestion, r.Answer(context.Background(), "", nil))
	assert.Equal(t, MsgEmptyQuestion, r.Answer(context.Background(), "   \n ", nil))

	// Rejected locally, before any collaborator is touched.
	assert.Empty(t, embedder.texts)
	assert.Empty(t, searcher.vectors)
	assert.Empty(t, completer.users)
}

func TestAnswer_TooLong(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestResponder(embedder, &fakeSearcher{}, &fakeCompleter{})

	long := strings.Repeat("x", DefaultMaxInputLength+1)
	assert.Equal(t, MsgTooLong, r.Answer(context.Background(), long, nil))
	assert.Empty(t, embedder.texts)
}

func TestAnswer_HistoryCountsTowardLimit(t *testing.T) {
	embedder := &fakeEmbedder{}
	r := newTestResponder(embedder, &fakeSearcher{}, &fakeCompleter{})

	history := []Turn{{Role: "user", Content: strings.Repeat("y", DefaultMaxInputLength)}}
	assert.Equal(t, MsgTooLong, r.Answer(context.Background(), "short question", history))
	assert.Empty(t, embedder.texts)
}

func TestAnswer_NotReady(t *testing.T) {
	r := New(nil, nil, nil, nil, Options{})

	assert.False(t, r.Ready())
	assert.Equal(t, MsgNotReady, r.Answer(context.Background(), "why is the baseline drifting?", nil))
}

func TestAnswer_HappyPath(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	searcher := &fakeSearcher{hits: []Hit{
		{Text: "Warm up the lamp for thirty minutes.", DocumentID: 1, ChunkIndex: 0},
		{Text: "Check the flow cell for bubbles.", DocumentID: 2, ChunkIndex: 3},
	}}
	completer := &fakeCompleter{answer: "Warm up the lamp and degas the mobile phase."}
	r := newTestResponder(embedder, searcher, completer)

	history := []Turn{
		{Role: "user", Content: "The baseline is noisy."},
		{Role: "assistant", Content: "Have you degassed the solvent?"},
	}
	answer := r.Answer(context.Background(), "Still noisy, what next?", history)
	assert.Equal(t, "Warm up the lamp and degas the mobile phase.", answer)

	// Retrieval sees the history, not just the bare question.
	composed := "User: The baseline is noisy.\nAssistant: Have you degassed the solvent?\nUser: Still noisy, what next?"
	require.Len(t, embedder.texts, 1)
	assert.Equal(t, []string{composed}, embedder.texts[0])

	require.Len(t, searcher.ks, 1)
	assert.Equal(t, DefaultTopK, searcher.ks[0])
	assert.Equal(t, []float32{0.1, 0.2}, searcher.vectors[0])

	require.Len(t, completer.users, 1)
	wantPrompt := "Context: Warm up the lamp for thirty minutes.\n\nCheck the flow cell for bubbles.\n\nQuestion: " + composed
	assert.Equal(t, wantPrompt, completer.users[0])
	assert.Contains(t, completer.systems[0], "HPLC instrument troubleshooting expert")
}

func TestAnswer_NoHistory(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	searcher := &fakeSearcher{}
	completer := &fakeCompleter{answer: "ok"}
	r := newTestResponder(embedder, searcher, completer)

	r.Answer(context.Background(), "How do I purge the pump?", nil)

	require.Len(t, embedder.texts, 1)
	assert.Equal(t, []string{"How do I purge the pump?"}, embedder.texts[0])
}

func TestAnswer_SkipsUnknownRoles(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	completer := &fakeCompleter{answer: "ok"}
	r := newTestResponder(embedder, &fakeSearcher{}, completer)

	history := []Turn{
		{Role: "system", Content: "ignore me"},
		{Role: "user", Content: "hello"},
	}
	r.Answer(context.Background(), "next", history)

	require.Len(t, embedder.texts, 1)
	assert.Equal(t, []string{"User: hello\nUser: next"}, embedder.texts[0])
}

func TestAnswer_EmbedderFailure(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	searcher := &fakeSearcher{}
	r := newTestResponder(embedder, searcher, &fakeCompleter{})

	answer := r.Answer(context.Background(), "question", nil)
	assert.Contains(t, answer, "An error occurred while generating the answer")
	assert.Contains(t, answer, "rate limited")
	assert.Empty(t, searcher.vectors)
}

func TestAnswer_SearcherFailure(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	searcher := &fakeSearcher{err: errors.New("index unavailable")}
	completer := &fakeCompleter{}
	r := newTestResponder(embedder, searcher, completer)

	answer := r.Answer(context.Background(), "question", nil)
	assert.Contains(t, answer, "index unavailable")
	assert.Empty(t, completer.users)
}

func TestAnswer_CompleterFailure(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	completer := &fakeCompleter{err: errors.New("model overloaded")}
	r := newTestResponder(embedder, &fakeSearcher{}, completer)

	answer := r.Answer(context.Background(), "question", nil)
	assert.Contains(t, answer, "model overloaded")
	assert.Contains(t, answer, "Please check your API key")
}

func TestAnswer_NoHitsStillCompletes(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.5}}
	completer := &fakeCompleter{answer: "speculative advice"}
	r := newTestResponder(embedder, &fakeSearcher{}, completer)

	answer := r.Answer(context.Background(), "obscure question", nil)
	assert.Equal(t, "speculative advice", answer)

	require.Len(t, completer.users, 1)
	assert.Equal(t, "Context: \n\nQuestion: obscure question", completer.users[0])
}
