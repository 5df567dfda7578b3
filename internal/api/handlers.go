// Package api exposes the responder contract over HTTP for the chat
// front-ends. The handlers are thin adapters; all answer logic lives in the
// responder.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/labaid/labaid/internal/responder"
)

// ChatRequest is the question plus the caller-held conversation history.
type ChatRequest struct {
	Question string           `json:"question"`
	History  []responder.Turn `json:"history"`
}

// ChatResponse carries the displayable answer text.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// Handler serves the chat API.
type Handler struct {
	responder *responder.Responder
	logger    *slog.Logger
}

// NewHandler creates a Handler around a responder.
func NewHandler(r *responder.Responder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{responder: r, logger: logger}
}

// Chat answers one question. The responder never fails a request: every
// outcome is a 200 with displayable text.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	answer := h.responder.Answer(r.Context(), req.Question, req.History)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ChatResponse{Answer: answer}); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}
}
