package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/chatlog"
	"github.com/paperchat/paperchat/internal/core"
)

// ChatService is the part of core.ChatService the handlers need.
type ChatService interface {
	Handle(ctx context.Context, question, sessionID string) (*chatlog.Record, error)
	ListRecords() ([]chatlog.Record, error)
}

type APIHandler struct {
	chatService ChatService
	logger      *zap.Logger
}

func NewAPIHandler(cs ChatService, logger *zap.Logger) *APIHandler {
	return &APIHandler{chatService: cs, logger: logger}
}

type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

// ChatHandler answers one question over the paper collection.
//
// POST /api/chat {question, session_id?} -> 200 with the answer record,
// 400 on an empty question, 500 when the credential is missing or anything
// fails internally. Internal detail is never echoed to the caller.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := h.chatService.Handle(r.Context(), req.Question, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyQuestion):
			http.Error(w, "Question cannot be empty.", http.StatusBadRequest)
		case errors.Is(err, core.ErrNotConfigured):
			http.Error(w, "API key is not configured on the server.", http.StatusInternalServerError)
		default:
			h.logger.Error("chat request failed",
				zap.String("session_id", req.SessionID),
				zap.Error(err),
			)
			http.Error(w, "An error occurred while processing your question.", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, h.logger, record)
}

// LogsHandler returns every persisted answer record, most recent partition
// first.
//
// GET /api/logs -> 200 with a JSON array of answer records.
func (h *APIHandler) LogsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := h.chatService.ListRecords()
	if err != nil {
		h.logger.Error("failed to read answer log", zap.Error(err))
		http.Error(w, "Failed to read logs.", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []chatlog.Record{}
	}
	writeJSON(w, h.logger, records)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}
