package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/chatlog"
	"github.com/paperchat/paperchat/internal/store"
)

// Errors the API layer maps to specific status codes. Anything else is a
// generic internal error; its detail stays in the logs.
var (
	ErrEmptyQuestion = errors.New("question cannot be empty")
	ErrNotConfigured = errors.New("llm credential is not configured")
)

const historyWindow = 10 // prior messages replayed to the agent per session

// Answerer resolves one question to its terminal answer. Satisfied by Agent.
type Answerer interface {
	Answer(ctx context.Context, history []*genai.Content, question string) (AgentResult, error)
}

// ChatService orchestrates a chat request end to end: validation, session
// resolution, agent run, sanitization, logging, and the response record.
type ChatService struct {
	dbStore    *store.SQLiteStore
	answerer   Answerer
	chatLog    *chatlog.Logger
	logger     *zap.Logger
	configured bool // whether an LLM credential is present
}

func NewChatService(db *store.SQLiteStore, answerer Answerer, chatLog *chatlog.Logger, configured bool, logger *zap.Logger) *ChatService {
	return &ChatService{
		dbStore:    db,
		answerer:   answerer,
		chatLog:    chatLog,
		logger:     logger,
		configured: configured,
	}
}

// Handle answers one question. A missing session identifier is replaced with
// a freshly generated one; the identifier used is echoed in the record.
func (s *ChatService) Handle(ctx context.Context, question, sessionID string) (*chatlog.Record, error) {
	// Configuration is checked before the question: an unconfigured server
	// reports that regardless of what was asked.
	if !s.configured {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if _, err := s.dbStore.EnsureSession(sessionID); err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	history, err := s.sessionHistory(sessionID)
	if err != nil {
		// History is an enrichment, not a requirement; answer without it.
		s.logger.Warn("failed to load session history", zap.String("session_id", sessionID), zap.Error(err))
		history = nil
	}

	result, err := s.answerer.Answer(ctx, history, question)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	answer := EnsureAnswer(CleanAnswer(result.Answer))
	record := chatlog.NewRecord(sessionID, question, answer, result.Source())
	s.chatLog.Append(record)

	// Persist the turn for future requests on this session. Failures are
	// logged only; the answer has already been produced.
	if _, err := s.dbStore.AppendMessage(sessionID, "user", question); err != nil {
		s.logger.Warn("failed to store user message", zap.String("session_id", sessionID), zap.Error(err))
	}
	if _, err := s.dbStore.AppendMessage(sessionID, "model", answer); err != nil {
		s.logger.Warn("failed to store model message", zap.String("session_id", sessionID), zap.Error(err))
	}

	return &record, nil
}

// ListRecords returns every logged answer record, newest partition first.
func (s *ChatService) ListRecords() ([]chatlog.Record, error) {
	return s.chatLog.ReadAll()
}

func (s *ChatService) sessionHistory(sessionID string) ([]*genai.Content, error) {
	messages, err := s.dbStore.GetRecentMessages(sessionID, historyWindow)
	if err != nil {
		return nil, err
	}

	var history []*genai.Content
	for _, msg := range messages {
		history = append(history, &genai.Content{
			Role:  msg.Role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history, nil
}
