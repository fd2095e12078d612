package core

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/chatlog"
)

// MaxToolHops bounds the agent/tool loop. The model normally stops
// requesting the tool after one hop; the cap fails closed against a model
// that keeps asking, returning whatever text has accumulated.
const MaxToolHops = 5

// ToolChatStarter opens a tool-calling chat with prior conversation
// attached. Satisfied by LLMService.
type ToolChatStarter interface {
	StartToolChat(history []*genai.Content) ToolChat
}

// DocumentQuerier answers a question from the paper collection. Satisfied by
// RAGService.
type DocumentQuerier interface {
	Query(ctx context.Context, question string) (string, error)
}

// AgentResult is the terminal state of one agent run.
type AgentResult struct {
	Answer   string
	UsedTool bool
}

// Source returns the answer-record source tag for this run: rag_api when
// the document tool was invoked at least once, conversational_api otherwise.
func (r AgentResult) Source() string {
	if r.UsedTool {
		return chatlog.SourceRAG
	}
	return chatlog.SourceConversational
}

// Agent drives the two-node decision loop: send the conversation to the
// model; if the reply requests the query_documents tool, execute it and feed
// the result back; otherwise the reply text is the final answer. Message
// accumulation is append-only inside the chat session.
type Agent struct {
	llm     ToolChatStarter
	querier DocumentQuerier
	logger  *zap.Logger
	maxHops int
}

func NewAgent(llm ToolChatStarter, querier DocumentQuerier, logger *zap.Logger) *Agent {
	return &Agent{
		llm:     llm,
		querier: querier,
		logger:  logger,
		maxHops: MaxToolHops,
	}
}

// Answer runs the loop to its terminal state for one question, with the
// session's prior turns as history.
func (a *Agent) Answer(ctx context.Context, history []*genai.Content, question string) (AgentResult, error) {
	chat := a.llm.StartToolChat(history)

	result := AgentResult{}
	parts := []genai.Part{genai.Text(question)}

	for hop := 0; hop <= a.maxHops; hop++ {
		content, err := chat.Send(ctx, parts...)
		if err != nil {
			return result, fmt.Errorf("agent model call failed: %w", err)
		}

		call, ok := findFunctionCall(content)
		if !ok {
			result.Answer = ContentText(content)
			return result, nil
		}

		result.UsedTool = true
		toolQuestion := stringArg(call.Args, "question", question)
		a.logger.Info("agent requested document query", zap.String("question", toolQuestion))

		toolAnswer, err := a.querier.Query(ctx, toolQuestion)
		if err != nil {
			return result, fmt.Errorf("document query failed: %w", err)
		}

		parts = []genai.Part{genai.FunctionResponse{
			Name:     call.Name,
			Response: map[string]any{"answer": toolAnswer},
		}}
	}

	// Hop budget exhausted: fail closed with whatever we have. The caller's
	// no-answer policy substitutes the fallback sentence if this is empty.
	a.logger.Warn("agent exceeded tool hop budget", zap.Int("max_hops", a.maxHops))
	return result, nil
}

func findFunctionCall(content *genai.Content) (genai.FunctionCall, bool) {
	if content == nil {
		return genai.FunctionCall{}, false
	}
	for _, part := range content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			return call, true
		}
	}
	return genai.FunctionCall{}, false
}

func stringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
