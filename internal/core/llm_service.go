package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/paperchat/paperchat/internal/config"
)

const (
	agentSystemInstruction = "You are a research assistant for a local collection of papers. " +
		"When a question may be answered from the papers, call the query_documents tool with the question. " +
		"Answer directly, without the tool, only for conversational turns that need no document evidence. " +
		"Do not make up citations or content that is not in the papers."

	qaSystemInstruction = "You answer questions strictly from the provided paper excerpts. " +
		"If the excerpts do not contain the answer, reply with exactly: I cannot answer. " +
		"Keep the answer concise and do not repeat the question."

	// Tool exposed to the routing agent. Exactly one tool is bound.
	queryDocumentsToolName = "query_documents"
)

// LLMService wraps the Gemini client for the three calls this backend makes:
// text embeddings, grounded question answering, and the tool-calling chat
// used by the routing agent.
type LLMService struct {
	client *genai.Client
	logger *zap.Logger
}

func NewLLMService(ctx context.Context, apiKey string, logger *zap.Logger) (*LLMService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &LLMService{client: client, logger: logger}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.Warn("error closing GenAI client", zap.Error(err))
		}
	}
}

// EmbedDocument embeds a chunk of paper text for indexing.
func (s *LLMService) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text, genai.TaskTypeRetrievalDocument)
}

// EmbedQuery embeds a question for similarity search.
func (s *LLMService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.embed(ctx, text, genai.TaskTypeRetrievalQuery)
}

// embed requests an embedding with the task type set. Some embedding model
// versions reject the optional task type; on that rejection the same request
// is retried once without it rather than failing the call.
func (s *LLMService) embed(ctx context.Context, text string, taskType genai.TaskType) ([]float32, error) {
	em := s.client.EmbeddingModel(config.EmbeddingModelName)
	em.TaskType = taskType

	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil && isParamRejected(err) {
		s.logger.Debug("embedding task type rejected, retrying without it", zap.Error(err))
		em.TaskType = genai.TaskTypeUnspecified
		res, err = em.EmbedContent(ctx, genai.Text(text))
	}
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

// GenerateGroundedAnswer asks the chat model to answer a question using only
// the retrieved paper excerpts. The generation config is optional: if the
// model rejects it the call is retried once without it.
func (s *LLMService) GenerateGroundedAnswer(ctx context.Context, question, excerpts string) (string, error) {
	model := s.client.GenerativeModel(config.ChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(qaSystemInstruction)},
	}

	temp := float32(0.1)
	maxTokens := int32(1024)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &temp,
		MaxOutputTokens: &maxTokens,
	}

	prompt := fmt.Sprintf("Excerpts from the papers:\n\n%s\n\nQuestion: %s", excerpts, question)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil && isParamRejected(err) {
		s.logger.Debug("generation config rejected, retrying without it", zap.Error(err))
		model.GenerationConfig = genai.GenerationConfig{}
		resp, err = model.GenerateContent(ctx, genai.Text(prompt))
	}
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return ContentText(resp.Candidates[0].Content), nil
}

// ToolChat is one tool-calling conversation with the model. Send appends the
// given parts as a user turn and returns the model's reply content.
type ToolChat interface {
	Send(ctx context.Context, parts ...genai.Part) (*genai.Content, error)
}

// StartToolChat opens a chat session with the query_documents tool bound and
// the given prior conversation as history.
func (s *LLMService) StartToolChat(history []*genai.Content) ToolChat {
	model := s.client.GenerativeModel(config.ChatModelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(agentSystemInstruction)},
	}
	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        queryDocumentsToolName,
					Description: "Search the local paper collection and answer a question from its contents.",
					Parameters: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"question": {
								Type:        genai.TypeString,
								Description: "The question to answer from the papers.",
							},
						},
						Required: []string{"question"},
					},
				},
			},
		},
	}

	session := model.StartChat()
	session.History = history
	return &genaiToolChat{session: session}
}

type genaiToolChat struct {
	session *genai.ChatSession
}

func (c *genaiToolChat) Send(ctx context.Context, parts ...genai.Part) (*genai.Content, error) {
	resp, err := c.session.SendMessage(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	return resp.Candidates[0].Content, nil
}

// ContentText concatenates the text parts of a content, ignoring any
// non-text parts.
func ContentText(content *genai.Content) string {
	if content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// isParamRejected reports whether the API refused the request because of an
// optional parameter it does not support, which is recoverable by retrying
// without that parameter.
func isParamRejected(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 400
	}
	return strings.Contains(err.Error(), "INVALID_ARGUMENT")
}
