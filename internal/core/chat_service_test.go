package core

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paperchat/paperchat/internal/chatlog"
	"github.com/paperchat/paperchat/internal/store"
)

type fakeAnswerer struct {
	result  AgentResult
	err     error
	history []*genai.Content
	calls   int
}

func (f *fakeAnswerer) Answer(ctx context.Context, history []*genai.Content, question string) (AgentResult, error) {
	f.calls++
	f.history = history
	return f.result, f.err
}

func newTestChatService(t *testing.T, answerer Answerer, configured bool) (*ChatService, *chatlog.Logger) {
	t.Helper()
	dir := t.TempDir()
	dbStore, err := store.NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	chatLog := chatlog.NewLogger(filepath.Join(dir, "logs"), zap.NewNop())
	return NewChatService(dbStore, answerer, chatLog, configured, zap.NewNop()), chatLog
}

func TestChatServiceRejectsEmptyQuestion(t *testing.T) {
	t.Parallel()

	svc, _ := newTestChatService(t, &fakeAnswerer{}, true)
	_, err := svc.Handle(context.Background(), "   ", "")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestChatServiceRejectsMissingCredential(t *testing.T) {
	t.Parallel()

	svc, _ := newTestChatService(t, nil, false)
	_, err := svc.Handle(context.Background(), "a valid question?", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChatServiceMissingCredentialWinsOverEmptyQuestion(t *testing.T) {
	t.Parallel()

	svc, _ := newTestChatService(t, nil, false)
	_, err := svc.Handle(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NotErrorIs(t, err, ErrEmptyQuestion)
}

func TestChatServiceGeneratesSessionID(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{result: AgentResult{Answer: "an answer", UsedTool: true}}
	svc, _ := newTestChatService(t, answerer, true)

	record, err := svc.Handle(context.Background(), "what is X?", "")
	require.NoError(t, err)

	assert.NotEmpty(t, record.SessionID)
	assert.Equal(t, "what is X?", record.Question)
	assert.Equal(t, "an answer", record.Answer)
	assert.Equal(t, chatlog.SourceRAG, record.Source)
	assert.NotEmpty(t, record.Timestamp)
}

func TestChatServicePreservesSessionID(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{result: AgentResult{Answer: "hi"}}
	svc, _ := newTestChatService(t, answerer, true)

	record, err := svc.Handle(context.Background(), "hello", "session-123")
	require.NoError(t, err)
	assert.Equal(t, "session-123", record.SessionID)
	assert.Equal(t, chatlog.SourceConversational, record.Source)
}

func TestChatServiceSanitizesAndFallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "echoed question stripped",
			raw:  "Question: hello?\nThe actual answer",
			want: "The actual answer",
		},
		{
			name: "empty answer becomes fallback",
			raw:  "",
			want: FallbackAnswer,
		},
		{
			name: "refusal token becomes fallback",
			raw:  "None",
			want: FallbackAnswer,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			answerer := &fakeAnswerer{result: AgentResult{Answer: tt.raw}}
			svc, _ := newTestChatService(t, answerer, true)

			record, err := svc.Handle(context.Background(), "hello?", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, record.Answer)
		})
	}
}

func TestChatServiceAppendsToLog(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{result: AgentResult{Answer: "logged answer", UsedTool: true}}
	svc, chatLog := newTestChatService(t, answerer, true)

	record, err := svc.Handle(context.Background(), "what?", "s1")
	require.NoError(t, err)

	records, err := chatLog.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, *record, records[0])
}

func TestChatServiceFeedsHistoryOnSecondTurn(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{result: AgentResult{Answer: "first answer"}}
	svc, _ := newTestChatService(t, answerer, true)

	_, err := svc.Handle(context.Background(), "first question", "s1")
	require.NoError(t, err)
	assert.Empty(t, answerer.history, "no history on first turn")

	_, err = svc.Handle(context.Background(), "second question", "s1")
	require.NoError(t, err)

	require.Len(t, answerer.history, 2)
	assert.Equal(t, "user", answerer.history[0].Role)
	assert.Equal(t, genai.Text("first question"), answerer.history[0].Parts[0])
	assert.Equal(t, "model", answerer.history[1].Role)
}

func TestChatServicePropagatesAgentFailure(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{err: context.DeadlineExceeded}
	svc, chatLog := newTestChatService(t, answerer, true)

	_, err := svc.Handle(context.Background(), "q", "")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrEmptyQuestion)
	assert.NotErrorIs(t, err, ErrNotConfigured)

	records, readErr := chatLog.ReadAll()
	require.NoError(t, readErr)
	assert.Empty(t, records, "failed requests are not logged as answers")
}
