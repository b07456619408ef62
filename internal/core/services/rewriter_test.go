package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

func sampleHistory() domain.History {
	return domain.History{
		{Role: domain.RoleUser, Text: "Tell me about Launch Party"},
		{Role: domain.RoleAssistant, Text: "Launch Party is in Lagos."},
	}
}

func TestRewriter_EmptyHistoryReturnsQuestion(t *testing.T) {
	llm := &mockLLMService{}
	r := NewRewriter(llm, 0)

	got, err := r.Rewrite(context.Background(), nil, "who is attending?")

	require.NoError(t, err)
	assert.Equal(t, "who is attending?", got)
	assert.Zero(t, llm.Calls())
}

func TestRewriter_UsesHistory(t *testing.T) {
	llm := &mockLLMService{respond: func(m []driven.ChatMessage) (string, error) {
		return "  Standalone question: \"Who is attending Launch Party?\"\n", nil
	}}
	r := NewRewriter(llm, 0)

	got, err := r.Rewrite(context.Background(), sampleHistory(), "who is attending?")

	require.NoError(t, err)
	assert.Equal(t, "Who is attending Launch Party?", got)

	require.Equal(t, 1, llm.Calls())
	prompt := llm.calls[0][0].Content
	assert.Contains(t, prompt, "Human: Tell me about Launch Party\nAssistant: Launch Party is in Lagos.")
	assert.Contains(t, prompt, "Follow up question: who is attending?")
}

func TestRewriter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		respond func([]driven.ChatMessage) (string, error)
	}{
		{"model error", func([]driven.ChatMessage) (string, error) { return "", errors.New("timeout") }},
		{"empty output", func([]driven.ChatMessage) (string, error) { return "  \"\" ", nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRewriter(&mockLLMService{respond: tt.respond}, 0)

			_, err := r.Rewrite(context.Background(), sampleHistory(), "and then?")

			assert.True(t, errors.Is(err, domain.ErrRewriteFailed))
			assert.False(t, errors.Is(err, domain.ErrGenerationFailed))
		})
	}
}

func TestRewriter_CustomPrompt(t *testing.T) {
	llm := &mockLLMService{}
	r := NewRewriter(llm, 0)
	r.SetPromptStore(&mockPromptStore{prompts: map[string]string{
		driven.PromptCondenseQuestion: "HISTORY=%s QUESTION=%s",
	}})

	_, err := r.Rewrite(context.Background(), sampleHistory()[:1], "why?")

	require.NoError(t, err)
	assert.Equal(t, "HISTORY=Human: Tell me about Launch Party QUESTION=why?", llm.calls[0][0].Content)
}

func TestCleanRewrite(t *testing.T) {
	assert.Equal(t, "Who?", cleanRewrite("  'Who?'  "))
	assert.Equal(t, "Who?", cleanRewrite("standalone question: Who?"))
	assert.Equal(t, "\"Who?", cleanRewrite("\"Who?"))
	assert.Empty(t, cleanRewrite("   "))
}
