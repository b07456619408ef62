package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

var _ driven.PromptStoreAware = (*Rewriter)(nil)

// Rewriter turns a follow-up question into a standalone query using the
// conversation history.
type Rewriter struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	temperature float64
}

// NewRewriter creates a rewriter.
func NewRewriter(llm driven.LLMService, temperature float64) *Rewriter {
	return &Rewriter{llm: llm, temperature: temperature}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (r *Rewriter) SetPromptStore(store driven.PromptStore) {
	r.prompts = store
}

// Rewrite returns question unchanged when history is empty. Otherwise it
// asks the model for a standalone question. Model errors and empty output
// fail with domain.ErrRewriteFailed.
func (r *Rewriter) Rewrite(ctx context.Context, history domain.History, question string) (string, error) {
	if len(history) == 0 {
		return question, nil
	}

	prompt := fmt.Sprintf(loadPrompt(r.prompts, driven.PromptCondenseQuestion), formatHistory(history), question)

	out, err := r.llm.Chat(ctx, []driven.ChatMessage{
		{Role: driven.RoleUser, Content: prompt},
	}, driven.ChatOptions{Temperature: r.temperature})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRewriteFailed, err)
	}

	standalone := cleanRewrite(out)
	if standalone == "" {
		return "", fmt.Errorf("%w: empty output", domain.ErrRewriteFailed)
	}

	logger.Debug("Rewrote %q as %q", question, standalone)
	return standalone, nil
}

// cleanRewrite strips whitespace, a leading label and surrounding quotes.
func cleanRewrite(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"Standalone question:", "standalone question:"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}

func formatHistory(h domain.History) string {
	var b strings.Builder
	for _, t := range h {
		switch t.Role {
		case domain.RoleUser:
			b.WriteString("Human: ")
		default:
			b.WriteString("Assistant: ")
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
