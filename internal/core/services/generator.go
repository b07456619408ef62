package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

var _ driven.PromptStoreAware = (*Generator)(nil)

// Generator produces grounded answers from retrieved passages.
type Generator struct {
	llm         driven.LLMService
	prompts     driven.PromptStore
	temperature float64
}

// NewGenerator creates a generator.
func NewGenerator(llm driven.LLMService, temperature float64) *Generator {
	return &Generator{llm: llm, temperature: temperature}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (g *Generator) SetPromptStore(store driven.PromptStore) {
	g.prompts = store
}

// Generate answers question from passages in one model call.
// Messages are ordered: system prompt, context, history, question.
func (g *Generator) Generate(ctx context.Context, history domain.History, question string, passages []domain.Passage) (string, error) {
	messages := make([]driven.ChatMessage, 0, len(history)+3)
	messages = append(messages,
		driven.ChatMessage{Role: driven.RoleSystem, Content: loadPrompt(g.prompts, driven.PromptAnswerSystem)},
		driven.ChatMessage{Role: driven.RoleSystem, Content: contextBlock(passages)},
	)
	for _, t := range history {
		role := driven.RoleAssistant
		if t.Role == domain.RoleUser {
			role = driven.RoleUser
		}
		messages = append(messages, driven.ChatMessage{Role: role, Content: t.Text})
	}
	messages = append(messages, driven.ChatMessage{Role: driven.RoleUser, Content: question})

	out, err := g.llm.Chat(ctx, messages, driven.ChatOptions{Temperature: g.temperature})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: empty output", domain.ErrGenerationFailed)
	}
	return out, nil
}

// contextBlock joins passage texts into the grounding context.
func contextBlock(passages []domain.Passage) string {
	if len(passages) == 0 {
		return "Context:\n(no matching records)"
	}
	parts := make([]string, len(passages))
	for i, p := range passages {
		parts[i] = p.Content
	}
	return "Context:\n" + strings.Join(parts, "\n\n---\n\n")
}
