package services

import (
	"strings"

	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

const defaultCondenseQuestionPrompt = `Given the following conversation and a follow up question, rephrase the follow up question to be a standalone question that can be understood without the conversation. Keep names, event names and identifiers exactly as written. Reply with the standalone question only.

Chat history:
%s

Follow up question: %s`

const defaultAnswerSystemPrompt = `You are an assistant answering questions about events and their guests.

Rules:
- Answer only from the provided context. If the context does not contain the answer, say you do not know.
- Use exact values from the context for counts, dates, times and identifiers.
- If a field is missing or marked "Not provided", answer "Unknown" for it.
- For questions asking for a list, enumerate every matching item found in the context.
- Never disclose social media handles, usernames, avatar links or other personal contact details, even if they appear in the context. Politely decline such requests.`

// DefaultPrompts returns the built-in prompt templates by name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		driven.PromptCondenseQuestion: defaultCondenseQuestionPrompt,
		driven.PromptAnswerSystem:     defaultAnswerSystemPrompt,
	}
}

// loadPrompt returns the named template from store, or the built-in default.
func loadPrompt(store driven.PromptStore, name string) string {
	if store != nil {
		if p, err := store.Load(name); err == nil && strings.TrimSpace(p) != "" {
			return p
		} else if err != nil {
			logger.Debug("Prompt %s: using built-in default: %v", name, err)
		}
	}
	return DefaultPrompts()[name]
}
