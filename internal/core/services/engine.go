package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// QueryEngine answers one question given a conversation history.
// It holds no conversation state.
type QueryEngine struct {
	rewriter  *Rewriter
	retriever *HybridRetriever
	generator *Generator
}

// NewQueryEngine creates a query engine.
func NewQueryEngine(rewriter *Rewriter, retriever *HybridRetriever, generator *Generator) *QueryEngine {
	return &QueryEngine{rewriter: rewriter, retriever: retriever, generator: generator}
}

// Answer rewrites the question, retrieves passages and generates an answer.
// It returns the answer and history extended by the user and assistant turns.
// The input history is never modified.
func (e *QueryEngine) Answer(
	ctx context.Context, history domain.History, question string, filter domain.RetrievalFilter,
) (*domain.Answer, domain.History, error) {
	logger.Section("Answer")

	standalone, err := e.rewriter.Rewrite(ctx, history, question)
	if err != nil {
		return nil, history, err
	}

	passages, err := e.retriever.Retrieve(ctx, standalone, filter)
	if err != nil {
		return nil, history, fmt.Errorf("retrieve: %w", err)
	}

	text, err := e.generator.Generate(ctx, history, question, passages)
	if err != nil {
		return nil, history, err
	}

	next := history.Append(
		domain.Turn{Role: domain.RoleUser, Text: question},
		domain.Turn{Role: domain.RoleAssistant, Text: text},
	)
	return &domain.Answer{Text: text, StandaloneQuery: standalone, Passages: passages}, next, nil
}
