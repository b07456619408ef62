package driving

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// ChatService answers questions in the context of a conversation.
type ChatService interface {
	// Query answers req.Question, creating the conversation if needed.
	Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error)

	// History returns the turns of a conversation, or domain.ErrNotFound.
	History(conversationID string) (domain.History, error)

	// Clear forgets a conversation.
	Clear(conversationID string)

	// Conversations returns the IDs of live conversations.
	Conversations() []string

	// Status reports what the engine currently holds.
	Status(ctx context.Context) domain.EngineStatus
}
