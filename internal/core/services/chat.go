package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService runs conversational queries against the engine and keeps
// each conversation's history in the session store.
type ChatService struct {
	engine     *QueryEngine
	sessions   driven.SessionStore
	store      driven.VectorStore
	lexical    *LexicalIndex
	embedder   driven.EmbeddingService
	llm        driven.LLMService
	collection string
}

// NewChatService creates a chat service.
func NewChatService(
	engine *QueryEngine,
	sessions driven.SessionStore,
	store driven.VectorStore,
	lexical *LexicalIndex,
) *ChatService {
	return &ChatService{engine: engine, sessions: sessions, store: store, lexical: lexical}
}

// SetModels records the services whose model names Status reports.
func (s *ChatService) SetModels(embedder driven.EmbeddingService, llm driven.LLMService, collection string) {
	s.embedder, s.llm, s.collection = embedder, llm, collection
}

// Query answers req.Question within its conversation. An empty
// ConversationID starts a new conversation with a generated ID.
// History changes only when the answer succeeds.
func (s *ChatService) Query(ctx context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if s.store.Count() == 0 {
		return nil, domain.ErrVectorStoreUninitialized
	}

	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		id = uuid.NewString()
	}
	logger.Debug("Conversation %s: %q", id, question)

	session := s.sessions.GetOrCreate(id)

	var answer *domain.Answer
	err := session.Update(func(h domain.History) (domain.History, error) {
		a, next, err := s.engine.Answer(ctx, h, question, req.Filter)
		if err != nil {
			return nil, err
		}
		answer = a
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Answer:         answer.Text,
		Sources:        answer.Sources(),
		ConversationID: id,
	}, nil
}

// History returns the turns of a conversation.
func (s *ChatService) History(conversationID string) (domain.History, error) {
	session, err := s.sessions.Get(conversationID)
	if err != nil {
		return nil, err
	}
	return session.History(), nil
}

// Clear forgets a conversation.
func (s *ChatService) Clear(conversationID string) {
	s.sessions.Clear(conversationID)
}

// Conversations returns the IDs of live conversations.
func (s *ChatService) Conversations() []string {
	return s.sessions.IDs()
}

// Status reports what the engine currently holds.
func (s *ChatService) Status(_ context.Context) domain.EngineStatus {
	st := domain.EngineStatus{
		Collection:    s.collection,
		VectorChunks:  s.store.Count(),
		Conversations: s.sessions.Len(),
	}
	if s.lexical != nil {
		st.LexicalDocuments = s.lexical.Len()
	}
	if s.embedder != nil {
		st.EmbeddingModel = s.embedder.ModelName()
		if c, ok := s.embedder.(interface{ Len() int }); ok {
			st.EmbeddingCacheEntries = c.Len()
		}
	}
	if s.llm != nil {
		st.LLMModel = s.llm.ModelName()
	}
	return st
}
