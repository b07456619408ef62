package rest

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	result    *domain.QueryResult
	err       error
	lastReq   domain.QueryRequest
	histories map[string]domain.History
	cleared   []string
	status    domain.EngineStatus
}

func (m *mockChatService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockChatService) History(id string) (domain.History, error) {
	h, ok := m.histories[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

func (m *mockChatService) Clear(id string) {
	m.cleared = append(m.cleared, id)
}

func (m *mockChatService) Conversations() []string {
	var ids []string
	for id := range m.histories {
		ids = append(ids, id)
	}
	return ids
}

func (m *mockChatService) Status(context.Context) domain.EngineStatus {
	return m.status
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result    *domain.IngestResult
	err       error
	runs      []domain.IngestRun
	dual      int
	csv       int
	lastReq   domain.IngestRequest
	lastLimit int
}

func (m *mockIngestService) IngestDual(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.dual++
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestService) IngestCSV(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.csv++
	m.lastReq = req
	return m.result, m.err
}

func (m *mockIngestService) History(_ context.Context, limit int) ([]domain.IngestRun, error) {
	m.lastLimit = limit
	return m.runs, m.err
}
