package mcp

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	result  *domain.QueryResult
	err     error
	lastReq domain.QueryRequest
	cleared []string
	status  domain.EngineStatus
}

func (m *mockChatService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockChatService) History(string) (domain.History, error) {
	return nil, domain.ErrNotFound
}

func (m *mockChatService) Clear(id string) {
	m.cleared = append(m.cleared, id)
}

func (m *mockChatService) Conversations() []string {
	return nil
}

func (m *mockChatService) Status(context.Context) domain.EngineStatus {
	return m.status
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result  *domain.IngestResult
	err     error
	runs    []domain.IngestRun
	dual    int
	csv     int
	lastReq domain.IngestRequest
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

func (m *mockIngestService) History(context.Context, int) ([]domain.IngestRun, error) {
	return m.runs, m.err
}
