package cli

import (
	"context"
	"testing"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// mockChatService is a mock implementation of driving.ChatService.
type mockChatService struct {
	answers []string
	err     error
	reqs    []domain.QueryRequest
	cleared []string
	sources []domain.SourceDocument
}

func (m *mockChatService) Query(_ context.Context, req domain.QueryRequest) (*domain.QueryResult, error) {
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	id := req.ConversationID
	if id == "" {
		id = "conv-new"
	}
	answer := "no answer"
	if n := len(m.reqs) - 1; n < len(m.answers) {
		answer = m.answers[n]
	}
	return &domain.QueryResult{Answer: answer, ConversationID: id, Sources: m.sources}, nil
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
	return domain.EngineStatus{}
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	result  *domain.IngestResult
	err     error
	runs    []domain.IngestRun
	lastReq domain.IngestRequest
	dual    int
	csv     int
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

// withEngine installs e for the duration of the test.
func withEngine(t *testing.T, e *Engine) {
	prev := engine
	engine = e
	t.Cleanup(func() { engine = prev })
}
