package chat

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/eventrag/internal/core/domain"
)

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

func (m *mockChatService) History(string) (domain.History, error) { return nil, nil }

func (m *mockChatService) Clear(id string) { m.cleared = append(m.cleared, id) }

func (m *mockChatService) Conversations() []string { return nil }

func (m *mockChatService) Status(context.Context) domain.EngineStatus { return m.status }

func typeText(v *View, s string) *View {
	for _, r := range s {
		v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return v
}

func launchPartyAnswer() *domain.QueryResult {
	return &domain.QueryResult{
		Answer:         "42 guests are attending the Launch Party.",
		ConversationID: "conv-1",
		Sources: []domain.SourceDocument{{
			Content:  "Event: Launch Party\nGuest count: 42",
			Metadata: map[string]any{"doc_type": "event", "event_name": "Launch Party"},
		}},
	}
}

func newReadyView(svc *mockChatService) *View {
	v := NewView(nil, nil, svc)
	v, _ = v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return v
}

func TestView_AskQuestion(t *testing.T) {
	svc := &mockChatService{result: launchPartyAnswer()}
	v := newReadyView(svc).WithFilter(domain.RetrievalFilter{"event_api_id": "E1"})

	v = typeText(v, "How many guests?")
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, v.Thinking())
	assert.Contains(t, v.Transcript(), "How many guests?")

	msg := cmd()
	answer, ok := msg.(messages.AnswerReceived)
	require.True(t, ok)
	assert.Equal(t, "How many guests?", svc.lastReq.Question)
	assert.Empty(t, svc.lastReq.ConversationID)
	assert.Equal(t, "E1", svc.lastReq.Filter["event_api_id"])

	v, _ = v.Update(answer)
	assert.False(t, v.Thinking())
	assert.Equal(t, "conv-1", v.ConversationID())
	assert.Contains(t, v.Transcript(), "42 guests")
	assert.Len(t, v.Sources(), 1)

	// The next question continues the conversation.
	v = typeText(v, "Who hosts it?")
	_, cmd = v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	cmd()
	assert.Equal(t, "conv-1", svc.lastReq.ConversationID)
}

func TestView_EmptyQuestionIgnored(t *testing.T) {
	v := newReadyView(&mockChatService{})

	v = typeText(v, "   ")
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, v.Thinking())
}

func TestView_AnswerError(t *testing.T) {
	svc := &mockChatService{err: domain.ErrVectorStoreUninitialized}
	v := newReadyView(svc)

	v = typeText(v, "Anyone?")
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v, _ = v.Update(cmd())

	assert.ErrorIs(t, v.Err(), domain.ErrVectorStoreUninitialized)
	assert.Empty(t, v.ConversationID())
	assert.Contains(t, v.Transcript(), "Error")
}

func TestView_NoChatService(t *testing.T) {
	v := NewView(nil, nil, nil)
	v, _ = v.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	v = typeText(v, "hello")
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.ErrorIs(t, v.Err(), ErrNoChatService)
}

func TestView_NewConversation(t *testing.T) {
	svc := &mockChatService{result: launchPartyAnswer()}
	v := newReadyView(svc)

	v = typeText(v, "How many guests?")
	v, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	v, _ = v.Update(cmd())
	require.Equal(t, "conv-1", v.ConversationID())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, []string{"conv-1"}, svc.cleared)
	assert.Empty(t, v.ConversationID())
	assert.Empty(t, v.Sources())
	assert.NotContains(t, v.Transcript(), "42 guests")
}

func TestView_ToggleSourcesAndNavigate(t *testing.T) {
	v := newReadyView(&mockChatService{})
	assert.False(t, v.SourcesVisible())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.True(t, v.SourcesVisible())
	assert.Contains(t, v.View(), "No sources")

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.False(t, v.SourcesVisible())
}

func TestView_RunsKey(t *testing.T) {
	v := newReadyView(&mockChatService{})

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewRuns}, cmd())
}

func TestView_StatusLoaded(t *testing.T) {
	svc := &mockChatService{status: domain.EngineStatus{Collection: "event-attendees", VectorChunks: 9}}
	v := NewView(nil, nil, svc)
	v, _ = v.Update(tea.WindowSizeMsg{Width: 160, Height: 40})

	cmd := v.loadStatus()
	require.NotNil(t, cmd)
	v, _ = v.Update(cmd())
	assert.Contains(t, v.View(), "event-attendees: 9 chunks")
}

func TestView_NotReady(t *testing.T) {
	v := NewView(nil, nil, &mockChatService{})
	assert.Equal(t, "Initialising...", v.View())
}

func TestView_ErrorMessage(t *testing.T) {
	v := newReadyView(&mockChatService{})
	v, _ = v.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, v.Err(), "boom")
}
