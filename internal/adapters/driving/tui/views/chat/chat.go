// Package chat provides the conversation view for the TUI.
package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
)

// entry is one line of the transcript.
type entry struct {
	role domain.Role
	text string
	err  bool
}

// View is the chat screen: transcript, question input, optional sources
// pane and status bar.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	transcript viewport.Model
	sources    *list.SourceList
	statusbar  *status.Bar

	chatService driving.ChatService
	ctx         context.Context
	filter      domain.RetrievalFilter

	conversationID string
	entries        []entry
	showSources    bool
	thinking       bool
	err            error

	width  int
	height int
	ready  bool
}

// NewView creates a chat view.
func NewView(s *styles.Styles, km *keymap.KeyMap, chatService driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:      s,
		keymap:      km,
		input:       input.NewQuestionInput(s),
		transcript:  viewport.New(80, 16),
		sources:     list.NewSourceList(s),
		statusbar:   status.NewBar(s, km.ChatHelp()),
		chatService: chatService,
		ctx:         context.Background(),
		width:       80,
		height:      24,
	}
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// WithFilter narrows every question in this view.
func (v *View) WithFilter(filter domain.RetrievalFilter) *View {
	v.filter = filter
	return v
}

// WithConversation continues an existing conversation.
func (v *View) WithConversation(id string) *View {
	v.conversationID = id
	return v
}

// Init starts the input cursor and loads the engine status.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadStatus())
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, v.loadStatus()

	case messages.StatusLoaded:
		v.statusbar.SetEngineStatus(msg.Status)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	switch {
	case keymap.Matches(keyStr, v.keymap.Send):
		return v, v.submit()

	case keymap.Matches(keyStr, v.keymap.Clear):
		v.newConversation()
		return v, v.loadStatus()

	case keymap.Matches(keyStr, v.keymap.Sources):
		v.showSources = !v.showSources
		v.layout()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Runs):
		return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewRuns} }

	case keymap.Matches(keyStr, v.keymap.PageUp):
		v.transcript.PageUp()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.PageDown):
		v.transcript.PageDown()
		return v, nil
	}

	// Arrow keys move through sources while the pane is open.
	if v.showSources && (msg.Type == tea.KeyUp || msg.Type == tea.KeyDown) {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit sends the current input as a question.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.thinking {
		return nil
	}
	if v.chatService == nil {
		v.setError(ErrNoChatService)
		return nil
	}

	v.input.Reset()
	v.thinking = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.entries = append(v.entries, entry{role: domain.RoleUser, text: question})
	v.refresh()

	req := domain.QueryRequest{
		ConversationID: v.conversationID,
		Question:       question,
		Filter:         v.filter,
	}
	svc, ctx := v.chatService, v.ctx
	return func() tea.Msg {
		result, err := svc.Query(ctx, req)
		return messages.AnswerReceived{Question: question, Result: result, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false
	if msg.Err != nil {
		v.setError(msg.Err)
		v.entries = append(v.entries, entry{role: domain.RoleAssistant, text: msg.Err.Error(), err: true})
		v.refresh()
		return
	}

	v.err = nil
	v.statusbar.Clear()
	v.conversationID = msg.Result.ConversationID
	v.entries = append(v.entries, entry{role: domain.RoleAssistant, text: msg.Result.Answer})
	v.sources.SetSources(msg.Result.Sources)
	v.refresh()
}

func (v *View) newConversation() {
	if v.conversationID != "" && v.chatService != nil {
		v.chatService.Clear(v.conversationID)
	}
	v.conversationID = ""
	v.entries = nil
	v.err = nil
	v.sources.SetSources(nil)
	v.statusbar.Clear()
	v.statusbar.SetMessage("Started a new conversation")
	v.refresh()
}

func (v *View) setError(err error) {
	v.err = err
	v.thinking = false
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) loadStatus() tea.Cmd {
	if v.chatService == nil {
		return nil
	}
	svc, ctx := v.chatService, v.ctx
	return func() tea.Msg {
		return messages.StatusLoaded{Status: svc.Status(ctx)}
	}
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.entries) == 0 {
		return v.styles.Muted.Render("Ask a question about your events and guests.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))
	blocks := make([]string, 0, len(v.entries)+1)
	for _, e := range v.entries {
		var label string
		switch {
		case e.role == domain.RoleUser:
			label = v.styles.UserLabel.Render("You")
		case e.err:
			label = v.styles.Error.Render("Error")
		default:
			label = v.styles.AssistantLabel.Render("Assistant")
		}
		blocks = append(blocks, label+"\n"+wrap.Render(e.text))
	}
	if v.thinking {
		blocks = append(blocks, v.styles.Muted.Render("..."))
	}
	return strings.Join(blocks, "\n\n")
}

// View renders the chat screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := []string{
		v.styles.Title.Render("eventrag") + "  " + v.styles.Muted.Render(v.conversationLabel()),
		"",
		v.transcript.View(),
		"",
	}
	if v.showSources {
		sections = append(sections, v.sources.View(), "")
	}
	sections = append(sections, v.input.View(), v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (v *View) conversationLabel() string {
	if v.conversationID == "" {
		return "new conversation"
	}
	return "conversation " + v.conversationID
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

// layout splits the height between transcript and sources pane.
func (v *View) layout() {
	v.input.SetWidth(v.width)
	v.statusbar.SetWidth(v.width)

	// Header, spacers, input box and status bar.
	available := max(v.height-8, 3)
	transcriptHeight := available
	if v.showSources {
		transcriptHeight = max(available/2, 3)
		v.sources.SetDimensions(v.width, available-transcriptHeight)
	}
	v.transcript.Width = v.width
	v.transcript.Height = transcriptHeight
	v.refresh()
}

// ConversationID returns the current conversation, or "" before the first answer.
func (v *View) ConversationID() string {
	return v.conversationID
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// Err returns the last error, if any.
func (v *View) Err() error {
	return v.err
}

// SourcesVisible reports whether the sources pane is open.
func (v *View) SourcesVisible() bool {
	return v.showSources
}

// Sources returns the sources of the latest answer.
func (v *View) Sources() []domain.SourceDocument {
	return v.sources.Sources()
}

// Transcript returns the rendered transcript.
func (v *View) Transcript() string {
	return v.renderTranscript()
}
