package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/views/runs"
)

// App is the root model. It routes messages to the active view.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap

	chatView *chat.View
	runsView *runs.View

	currentView messages.ViewType
	width       int
	height      int
	ready       bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the TUI application.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: s,
		keymap: km,
		chatView: chat.NewView(s, km, ports.Chat).
			WithFilter(ports.Filter).
			WithConversation(ports.ConversationID),
		runsView:    runs.NewView(s, ports.Ingest),
		currentView: messages.ViewChat,
	}, nil
}

// WithContext sets the context for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chatView.WithContext(ctx)
	a.runsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("eventrag"),
		a.chatView.Init(),
	)
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		a.runsView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		if msg.View == messages.ViewRuns {
			return a, a.runsView.Init()
		}
		return a, nil

	case messages.AnswerReceived, messages.StatusLoaded:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.RunsLoaded:
		a.runsView, cmd = a.runsView.Update(msg)
		return a, cmd
	}

	switch a.currentView {
	case messages.ViewRuns:
		a.runsView, cmd = a.runsView.Update(msg)
	default:
		a.chatView, cmd = a.chatView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	if a.currentView == messages.ViewRuns {
		return a.runsView.View()
	}
	return a.chatView.View()
}

// Run starts the Bubbletea program on the alternate screen.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// ConversationID returns the conversation of the chat view.
func (a *App) ConversationID() string {
	return a.chatView.ConversationID()
}
