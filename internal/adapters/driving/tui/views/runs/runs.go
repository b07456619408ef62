// Package runs provides the ingestion history view for the TUI.
package runs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
)

// historyLimit caps the runs loaded at once.
const historyLimit = 50

// errNoIngestService is reported when the view has nothing to list from.
var errNoIngestService = errors.New("ingest service not available")

// View lists recent ingestion runs, newest first.
type View struct {
	styles        *styles.Styles
	ingestService driving.IngestService
	ctx           context.Context

	runs     []domain.IngestRun
	selected int
	width    int
	height   int
	err      error
	loading  bool
}

// NewView creates a runs view.
func NewView(s *styles.Styles, ingestService driving.IngestService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:        s,
		ingestService: ingestService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the runs.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.load()
}

func (v *View) load() tea.Cmd {
	svc, ctx := v.ingestService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.RunsLoaded{Err: errNoIngestService}
		}
		runs, err := svc.History(ctx, historyLimit)
		return messages.RunsLoaded{Runs: runs, Err: err}
	}
}

// Update handles messages for the runs view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.RunsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.runs = msg.Runs
			v.selected = min(v.selected, max(len(v.runs)-1, 0))
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
		case "down", "j":
			if v.selected < len(v.runs)-1 {
				v.selected++
			}
		case "r":
			v.loading = true
			return v, v.load()
		case "esc":
			return v, func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
		}
	}
	return v, nil
}

// View renders the runs list.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Ingestions"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.runs) == 0:
		b.WriteString(v.styles.Muted.Render("No ingestion runs yet."))
	default:
		for i := range v.runs {
			b.WriteString(v.renderRun(i, &v.runs[i]))
			b.WriteString("\n")
		}
		if r := v.Selected(); r != nil && r.Message != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Normal.Render(r.Message))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("[↑/↓] move  [r] reload  [esc] back  [ctrl+c] quit"))
	return b.String()
}

func (v *View) renderRun(index int, r *domain.IngestRun) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}
	line := fmt.Sprintf("%s%s  %-4s  docs=%-5d chunks=%-5d batches=%d/%d",
		indicator,
		r.StartedAt.Local().Format("2006-01-02 15:04"),
		r.Kind, r.ProcessedDocs, r.Chunks, r.CompletedBatches, r.TotalBatches)

	switch {
	case index == v.selected:
		return v.styles.Selected.Render(line)
	case !r.Success:
		return v.styles.Error.Render(line)
	default:
		return v.styles.Normal.Render(line)
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// Runs returns the loaded runs.
func (v *View) Runs() []domain.IngestRun {
	return v.runs
}

// Selected returns the selected run, or nil when the list is empty.
func (v *View) Selected() *domain.IngestRun {
	if v.selected < 0 || v.selected >= len(v.runs) {
		return nil
	}
	return &v.runs[v.selected]
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
