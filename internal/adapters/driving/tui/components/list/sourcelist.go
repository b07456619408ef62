// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/eventrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// SourceList displays the passages an answer was grounded on.
type SourceList struct {
	sources  []domain.SourceDocument
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &SourceList{styles: s, width: 80, height: 10}
}

// Update handles navigation keys.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the selected source in full and the others as one-liners.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	for i, src := range l.sources {
		head := fmt.Sprintf("%d. %s", i+1, Label(src))
		if i != l.selected {
			lines = append(lines, l.styles.Normal.Render("  "+truncate(head, l.width-4)))
			continue
		}
		lines = append(lines,
			l.styles.Selected.Render("> "+truncate(head, l.width-4)),
			l.styles.Source.Width(max(l.width-4, 20)).Render(src.Content))
	}
	return strings.Join(lines, "\n")
}

// Label summarises a source from its metadata.
func Label(src domain.SourceDocument) string {
	docType, _ := src.Metadata["doc_type"].(string)
	var name string
	for _, k := range []string{"guest_name", "event_name"} {
		if v, ok := src.Metadata[k].(string); ok && v != "" {
			name = v
			break
		}
	}
	switch {
	case docType != "" && name != "":
		return docType + ": " + name
	case docType != "":
		return docType
	}

	keys := make([]string, 0, len(src.Metadata))
	for k := range src.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return truncate(firstLine(src.Content), 60)
	}
	return fmt.Sprintf("%s=%v", keys[0], src.Metadata[keys[0]])
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 4 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetSources replaces the list and selects the first entry.
func (l *SourceList) SetSources(sources []domain.SourceDocument) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.SourceDocument {
	return l.sources
}

// Selected returns the index of the selected source.
func (l *SourceList) Selected() int {
	return l.selected
}

// MoveUp moves selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SourceList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}
