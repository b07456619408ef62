// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// QuestionAsked is sent when the user submits a question.
type QuestionAsked struct {
	Question string
}

// AnswerReceived carries the engine's reply to a question.
type AnswerReceived struct {
	Question string
	Result   *domain.QueryResult
	Err      error
}

// ConversationCleared signals the current conversation was forgotten.
type ConversationCleared struct {
	ID string
}

// RunsLoaded carries recent ingestion runs.
type RunsLoaded struct {
	Runs []domain.IngestRun
	Err  error
}

// StatusLoaded carries the engine status shown in the status bar.
type StatusLoaded struct {
	Status domain.EngineStatus
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the conversation view.
	ViewChat ViewType = iota
	// ViewRuns lists ingestion runs.
	ViewRuns
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewRuns:
		return "runs"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
