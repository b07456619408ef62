// Package tui provides an interactive terminal chat for eventrag.
// It is a driving adapter over the chat and ingest ports.
package tui

import (
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI uses.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Ingest lists ingestion runs. Optional.
	Ingest driving.IngestService

	// Filter narrows every question asked in the session.
	Filter domain.RetrievalFilter

	// ConversationID continues an existing conversation.
	ConversationID string
}

// Validate ensures required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
