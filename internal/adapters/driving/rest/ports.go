package rest

import (
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
)

// Ports holds the driving ports the HTTP server needs.
type Ports struct {
	// Chat answers questions and manages conversations. Required.
	Chat driving.ChatService

	// Ingest loads CSV files. Optional; ingestion routes return 503 without it.
	Ingest driving.IngestService
}

// Validate checks that all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
