package mcp

import (
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Chat answers questions. Required.
	Chat driving.ChatService

	// Ingest loads CSV files. Optional; the ingest tool fails without it.
	Ingest driving.IngestService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
