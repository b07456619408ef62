// Package mcp provides an MCP (Model Context Protocol) server adapter for
// eventrag. It lets AI assistants ask questions about ingested events and
// guests, and trigger ingestion.
package mcp

import "errors"

// ErrMissingChatService is returned when the chat service is not provided.
var ErrMissingChatService = errors.New("mcp: chat service is required")

// errIngestDisabled is returned by the ingest tool when no ingest service is wired.
var errIngestDisabled = errors.New("mcp: ingestion is not available on this server")
