package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question       string            `json:"question" jsonschema:"the question about events or guests"`
	ConversationID string            `json:"conversation_id,omitempty" jsonschema:"conversation to continue; omit to start a new one"`
	Filter         map[string]string `json:"filter,omitempty" jsonschema:"exact-match metadata filter such as event_api_id"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string         `json:"answer"`
	ConversationID string         `json:"conversation_id"`
	Sources        []SourceOutput `json:"sources"`
}

// SourceOutput is one passage the answer was grounded on.
type SourceOutput struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// ClearInput is the input schema for the clear_conversation tool.
type ClearInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"the conversation to forget"`
}

// ClearOutput is the output schema for the clear_conversation tool.
type ClearOutput struct {
	Cleared bool `json:"cleared"`
}

// IngestInput is the input schema for the ingest tool. Give either both
// events and guests paths, or a single file path.
type IngestInput struct {
	EventsFilePath string `json:"events_file_path,omitempty" jsonschema:"path to the events CSV"`
	GuestsFilePath string `json:"guests_file_path,omitempty" jsonschema:"path to the guests CSV"`
	FilePath       string `json:"file_path,omitempty" jsonschema:"path to a single generic CSV"`
	Reset          bool   `json:"reset,omitempty" jsonschema:"clear the collection before ingesting"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	ProcessedDocs int    `json:"processed_docs"`
	Chunks        int    `json:"chunks"`
	Success       bool   `json:"success"`
	Message       string `json:"message"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about the ingested events and guests, optionally continuing a conversation",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_conversation",
		Description: "Forget the history of a conversation",
	}, s.handleClear)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Ingest an events CSV and a guests CSV, or a single generic CSV",
	}, s.handleIngest)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Chat.Query(ctx, domain.QueryRequest{
		ConversationID: input.ConversationID,
		Question:       input.Question,
		Filter:         domain.RetrievalFilter(input.Filter),
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	out := AskOutput{
		Answer:         result.Answer,
		ConversationID: result.ConversationID,
		Sources:        make([]SourceOutput, len(result.Sources)),
	}
	for i, src := range result.Sources {
		out.Sources[i] = SourceOutput(src)
	}
	return nil, out, nil
}

func (s *Server) handleClear(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClearInput,
) (*mcp.CallToolResult, ClearOutput, error) {
	id := strings.TrimSpace(input.ConversationID)
	if id == "" {
		return nil, ClearOutput{}, domain.ErrInvalidInput
	}
	s.ports.Chat.Clear(id)
	return nil, ClearOutput{Cleared: true}, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, errIngestDisabled
	}

	req := domain.IngestRequest{
		EventsPath: input.EventsFilePath,
		GuestsPath: input.GuestsFilePath,
		FilePath:   input.FilePath,
		Reset:      input.Reset,
	}

	var (
		result *domain.IngestResult
		err    error
	)
	if req.FilePath != "" {
		result, err = s.ports.Ingest.IngestCSV(ctx, req)
	} else {
		result, err = s.ports.Ingest.IngestDual(ctx, req)
	}
	if err != nil {
		return nil, IngestOutput{}, err
	}

	return nil, IngestOutput{
		ProcessedDocs: result.ProcessedDocs,
		Chunks:        result.Chunks,
		Success:       result.Success,
		Message:       result.Message,
	}, nil
}
