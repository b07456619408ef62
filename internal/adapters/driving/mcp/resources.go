package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for eventrag resources.
const uriScheme = "eventrag://"

// ingestionsLimit caps the runs listed by the ingestions resource.
const ingestionsLimit = 50

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "ingestions",
		Name:        "ingestions",
		Description: "Recent ingestion runs, newest first",
		MIMEType:    "application/json",
	}, s.handleIngestionsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Collection size, lexical index size and models in use",
		MIMEType:    "application/json",
	}, s.handleStatusResource)
}

// runInfo is the JSON shape of one ingestion run.
type runInfo struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	EventsPath       string    `json:"events_path,omitempty"`
	GuestsPath       string    `json:"guests_path,omitempty"`
	ProcessedDocs    int       `json:"processed_docs"`
	Chunks           int       `json:"chunks"`
	CompletedBatches int       `json:"completed_batches"`
	TotalBatches     int       `json:"total_batches"`
	Diagnostics      int       `json:"diagnostics"`
	Success          bool      `json:"success"`
	Message          string    `json:"message"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

func (s *Server) handleIngestionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	infos := []runInfo{}
	if s.ports.Ingest != nil {
		runs, err := s.ports.Ingest.History(ctx, ingestionsLimit)
		if err != nil {
			return nil, fmt.Errorf("listing ingestions: %w", err)
		}
		for _, r := range runs {
			infos = append(infos, runInfo{
				ID:               r.ID,
				Kind:             string(r.Kind),
				EventsPath:       r.EventsPath,
				GuestsPath:       r.GuestsPath,
				ProcessedDocs:    r.ProcessedDocs,
				Chunks:           r.Chunks,
				CompletedBatches: r.CompletedBatches,
				TotalBatches:     r.TotalBatches,
				Diagnostics:      r.Diagnostics,
				Success:          r.Success,
				Message:          r.Message,
				StartedAt:        r.StartedAt,
				FinishedAt:       r.FinishedAt,
			})
		}
	}
	return jsonResource(req.Params.URI, infos)
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Chat.Status(ctx))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
