package domain

import "time"

// IngestKind identifies which ingestion path produced a run.
type IngestKind string

// Ingestion paths.
const (
	// IngestKindDual ingests an events file and a guests file together.
	IngestKindDual IngestKind = "dual"

	// IngestKindCSV ingests a single generic CSV file.
	IngestKindCSV IngestKind = "csv"
)

// IngestRequest describes what to ingest.
type IngestRequest struct {
	// EventsPath and GuestsPath are used by dual ingestion.
	EventsPath string
	GuestsPath string

	// FilePath is used by generic CSV ingestion.
	FilePath string

	// Reset clears the vector collection before writing.
	Reset bool
}

// IngestResult is the outcome reported to callers.
type IngestResult struct {
	ProcessedDocs int    `json:"processedDocs"`
	Chunks        int    `json:"chunks"`
	Success       bool   `json:"success"`
	Message       string `json:"message"`
}

// IngestRun is the persisted record of one ingestion.
type IngestRun struct {
	ID               string
	Kind             IngestKind
	EventsPath       string
	GuestsPath       string
	ProcessedDocs    int
	Chunks           int
	CompletedBatches int
	TotalBatches     int
	Diagnostics      int
	Success          bool
	Message          string
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Result returns the caller-facing summary of the run.
func (r *IngestRun) Result() *IngestResult {
	return &IngestResult{
		ProcessedDocs: r.ProcessedDocs,
		Chunks:        r.Chunks,
		Success:       r.Success,
		Message:       r.Message,
	}
}
