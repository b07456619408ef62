package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Result messages.
const (
	msgCSVIngested = "CSV ingested successfully"
	msgCSVEmpty    = "No documents found in CSV file"
	msgDualEmpty   = "No documents found in CSV files"
)

const defaultHistoryLimit = 20

// IngestService parses input files, composes and chunks documents, writes
// them to the vector store and refreshes the lexical index.
type IngestService struct {
	source   driven.RecordSource
	records  driven.RecordStore
	pipeline driven.PostProcessorPipeline
	writer   *VectorWriter
	store    driven.VectorStore
	lexical  *LexicalIndex
	root     string
}

// NewIngestService creates an ingest service. Relative paths resolve
// against root, or the process working directory when root is empty.
func NewIngestService(
	source driven.RecordSource,
	records driven.RecordStore,
	pipeline driven.PostProcessorPipeline,
	writer *VectorWriter,
	store driven.VectorStore,
	lexical *LexicalIndex,
	root string,
) *IngestService {
	return &IngestService{
		source:   source,
		records:  records,
		pipeline: pipeline,
		writer:   writer,
		store:    store,
		lexical:  lexical,
		root:     root,
	}
}

// ResolvePath returns p resolved against root. Absolute paths are returned cleaned.
func ResolvePath(root, p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	if root == "" {
		return filepath.Abs(p)
	}
	return filepath.Join(root, p), nil
}

// IngestDual ingests an events file and a guests file.
func (s *IngestService) IngestDual(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if strings.TrimSpace(req.EventsPath) == "" || strings.TrimSpace(req.GuestsPath) == "" {
		return nil, fmt.Errorf("%w: events and guests paths are required", domain.ErrInvalidInput)
	}

	logger.Section("Dual Ingestion")

	eventsPath, err := ResolvePath(s.root, req.EventsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	guestsPath, err := ResolvePath(s.root, req.GuestsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	run := &domain.IngestRun{
		ID:         uuid.NewString(),
		Kind:       domain.IngestKindDual,
		EventsPath: eventsPath,
		GuestsPath: guestsPath,
		StartedAt:  time.Now(),
	}

	events, err := s.source.Events(ctx, eventsPath)
	if err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("events: %w", err))
	}
	guests, err := s.source.Guests(ctx, guestsPath)
	if err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("guests: %w", err))
	}
	run.Diagnostics = reportDiagnostics(events.Diagnostics) + reportDiagnostics(guests.Diagnostics)
	logger.Info("Loaded %d events and %d guests", len(events.Records), len(guests.Records))

	docs := make([]domain.Document, 0, len(events.Records)+len(guests.Records))
	for _, e := range events.Records {
		docs = append(docs, ComposeEvent(e))
	}
	for _, g := range guests.Records {
		docs = append(docs, ComposeGuest(g))
	}

	if len(docs) == 0 {
		run.Message = msgDualEmpty
		return s.finish(ctx, run, nil)
	}

	if err := s.prepare(ctx, req.Reset); err != nil {
		return nil, s.fail(ctx, run, err)
	}
	if err := s.records.SaveGuests(ctx, guests.Records); err != nil {
		return nil, s.fail(ctx, run, fmt.Errorf("save guests: %w", err))
	}
	defer s.lexical.Invalidate()

	run.Message = fmt.Sprintf("Ingested %d events and %d guests", len(events.Records), len(guests.Records))
	return s.write(ctx, run, docs)
}

// IngestCSV ingests a single generic CSV file.
func (s *IngestService) IngestCSV(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if strings.TrimSpace(req.FilePath) == "" {
		return nil, fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}

	logger.Section("CSV Ingestion")

	path, err := ResolvePath(s.root, req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	run := &domain.IngestRun{
		ID:         uuid.NewString(),
		Kind:       domain.IngestKindCSV,
		EventsPath: path,
		StartedAt:  time.Now(),
	}

	rows, err := s.source.Rows(ctx, path)
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}
	run.Diagnostics = reportDiagnostics(rows.Diagnostics)

	if len(rows.Records) == 0 {
		run.Message = msgCSVEmpty
		return s.finish(ctx, run, nil)
	}

	docs := make([]domain.Document, len(rows.Records))
	for i, r := range rows.Records {
		docs[i] = ComposeRow(r)
	}

	if err := s.prepare(ctx, req.Reset); err != nil {
		return nil, s.fail(ctx, run, err)
	}

	run.Message = msgCSVIngested
	return s.write(ctx, run, docs)
}

// History returns recent ingestion runs, newest first.
func (s *IngestService) History(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.records.ListRuns(ctx, limit)
}

// prepare clears stored state when reset is requested.
func (s *IngestService) prepare(ctx context.Context, reset bool) error {
	if !reset {
		return nil
	}
	logger.Info("Resetting vector collection and stored guests")
	if err := s.store.Reset(ctx); err != nil {
		return fmt.Errorf("reset vector store: %w", err)
	}
	if err := s.records.ClearGuests(ctx); err != nil {
		return fmt.Errorf("clear guests: %w", err)
	}
	s.lexical.Invalidate()
	return nil
}

// write chunks docs and writes them to the vector store.
func (s *IngestService) write(ctx context.Context, run *domain.IngestRun, docs []domain.Document) (*domain.IngestResult, error) {
	run.ProcessedDocs = len(docs)

	var chunks []domain.Chunk
	for i := range docs {
		c, err := s.pipeline.Process(ctx, &docs[i])
		if err != nil {
			return nil, s.fail(ctx, run, fmt.Errorf("chunk %s: %w", docs[i].ID, err))
		}
		chunks = append(chunks, c...)
	}
	logger.Info("Split %d documents into %d chunks", len(docs), len(chunks))

	report, err := s.writer.Write(ctx, chunks)
	run.CompletedBatches = report.Batches
	run.Chunks = report.Chunks
	run.TotalBatches = report.Batches

	var partial *domain.PartialIngestionError
	if errors.As(err, &partial) {
		run.TotalBatches = partial.TotalBatches
		run.Message = fmt.Sprintf("%s: %d of %d batches committed", domain.ErrPartialIngestion, partial.CompletedBatches, partial.TotalBatches)
		result, _ := s.finish(ctx, run, err)
		return result, err
	}
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}

	run.Success = true
	return s.finish(ctx, run, nil)
}

// fail records a failed run and returns err.
func (s *IngestService) fail(ctx context.Context, run *domain.IngestRun, err error) error {
	run.Message = err.Error()
	_, _ = s.finish(ctx, run, err)
	return err
}

// finish stamps and persists the run. Persistence failures are logged only.
func (s *IngestService) finish(ctx context.Context, run *domain.IngestRun, cause error) (*domain.IngestResult, error) {
	run.FinishedAt = time.Now()
	if err := s.records.SaveRun(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Failed to record ingestion run %s: %v", run.ID, err)
	}
	if cause != nil {
		logger.Error(cause, "Ingestion %s failed", run.ID)
	} else {
		logger.Info("Ingestion %s: %s", run.ID, run.Message)
	}
	return run.Result(), nil
}

func reportDiagnostics(diags []domain.RowDiagnostic) int {
	for _, d := range diags {
		logger.Warn("%v", d)
	}
	return len(diags)
}
