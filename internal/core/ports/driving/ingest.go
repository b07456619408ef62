package driving

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// IngestService loads tabular files into the vector and lexical indexes.
type IngestService interface {
	// IngestDual ingests req.EventsPath and req.GuestsPath together.
	// On a partial failure the returned result reflects committed batches
	// and the error wraps domain.ErrPartialIngestion.
	IngestDual(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestCSV ingests req.FilePath as generic rows.
	IngestCSV(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// History returns recent ingestion runs, newest first.
	History(ctx context.Context, limit int) ([]domain.IngestRun, error)
}
