package driven

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// RecordStore persists what the lexical index is rebuilt from and the
// history of ingestion runs.
type RecordStore interface {
	// SaveGuests upserts guest records keyed by event and guest ID.
	SaveGuests(ctx context.Context, guests []domain.GuestRecord) error

	// ListGuests returns every stored guest record.
	ListGuests(ctx context.Context) ([]domain.GuestRecord, error)

	// ClearGuests deletes every stored guest record.
	ClearGuests(ctx context.Context) error

	// SaveRun records a finished ingestion run.
	SaveRun(ctx context.Context, run *domain.IngestRun) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)

	// Close releases resources.
	Close() error
}
