package driven

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// RecordSource decodes tabular input files into typed records.
// Missing or unreadable files return domain.ErrSourceUnavailable.
// Rows that fail to decode are reported as diagnostics and skipped.
type RecordSource interface {
	// Events parses an events file.
	Events(ctx context.Context, path string) (*domain.ParseResult[domain.EventRecord], error)

	// Guests parses a guests file.
	Guests(ctx context.Context, path string) (*domain.ParseResult[domain.GuestRecord], error)

	// Rows parses any CSV file with a header row.
	Rows(ctx context.Context, path string) (*domain.ParseResult[domain.Row], error)
}
