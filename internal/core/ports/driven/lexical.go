package driven

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// LexicalEngine builds immutable full-text snapshots over documents.
type LexicalEngine interface {
	// Build indexes docs into a new snapshot.
	Build(ctx context.Context, docs []domain.Document) (LexicalSnapshot, error)
}

// LexicalSnapshot is a built full-text index. Safe for concurrent search.
type LexicalSnapshot interface {
	// Search returns up to limit documents ranked by term relevance.
	// The query must already be sanitised.
	Search(ctx context.Context, query string, limit int) ([]LexicalHit, error)

	// Len returns the number of indexed documents.
	Len() int

	// Close releases resources.
	Close() error
}

// LexicalHit is a full-text search result.
type LexicalHit struct {
	Document domain.Document
	Score    float64
}
