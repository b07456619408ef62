package driven

import (
	"context"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// VectorStore persists embedded chunks and answers similarity queries.
// Writes with an existing chunk ID overwrite the stored chunk.
type VectorStore interface {
	// Upsert writes chunks that already carry embeddings.
	// A failed call may leave none of the given chunks written.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Query returns up to n nearest chunks to the query vector whose metadata
	// matches filter exactly. Hits carry their stored embeddings.
	Query(ctx context.Context, query []float32, n int, filter domain.RetrievalFilter) ([]VectorHit, error)

	// Count returns the number of stored chunks.
	Count() int

	// Reset deletes every stored chunk.
	Reset(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Chunk is the stored chunk, including its embedding.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score.
	Similarity float64
}
