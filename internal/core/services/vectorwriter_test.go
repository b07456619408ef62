package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

func makeChunks(n int) []domain.Chunk {
	chunks := make([]domain.Chunk, n)
	for i := range chunks {
		chunks[i] = domain.Chunk{
			ID:       fmt.Sprintf("c%d", i),
			Content:  fmt.Sprintf("chunk number %d", i),
			Metadata: domain.RowMetadata{Source: "x.csv", Line: i + 2},
		}
	}
	return chunks
}

func TestVectorWriter_WritesInBatches(t *testing.T) {
	embedder := &mockEmbeddingService{}
	store := newMockVectorStore()
	w := NewVectorWriter(embedder, store, 2)

	report, err := w.Write(context.Background(), makeChunks(5))

	require.NoError(t, err)
	assert.Equal(t, 3, report.Batches)
	assert.Equal(t, 5, report.Chunks)
	assert.Equal(t, 3, store.upserts)
	assert.Equal(t, 5, store.Count())
	for _, c := range store.chunks {
		assert.Len(t, c.Embedding, mockDims)
	}
}

func TestVectorWriter_PartialFailureKeepsCommittedBatches(t *testing.T) {
	embedder := &mockEmbeddingService{failCall: 3}
	store := newMockVectorStore()
	w := NewVectorWriter(embedder, store, 2)

	report, err := w.Write(context.Background(), makeChunks(7))

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPartialIngestion))

	var partial *domain.PartialIngestionError
	require.True(t, errors.As(err, &partial))
	assert.Equal(t, 2, partial.CompletedBatches)
	assert.Equal(t, 4, partial.TotalBatches)
	assert.Equal(t, 4, partial.CompletedChunks)

	assert.Equal(t, 2, report.Batches)
	assert.Equal(t, 4, store.Count())
}

func TestVectorWriter_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMockVectorStore()
	_, err := NewVectorWriter(&mockEmbeddingService{}, store, 2).Write(ctx, makeChunks(3))

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, store.Count())
}

func TestVectorWriter_DefaultBatchSize(t *testing.T) {
	w := NewVectorWriter(&mockEmbeddingService{}, newMockVectorStore(), 0)
	assert.Equal(t, domain.DefaultBatchSize, w.batchSize)
}

func TestVectorWriter_Empty(t *testing.T) {
	report, err := NewVectorWriter(&mockEmbeddingService{}, newMockVectorStore(), 2).Write(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, report.Batches)
}
