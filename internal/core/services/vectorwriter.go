package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// WriteReport describes a completed vector write.
type WriteReport struct {
	Batches int
	Chunks  int
}

// VectorWriter embeds chunks and upserts them into the vector store in
// sequential batches.
type VectorWriter struct {
	embedder  driven.EmbeddingService
	store     driven.VectorStore
	batchSize int
}

// NewVectorWriter creates a writer. A non-positive batchSize uses the default.
func NewVectorWriter(embedder driven.EmbeddingService, store driven.VectorStore, batchSize int) *VectorWriter {
	if batchSize <= 0 {
		batchSize = domain.DefaultBatchSize
	}
	return &VectorWriter{embedder: embedder, store: store, batchSize: batchSize}
}

// Write embeds and upserts chunks. Each batch is committed before the next
// begins. A failure returns *domain.PartialIngestionError; earlier batches
// stay committed.
func (w *VectorWriter) Write(ctx context.Context, chunks []domain.Chunk) (*WriteReport, error) {
	total := (len(chunks) + w.batchSize - 1) / w.batchSize
	report := &WriteReport{}

	logger.Section("Vector Write")
	logger.Debug("Chunks: %d, batch size: %d, batches: %d", len(chunks), w.batchSize, total)

	for start := 0; start < len(chunks); start += w.batchSize {
		end := min(start+w.batchSize, len(chunks))
		if err := w.writeBatch(ctx, chunks[start:end]); err != nil {
			return report, &domain.PartialIngestionError{
				CompletedBatches: report.Batches,
				TotalBatches:     total,
				CompletedChunks:  report.Chunks,
				Err:              err,
			}
		}
		report.Batches++
		report.Chunks += end - start
		logger.Debug("Batch %d/%d committed", report.Batches, total)
	}

	return report, nil
}

func (w *VectorWriter) writeBatch(ctx context.Context, batch []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	vectors, err := w.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embed batch: got %d vectors for %d chunks", len(vectors), len(batch))
	}

	embedded := make([]domain.Chunk, len(batch))
	for i, c := range batch {
		c.Embedding = vectors[i]
		embedded[i] = c
	}

	if err := w.store.Upsert(ctx, embedded); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}
