package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or document type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Ingestion Errors.

	// ErrSourceUnavailable indicates an ingestion input file is missing or unreadable.
	// It is fatal to the ingestion call that hit it.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRowDecode indicates a single row could not be decoded into its typed shape.
	// Row decode failures are collected as diagnostics and never abort ingestion.
	ErrRowDecode = errors.New("row decode warning")

	// ErrPartialIngestion indicates an upsert batch failed after earlier batches committed.
	ErrPartialIngestion = errors.New("partial ingestion failure")

	// Query Errors.

	// ErrVectorStoreUninitialized indicates a query arrived before any ingestion
	// or index load populated the vector store.
	ErrVectorStoreUninitialized = errors.New("vector store not initialized, ingest data first")

	// ErrRewriteFailed indicates the history-aware rewrite produced no usable query.
	ErrRewriteFailed = errors.New("query rewrite failed")

	// ErrGenerationFailed indicates the language model produced no answer text.
	ErrGenerationFailed = errors.New("answer generation failed")

	// ErrLexicalIndexDegraded indicates the lexical engine failed.
	// It is logged and absorbed; lexical retrieval contributes nothing for that query.
	ErrLexicalIndexDegraded = errors.New("lexical index degraded")

	// Service Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// PartialIngestionError reports how far a batched upsert got before failing.
// Batches before CompletedBatches remain committed in the vector store.
type PartialIngestionError struct {
	// CompletedBatches is the number of batches fully acknowledged.
	CompletedBatches int

	// TotalBatches is the number of batches the write was split into.
	TotalBatches int

	// CompletedChunks is the number of chunks in the completed batches.
	CompletedChunks int

	// Err is the failure of the batch at index CompletedBatches.
	Err error
}

func (e *PartialIngestionError) Error() string {
	return fmt.Sprintf("%s: %d of %d batches committed: %v",
		ErrPartialIngestion, e.CompletedBatches, e.TotalBatches, e.Err)
}

// Unwrap returns the underlying batch failure.
func (e *PartialIngestionError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrPartialIngestion.
func (e *PartialIngestionError) Is(target error) bool {
	return target == ErrPartialIngestion
}
