// Package cache wraps an EmbeddingService with an expiring LRU of query
// embeddings.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// EmbeddingService caches single-text embeddings. Batch calls go straight
// to the wrapped service since ingestion rarely repeats a text.
type EmbeddingService struct {
	driven.EmbeddingService
	cache *expirable.LRU[string, []float32]
}

// Wrap returns next unchanged if size or ttl is not positive.
func Wrap(next driven.EmbeddingService, size int, ttl time.Duration) driven.EmbeddingService {
	if next == nil || size <= 0 || ttl <= 0 {
		return next
	}
	return &EmbeddingService{
		EmbeddingService: next,
		cache:            expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

// Embed returns a cached vector for text when one is still valid.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(s.ModelName(), text)
	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("Embedding cache hit")
		return clone(cached), nil
	}

	vec, err := s.EmbeddingService.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, clone(vec))
	return vec, nil
}

// Len returns the number of cached embeddings.
func (s *EmbeddingService) Len() int {
	return s.cache.Len()
}

func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func clone(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
