package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// HybridRetriever combines diversity-aware vector search with lexical search.
type HybridRetriever struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	lexical  *LexicalIndex
	cfg      domain.RetrievalSettings
}

// NewHybridRetriever creates a retriever. Zero settings fall back to defaults.
// lexical may be nil, in which case only the vector path runs.
func NewHybridRetriever(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	lexical *LexicalIndex,
	cfg domain.RetrievalSettings,
) *HybridRetriever {
	def := domain.DefaultAppSettings().Retrieval
	if cfg.K <= 0 {
		cfg.K = def.K
	}
	if cfg.FetchK < cfg.K {
		cfg.FetchK = 4 * cfg.K
	}
	if cfg.Lambda < 0 || cfg.Lambda > 1 {
		cfg.Lambda = def.Lambda
	}
	if cfg.LexicalLimit <= 0 {
		cfg.LexicalLimit = def.LexicalLimit
	}
	if cfg.VectorLimit <= 0 {
		cfg.VectorLimit = def.VectorLimit
	}
	return &HybridRetriever{embedder: embedder, store: store, lexical: lexical, cfg: cfg}
}

// Retrieve returns lexical passages followed by vector passages.
// Both paths run concurrently with the same filter. Passages are not
// deduplicated across paths. Vector failures are returned; lexical
// failures only shrink the result.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, filter domain.RetrievalFilter) ([]domain.Passage, error) {
	logger.Section("Hybrid Retrieval")
	logger.Debug("Query: %q, filter: %v", query, filter)

	var lexical, vector []domain.Passage

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vector, err = r.vectorSearch(gctx, query, filter)
		return err
	})
	if r.lexical != nil {
		g.Go(func() error {
			lexical = r.lexical.Search(gctx, query, filter)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(lexical) > r.cfg.LexicalLimit {
		lexical = lexical[:r.cfg.LexicalLimit]
	}
	if len(vector) > r.cfg.VectorLimit {
		vector = vector[:r.cfg.VectorLimit]
	}

	out := make([]domain.Passage, 0, len(lexical)+len(vector))
	out = append(out, lexical...)
	out = append(out, vector...)

	logger.Debug("Retrieved %d lexical + %d vector passages", len(lexical), len(vector))
	return out, nil
}

func (r *HybridRetriever) vectorSearch(ctx context.Context, query string, filter domain.RetrievalFilter) ([]domain.Passage, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.store.Query(ctx, embedding, r.cfg.FetchK, filter)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	candidates := make([][]float32, len(hits))
	for i, h := range hits {
		candidates[i] = h.Chunk.Embedding
	}
	selected := maximalMarginalRelevance(embedding, candidates, r.cfg.K, r.cfg.Lambda)

	passages := make([]domain.Passage, len(selected))
	for i, idx := range selected {
		h := hits[idx]
		passages[i] = domain.Passage{
			ID:       h.Chunk.ID,
			Content:  h.Chunk.Content,
			Metadata: h.Chunk.Metadata,
			Origin:   domain.OriginVector,
			Score:    h.Similarity,
		}
	}
	logger.Debug("Vector: %d candidates, %d selected by MMR", len(hits), len(passages))
	return passages, nil
}
