// Package bleve provides a LexicalEngine backed by in-memory bleve indexes.
package bleve

import (
	"context"
	"fmt"

	blevesearch "github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

// Ensure Engine implements the interface.
var _ driven.LexicalEngine = (*Engine)(nil)

const (
	contentField = "content"
	batchSize    = 1000
)

// Engine builds a fresh mem-only index per snapshot.
type Engine struct{}

// NewEngine creates a bleve lexical engine.
func NewEngine() *Engine {
	return &Engine{}
}

func newMapping() mapping.IndexMapping {
	content := blevesearch.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false
	content.IncludeTermVectors = false

	doc := blevesearch.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(contentField, content)

	im := blevesearch.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	return im
}

// Build indexes docs into a new snapshot. Later documents with a repeated
// ID replace earlier ones.
func (e *Engine) Build(ctx context.Context, docs []domain.Document) (driven.LexicalSnapshot, error) {
	idx, err := blevesearch.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("bleve: new index: %w", err)
	}

	snap := &Snapshot{index: idx, docs: make(map[string]domain.Document, len(docs))}
	batch := idx.NewBatch()
	for _, d := range docs {
		if err := batch.Index(d.ID, map[string]string{contentField: d.Content}); err != nil {
			_ = idx.Close()
			return nil, fmt.Errorf("bleve: index %s: %w", d.ID, err)
		}
		snap.docs[d.ID] = d

		if batch.Size() >= batchSize {
			if err := flush(ctx, idx, batch); err != nil {
				return nil, err
			}
			batch = idx.NewBatch()
		}
	}
	if err := flush(ctx, idx, batch); err != nil {
		return nil, err
	}
	return snap, nil
}

func flush(ctx context.Context, idx blevesearch.Index, batch *blevesearch.Batch) error {
	if err := ctx.Err(); err != nil {
		_ = idx.Close()
		return err
	}
	if batch.Size() == 0 {
		return nil
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("bleve: batch: %w", err)
	}
	return nil
}

// Snapshot is an immutable built index. Only content is indexed;
// documents are returned from the snapshot's own table.
type Snapshot struct {
	index blevesearch.Index
	docs  map[string]domain.Document
}

// Search runs a disjunctive match query over document content.
func (s *Snapshot) Search(ctx context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	if limit <= 0 || query == "" || len(s.docs) == 0 {
		return nil, nil
	}

	q := blevesearch.NewMatchQuery(query)
	q.SetField(contentField)

	req := blevesearch.NewSearchRequestOptions(q, limit, 0, false)
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("bleve: search: %w", err)
	}

	hits := make([]driven.LexicalHit, 0, len(res.Hits))
	for _, h := range res.Hits {
		doc, ok := s.docs[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, driven.LexicalHit{Document: doc, Score: h.Score})
	}
	return hits, nil
}

// Len returns the number of indexed documents.
func (s *Snapshot) Len() int {
	return len(s.docs)
}

// Close releases the index.
func (s *Snapshot) Close() error {
	return s.index.Close()
}
