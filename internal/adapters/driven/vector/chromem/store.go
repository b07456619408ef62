// Package chromem provides a VectorStore backed by chromem-go, an embedded
// vector database persisted to a local directory.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// errNoEmbedding is returned by the collection's embedding function.
// Chunks always arrive with embeddings, so it is never expected to run.
var errNoEmbedding = errors.New("chromem: chunk has no embedding")

// Store keeps chunks in one chromem collection.
type Store struct {
	db   *chromem.DB
	name string

	mu         sync.RWMutex
	collection *chromem.Collection
}

// New opens (or creates) the named collection. An empty dir keeps the
// collection in memory only.
func New(dir, collection string) (*Store, error) {
	if collection == "" {
		collection = domain.DefaultCollection
	}

	var db *chromem.DB
	if dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(dir, false)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", dir, err)
		}
	}

	s := &Store{db: db, name: collection}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open() error {
	c, err := s.db.GetOrCreateCollection(s.name, nil, refuseEmbedding)
	if err != nil {
		return fmt.Errorf("chromem: collection %s: %w", s.name, err)
	}
	s.collection = c
	return nil
}

func refuseEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

// Upsert writes chunks. An existing chunk with the same ID is replaced.
func (s *Store) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("%w: %s", errNoEmbedding, c.ID)
		}
		docs[i] = chromem.Document{
			ID:        c.ID,
			Metadata:  chunkMetadata(c),
			Embedding: c.Embedding,
			Content:   c.Content,
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

// Query returns up to n chunks nearest to query whose metadata matches filter.
func (s *Store) Query(ctx context.Context, query []float32, n int, filter domain.RetrievalFilter) ([]driven.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n = min(n, s.collection.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryEmbedding(ctx, query, n, filter, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem: query: %w", err)
	}

	hits := make([]driven.VectorHit, 0, len(results))
	for _, r := range results {
		chunk, err := toChunk(r)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.VectorHit{Chunk: chunk, Similarity: float64(r.Similarity)})
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection.Count()
}

// Reset deletes the collection and recreates it empty.
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.DeleteCollection(s.name); err != nil {
		return fmt.Errorf("chromem: delete collection %s: %w", s.name, err)
	}
	return s.open()
}

// Close releases resources. Persistent collections are written on every change.
func (s *Store) Close() error {
	return nil
}

// Reserved metadata keys holding chunk fields.
const (
	keyDocumentID = "_document_id"
	keyPosition   = "_position"
)

func chunkMetadata(c domain.Chunk) map[string]string {
	var fields map[string]string
	if c.Metadata != nil {
		fields = c.Metadata.Fields()
	} else {
		fields = make(map[string]string, 2)
	}
	fields[keyDocumentID] = c.DocumentID
	fields[keyPosition] = strconv.Itoa(c.Position)
	return fields
}

func toChunk(r chromem.Result) (domain.Chunk, error) {
	fields := make(map[string]string, len(r.Metadata))
	for k, v := range r.Metadata {
		fields[k] = v
	}
	docID := fields[keyDocumentID]
	position, _ := strconv.Atoi(fields[keyPosition])
	delete(fields, keyDocumentID)
	delete(fields, keyPosition)

	meta, err := domain.DecodeMetadata(fields)
	if err != nil {
		return domain.Chunk{}, fmt.Errorf("chromem: chunk %s: %w", r.ID, err)
	}
	return domain.Chunk{
		ID:         r.ID,
		DocumentID: docID,
		Content:    r.Content,
		Position:   position,
		Embedding:  r.Embedding,
		Metadata:   meta,
	}, nil
}
