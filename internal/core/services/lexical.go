package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// LexicalIndex serves full-text search over guest records.
// The snapshot is built on first use from the record store and reused
// until Invalidate is called. Failures never reach callers.
type LexicalIndex struct {
	engine  driven.LexicalEngine
	records driven.RecordStore
	limit   int

	mu       sync.Mutex
	snapshot *lexicalSnapshot
	// gen counts invalidations. A build started under an older
	// generation is never published.
	gen uint64
}

// lexicalSnapshot is closed once it is retired and no search holds it.
// refs and retired are guarded by LexicalIndex.mu.
type lexicalSnapshot struct {
	driven.LexicalSnapshot
	refs    int
	retired bool
}

// NewLexicalIndex creates a lazily built lexical index.
// A non-positive limit uses the default of 30.
func NewLexicalIndex(engine driven.LexicalEngine, records driven.RecordStore, limit int) *LexicalIndex {
	if limit <= 0 {
		limit = domain.DefaultLexicalLimit
	}
	return &LexicalIndex{engine: engine, records: records, limit: limit}
}

// SanitizeQuery replaces every character that is not a letter, digit or
// whitespace with a space and collapses runs of whitespace.
func SanitizeQuery(q string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, q)
	return strings.Join(strings.Fields(cleaned), " ")
}

// Search returns up to the configured limit of passages matching query.
// Only documents whose lexical metadata matches every filter entry are kept.
func (l *LexicalIndex) Search(ctx context.Context, query string, filter domain.RetrievalFilter) []domain.Passage {
	q := SanitizeQuery(query)
	if q == "" {
		logger.Debug("Lexical: empty query after sanitising %q", query)
		return nil
	}

	snap, err := l.acquire(ctx)
	if err != nil {
		logger.Warn("%v", fmt.Errorf("%w: build: %w", domain.ErrLexicalIndexDegraded, err))
		return nil
	}
	defer l.release(snap)

	// Filtering happens after ranking, so filtered searches rank everything.
	size := l.limit
	if len(filter) > 0 {
		size = max(snap.Len(), l.limit)
	}

	hits, err := snap.Search(ctx, q, size)
	if err != nil {
		logger.Warn("%v", fmt.Errorf("%w: search: %w", domain.ErrLexicalIndexDegraded, err))
		return nil
	}

	passages := make([]domain.Passage, 0, min(len(hits), l.limit))
	for _, h := range hits {
		if !domain.Matches(h.Document.Metadata, filter) {
			continue
		}
		passages = append(passages, domain.Passage{
			ID:       h.Document.ID,
			Content:  h.Document.Content,
			Metadata: h.Document.Metadata,
			Origin:   domain.OriginLexical,
			Score:    h.Score,
		})
		if len(passages) == l.limit {
			break
		}
	}
	logger.Debug("Lexical: %d hits, %d after filter", len(hits), len(passages))
	return passages
}

// Invalidate drops the current snapshot; the next search rebuilds it.
// Builds in flight when Invalidate is called are not published.
func (l *LexicalIndex) Invalidate() {
	if l == nil {
		return
	}
	if err := l.retire(); err != nil {
		logger.Warn("Lexical: closing snapshot: %v", err)
	}
}

// Len returns the size of the current snapshot, or 0 if none is built.
func (l *LexicalIndex) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snapshot != nil {
		return l.snapshot.Len()
	}
	return 0
}

// Close releases the current snapshot.
func (l *LexicalIndex) Close() error {
	if l == nil {
		return nil
	}
	return l.retire()
}

// retire unpublishes the current snapshot and closes it unless a search
// still holds it, in which case the last release closes it.
func (l *LexicalIndex) retire() error {
	l.mu.Lock()
	l.gen++
	old := l.snapshot
	l.snapshot = nil
	closeNow := false
	if old != nil {
		old.retired = true
		closeNow = old.refs == 0
	}
	l.mu.Unlock()

	if closeNow {
		return old.Close()
	}
	return nil
}

// acquire returns a referenced snapshot, building and publishing one if
// none is published. Callers must release it.
func (l *LexicalIndex) acquire(ctx context.Context) (*lexicalSnapshot, error) {
	l.mu.Lock()
	if s := l.snapshot; s != nil {
		s.refs++
		l.mu.Unlock()
		return s, nil
	}
	gen := l.gen
	l.mu.Unlock()

	if l.engine == nil || l.records == nil {
		return nil, errors.New("no lexical engine configured")
	}

	guests, err := l.records.ListGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}

	docs := make([]domain.Document, len(guests))
	for i, g := range guests {
		docs[i] = ComposeGuestLexical(g)
	}

	built, err := l.engine.Build(ctx, docs)
	if err != nil {
		return nil, err
	}
	s := &lexicalSnapshot{LexicalSnapshot: built, refs: 1}

	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.gen != gen:
		// Invalidated mid-build: serve this search only.
		s.retired = true
		logger.Debug("Lexical: dropped stale snapshot over %d guests", len(docs))
		return s, nil
	case l.snapshot != nil:
		// Another search published first.
		if err := built.Close(); err != nil {
			logger.Warn("Lexical: closing duplicate snapshot: %v", err)
		}
		l.snapshot.refs++
		return l.snapshot, nil
	}
	l.snapshot = s
	logger.Debug("Lexical: built snapshot over %d guests", len(docs))
	return s, nil
}

// release drops a reference taken by acquire.
func (l *LexicalIndex) release(s *lexicalSnapshot) {
	l.mu.Lock()
	s.refs--
	closeNow := s.retired && s.refs == 0
	l.mu.Unlock()

	if closeNow {
		if err := s.Close(); err != nil {
			logger.Warn("Lexical: closing snapshot: %v", err)
		}
	}
}
