package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu     sync.RWMutex
	guests map[string]domain.GuestRecord
	order  []string
	runs   []domain.IngestRun
}

// NewRecordStore creates an empty record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{guests: make(map[string]domain.GuestRecord)}
}

func guestKey(g domain.GuestRecord) string {
	return g.EventAPIID + "\x00" + g.GuestAPIID
}

// SaveGuests upserts guest records, keeping first-insertion order.
func (s *RecordStore) SaveGuests(_ context.Context, guests []domain.GuestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range guests {
		key := guestKey(g)
		if _, ok := s.guests[key]; !ok {
			s.order = append(s.order, key)
		}
		s.guests[key] = g
	}
	return nil
}

// ListGuests returns every stored guest record.
func (s *RecordStore) ListGuests(_ context.Context) ([]domain.GuestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.GuestRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.guests[key])
	}
	return out, nil
}

// ClearGuests deletes every stored guest record.
func (s *RecordStore) ClearGuests(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guests = make(map[string]domain.GuestRecord)
	s.order = nil
	return nil
}

// SaveRun records a finished ingestion run.
func (s *RecordStore) SaveRun(_ context.Context, run *domain.IngestRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, *run)
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RecordStore) ListRuns(_ context.Context, limit int) ([]domain.IngestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.IngestRun, len(s.runs))
	copy(out, s.runs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close releases resources (no-op for memory store).
func (s *RecordStore) Close() error {
	return nil
}
