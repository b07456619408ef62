package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

type mockIngestService struct {
	mu   sync.Mutex
	reqs []domain.IngestRequest
	dual int
	csv  int
}

func (m *mockIngestService) IngestDual(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dual++
	m.reqs = append(m.reqs, req)
	return &domain.IngestResult{Success: true, Message: "Ingested 1 events and 1 guests"}, nil
}

func (m *mockIngestService) IngestCSV(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.csv++
	m.reqs = append(m.reqs, req)
	return &domain.IngestResult{Success: true, Message: "CSV ingested successfully"}, nil
}

func (m *mockIngestService) History(context.Context, int) ([]domain.IngestRun, error) {
	return nil, nil
}

func (m *mockIngestService) calls() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dual, m.csv
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, domain.IngestRequest{FilePath: "a.csv"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(&mockIngestService{}, domain.IngestRequest{EventsPath: "e.csv"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNew_ResolvesPathsAndDropsReset(t *testing.T) {
	dir := t.TempDir()
	w, err := New(&mockIngestService{}, domain.IngestRequest{
		EventsPath: filepath.Join(dir, "events.csv"),
		GuestsPath: filepath.Join(dir, "guests.csv"),
		Reset:      true,
	})
	require.NoError(t, err)

	assert.False(t, w.req.Reset)
	assert.Len(t, w.files, 2)
	assert.Equal(t, []string{dir}, w.dirs)
	assert.Equal(t, DefaultDebounce, w.debounce)
}

func TestWatcher_ReingestsOnChange(t *testing.T) {
	dir := t.TempDir()
	events := filepath.Join(dir, "events.csv")
	guests := filepath.Join(dir, "guests.csv")
	writeFile(t, events, "api_id\n")
	writeFile(t, guests, "api_id\n")

	ingest := &mockIngestService{}
	results := make(chan *domain.IngestResult, 4)
	w, err := New(ingest, domain.IngestRequest{EventsPath: events, GuestsPath: guests},
		WithDebounce(20*time.Millisecond),
		WithResultFunc(func(r *domain.IngestResult, err error) {
			assert.NoError(t, err)
			select {
			case results <- r:
			default:
			}
		}))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// The watcher registers asynchronously; keep touching until it fires.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
wait:
	for {
		select {
		case r := <-results:
			assert.Equal(t, "Ingested 1 events and 1 guests", r.Message)
			break wait
		case <-tick.C:
			writeFile(t, events, "api_id\nevt-1\n")
		case <-deadline:
			t.Fatal("no re-ingestion after file change")
		}
	}

	cancel()
	require.NoError(t, <-done)

	dual, csv := ingest.calls()
	assert.GreaterOrEqual(t, dual, 1)
	assert.Zero(t, csv)
	assert.False(t, ingest.reqs[0].Reset)
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	rows := filepath.Join(dir, "rows.csv")
	writeFile(t, rows, "name\n")

	ingest := &mockIngestService{}
	w, err := New(ingest, domain.IngestRequest{FilePath: rows}, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "other.csv"), "x\n")
	time.Sleep(200 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	dual, csv := ingest.calls()
	assert.Zero(t, dual)
	assert.Zero(t, csv)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := New(&mockIngestService{}, domain.IngestRequest{
		FilePath: filepath.Join(t.TempDir(), "gone", "rows.csv"),
	})
	require.NoError(t, err)

	err = w.Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}
