// Package watch re-ingests source CSV files when they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driving"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ResultFunc receives the outcome of each re-ingestion.
type ResultFunc func(*domain.IngestResult, error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before re-ingesting.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithResultFunc sets a callback run after each re-ingestion.
func WithResultFunc(fn ResultFunc) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher re-runs one ingestion request whenever its files change.
// Directories are watched rather than files so that editors which replace
// a file by rename are still seen.
type Watcher struct {
	ingest   driving.IngestService
	req      domain.IngestRequest
	files    map[string]struct{}
	dirs     []string
	debounce time.Duration
	onResult ResultFunc
}

// New creates a watcher for req. Paths must be resolved by the caller;
// relative ones are taken against the process working directory.
// Reset is never applied on re-ingestion.
func New(ingest driving.IngestService, req domain.IngestRequest, opts ...Option) (*Watcher, error) {
	if ingest == nil {
		return nil, fmt.Errorf("%w: ingest service is required", domain.ErrInvalidInput)
	}

	var paths []*string
	switch {
	case req.FilePath != "":
		paths = []*string{&req.FilePath}
	case req.EventsPath != "" && req.GuestsPath != "":
		paths = []*string{&req.EventsPath, &req.GuestsPath}
	default:
		return nil, fmt.Errorf("%w: nothing to watch", domain.ErrInvalidInput)
	}

	w := &Watcher{
		ingest:   ingest,
		files:    make(map[string]struct{}, len(paths)),
		debounce: DefaultDebounce,
	}
	seen := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		*p = abs
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	req.Reset = false
	w.req = req

	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is cancelled. Re-ingestions run one at a time on
// the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("%w: watching %s: %w", domain.ErrSourceUnavailable, dir, err)
		}
	}
	logger.Debug("watching %d file(s) in %v", len(w.files), w.dirs)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			logger.Debug("change detected: %s %s", ev.Op, ev.Name)
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher: %v", err)
		case <-timer.C:
			w.reingest(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[filepath.Clean(ev.Name)]
	return ok
}

func (w *Watcher) reingest(ctx context.Context) {
	var (
		result *domain.IngestResult
		err    error
	)
	if w.req.FilePath != "" {
		result, err = w.ingest.IngestCSV(ctx, w.req)
	} else {
		result, err = w.ingest.IngestDual(ctx, w.req)
	}
	if err != nil {
		logger.Error(err, "re-ingestion failed")
	} else {
		logger.Info("re-ingested: %s", result.Message)
	}
	if w.onResult != nil {
		w.onResult(result, err)
	}
}
