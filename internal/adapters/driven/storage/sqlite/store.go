package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/eventrag/internal/core/domain"
	"github.com/custodia-labs/eventrag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// Fixed-width UTC timestamps sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is a SQLite-backed RecordStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.eventrag/data/records.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".eventrag", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "records.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies every embedded NNN_name.up.sql newer than the recorded
// schema version, each in its own transaction.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Guests ====================

const guestColumns = `event_api_id, guest_api_id, event_name, guest_name, username, website,
	timezone, bio_short, avatar_url, twitter_handle, linkedin_handle, instagram_handle,
	youtube_handle, tiktok_handle, last_online_at, num_tickets_registered, section_label,
	source, line`

// SaveGuests upserts guest records keyed by event and guest ID.
// A replaced guest keeps its original position in ListGuests.
func (s *Store) SaveGuests(ctx context.Context, guests []domain.GuestRecord) error {
	if len(guests) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO guests (`+guestColumns+`, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM guests))
		ON CONFLICT(event_api_id, guest_api_id) DO UPDATE SET
			event_name = excluded.event_name,
			guest_name = excluded.guest_name,
			username = excluded.username,
			website = excluded.website,
			timezone = excluded.timezone,
			bio_short = excluded.bio_short,
			avatar_url = excluded.avatar_url,
			twitter_handle = excluded.twitter_handle,
			linkedin_handle = excluded.linkedin_handle,
			instagram_handle = excluded.instagram_handle,
			youtube_handle = excluded.youtube_handle,
			tiktok_handle = excluded.tiktok_handle,
			last_online_at = excluded.last_online_at,
			num_tickets_registered = excluded.num_tickets_registered,
			section_label = excluded.section_label,
			source = excluded.source,
			line = excluded.line
	`)
	if err != nil {
		return fmt.Errorf("preparing guest insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range guests {
		_, err := stmt.ExecContext(ctx,
			g.EventAPIID, g.GuestAPIID, g.EventName, g.GuestName, g.Username, g.Website,
			g.Timezone, g.BioShort, g.AvatarURL, g.TwitterHandle, g.LinkedInHandle, g.InstagramHandle,
			g.YouTubeHandle, g.TikTokHandle, g.LastOnlineAt, g.NumTicketsRegistered, g.SectionLabel,
			g.Source, g.Line)
		if err != nil {
			return fmt.Errorf("saving guest %s/%s: %w", g.EventAPIID, g.GuestAPIID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing guests: %w", err)
	}
	return nil
}

// ListGuests returns every stored guest in first-insertion order.
func (s *Store) ListGuests(ctx context.Context) ([]domain.GuestRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+guestColumns+` FROM guests ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("querying guests: %w", err)
	}
	defer rows.Close()

	var guests []domain.GuestRecord
	for rows.Next() {
		var g domain.GuestRecord
		if err := rows.Scan(
			&g.EventAPIID, &g.GuestAPIID, &g.EventName, &g.GuestName, &g.Username, &g.Website,
			&g.Timezone, &g.BioShort, &g.AvatarURL, &g.TwitterHandle, &g.LinkedInHandle, &g.InstagramHandle,
			&g.YouTubeHandle, &g.TikTokHandle, &g.LastOnlineAt, &g.NumTicketsRegistered, &g.SectionLabel,
			&g.Source, &g.Line,
		); err != nil {
			return nil, fmt.Errorf("scanning guest: %w", err)
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

// ClearGuests deletes every stored guest record.
func (s *Store) ClearGuests(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM guests"); err != nil {
		return fmt.Errorf("clearing guests: %w", err)
	}
	return nil
}

// ==================== Ingestion runs ====================

// SaveRun records a finished ingestion run. Saving an existing ID replaces it.
func (s *Store) SaveRun(ctx context.Context, run *domain.IngestRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ingest_runs (id, kind, events_path, guests_path, processed_docs,
			chunks, completed_batches, total_batches, diagnostics, success, message,
			started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, string(run.Kind), run.EventsPath, run.GuestsPath, run.ProcessedDocs,
		run.Chunks, run.CompletedBatches, run.TotalBatches, run.Diagnostics, boolToInt(run.Success),
		run.Message, formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	query := `
		SELECT id, kind, events_path, guests_path, processed_docs, chunks, completed_batches,
			total_batches, diagnostics, success, message, started_at, finished_at
		FROM ingest_runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun
	for rows.Next() {
		var (
			r                 domain.IngestRun
			kind              string
			success           int
			started, finished string
		)
		if err := rows.Scan(&r.ID, &kind, &r.EventsPath, &r.GuestsPath, &r.ProcessedDocs,
			&r.Chunks, &r.CompletedBatches, &r.TotalBatches, &r.Diagnostics, &success,
			&r.Message, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Kind = domain.IngestKind(kind)
		r.Success = success != 0
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
