package uploads

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

func TestIsCSV(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		want        bool
	}{
		{"csv extension", "events.csv", "", true},
		{"upper case extension", "EVENTS.CSV", "application/octet-stream", true},
		{"csv content type", "export", "text/csv; charset=utf-8", true},
		{"json", "events.json", "application/json", false},
		{"no hints", "events", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCSV(tt.file, tt.contentType))
		})
	}
}

func TestStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := NewStore(dir)

	path, err := store.Save("events.csv", "text/csv", strings.NewReader("event_api_id\nE1\n"))
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, ".csv", filepath.Ext(path))
	assert.NotEqual(t, "events.csv", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "event_api_id\nE1\n", string(data))

	other, err := store.Save("events.csv", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestStore_SaveRejectsNonCSV(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Save("notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNotCSV)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_SaveFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "guests.csv")
	require.NoError(t, os.WriteFile(src, []byte("guest_api_id\nG1\n"), 0o644))
	store := NewStore(t.TempDir())

	path, err := store.SaveFile(src)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "guest_api_id\nG1\n", string(data))

	_, err = store.SaveFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestNewStore_DefaultDir(t *testing.T) {
	assert.Equal(t, DefaultDir, NewStore("").Dir())
}
