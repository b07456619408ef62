package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

func testCommand() (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetContext(context.Background())
	return cmd, buf
}

func TestIngestRequest(t *testing.T) {
	tests := []struct {
		name                 string
		file, events, guests string
		wantErr              bool
	}{
		{name: "dual", events: "e.csv", guests: "g.csv"},
		{name: "single", file: "rows.csv"},
		{name: "both forms", file: "rows.csv", events: "e.csv", wantErr: true},
		{name: "events only", events: "e.csv", wantErr: true},
		{name: "nothing", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ingestRequest(tt.file, tt.events, tt.guests, true)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.True(t, req.Reset)
			assert.Equal(t, tt.file, req.FilePath)
			assert.Equal(t, tt.events, req.EventsPath)
		})
	}
}

func TestDoIngest_RoutesByRequest(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{
		ProcessedDocs: 3, Chunks: 4, Success: true, Message: "Ingested 1 events and 2 guests",
	}}
	withEngine(t, &Engine{Chat: &mockChatService{}, Ingest: ingest})

	cmd, buf := testCommand()
	require.NoError(t, doIngest(cmd, domain.IngestRequest{EventsPath: "e.csv", GuestsPath: "g.csv"}))
	assert.Equal(t, 1, ingest.dual)
	assert.Contains(t, buf.String(), "Ingested 1 events and 2 guests")
	assert.Contains(t, buf.String(), "Chunks:    4")

	require.NoError(t, doIngest(cmd, domain.IngestRequest{FilePath: "rows.csv"}))
	assert.Equal(t, 1, ingest.csv)
}

func TestDoIngest_PartialFailurePrintsResult(t *testing.T) {
	ingest := &mockIngestService{
		result: &domain.IngestResult{Chunks: 2, Message: "stopped after 1 of 2 batches"},
		err:    &domain.PartialIngestionError{CompletedBatches: 1, TotalBatches: 2, Err: errors.New("store down")},
	}
	withEngine(t, &Engine{Chat: &mockChatService{}, Ingest: ingest})

	cmd, buf := testCommand()
	err := doIngest(cmd, domain.IngestRequest{FilePath: "rows.csv"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPartialIngestion)
	assert.Contains(t, err.Error(), "ingestion incomplete")
	assert.Contains(t, buf.String(), "stopped after 1 of 2 batches")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	printRuns(&buf, []domain.IngestRun{
		{Kind: domain.IngestKindDual, Success: true, ProcessedDocs: 5, Chunks: 6, CompletedBatches: 1, TotalBatches: 1, StartedAt: time.Now()},
		{Kind: domain.IngestKindCSV, Success: false, Message: "source unavailable"},
	})
	out := buf.String()
	assert.Contains(t, out, "dual")
	assert.Contains(t, out, "docs=5 chunks=6 batches=1/1")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "    source unavailable")
}

func TestPrintIngestResult_OmitsZeroDuration(t *testing.T) {
	var buf bytes.Buffer
	printIngestResult(&buf, &domain.IngestResult{Message: "CSV ingested successfully"}, 0)
	assert.NotContains(t, buf.String(), "Took")
}

func TestIngestUpload_CopiesFilesBeforeIngesting(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(src, []byte("name\nAda\n"), 0o644))

	uploadDir := t.TempDir()
	ingest := &mockIngestService{result: &domain.IngestResult{Success: true, Message: "CSV ingested successfully"}}
	e := &Engine{Chat: &mockChatService{}, Ingest: ingest}
	e.Settings.Server.UploadDir = uploadDir
	withEngine(t, e)

	cmd, buf := testCommand()
	cmd.Flags().String("events", "", "")
	cmd.Flags().String("guests", "", "")
	cmd.Flags().Bool("reset", false, "")
	require.NoError(t, runIngestUpload(cmd, []string{src}))

	assert.Equal(t, 1, ingest.csv)
	assert.Equal(t, uploadDir, filepath.Dir(ingest.lastReq.FilePath))
	assert.NotEqual(t, src, ingest.lastReq.FilePath)
	assert.Contains(t, buf.String(), "Uploaded "+src)
}
