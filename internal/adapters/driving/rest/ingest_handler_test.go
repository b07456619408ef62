package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

func TestIngest_Dual(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{
		ProcessedDocs: 5, Chunks: 7, Success: true, Message: "Ingested 2 events and 3 guests",
	}}
	s := newTestServer(t, &mockChatService{}, ingest)

	rec := do(s, http.MethodPost, "/rag/ingest",
		`{"eventsFilePath":"data/events.csv","guestsFilePath":"data/guests.csv","reset":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"processedDocs":5,"chunks":7,"success":true,"message":"Ingested 2 events and 3 guests"}`,
		rec.Body.String())

	assert.Equal(t, 1, ingest.dual)
	assert.Equal(t, 0, ingest.csv)
	assert.Equal(t, domain.IngestRequest{
		EventsPath: "data/events.csv", GuestsPath: "data/guests.csv", Reset: true,
	}, ingest.lastReq)
}

func TestIngest_SingleFile(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{ProcessedDocs: 2, Chunks: 2, Success: true}}
	s := newTestServer(t, &mockChatService{}, ingest)

	rec := do(s, http.MethodPost, "/rag/ingest", `{"filePath":"rows.csv"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ingest.csv)
	assert.Equal(t, "rows.csv", ingest.lastReq.FilePath)
}

func TestIngest_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid", domain.ErrInvalidInput, http.StatusBadRequest},
		{"missing file", domain.ErrSourceUnavailable, http.StatusNotFound},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &mockChatService{}, &mockIngestService{err: tt.err})
			rec := do(s, http.MethodPost, "/rag/ingest", `{"filePath":"x.csv"}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestIngest_PartialFailureCarriesResult(t *testing.T) {
	ingest := &mockIngestService{
		result: &domain.IngestResult{ProcessedDocs: 10, Chunks: 4, Success: false, Message: "partial"},
		err:    &domain.PartialIngestionError{CompletedBatches: 1, TotalBatches: 3, Err: errors.New("upsert failed")},
	}
	s := newTestServer(t, &mockChatService{}, ingest)

	rec := do(s, http.MethodPost, "/rag/ingest", `{"eventsFilePath":"e.csv","guestsFilePath":"g.csv"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "1 of 3 batches committed")
	require.NotNil(t, body.Result)
	assert.Equal(t, 4, body.Result.Chunks)
}

func TestIngest_Disabled(t *testing.T) {
	s := newTestServer(t, &mockChatService{}, nil)

	rec := do(s, http.MethodPost, "/rag/ingest", `{"filePath":"x.csv"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(s, http.MethodPost, "/rag/ingest/upload", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIngest_MalformedBody(t *testing.T) {
	ingest := &mockIngestService{}
	s := newTestServer(t, &mockChatService{}, ingest)

	rec := do(s, http.MethodPost, "/rag/ingest", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, ingest.dual+ingest.csv)
}

type part struct {
	field, filename, content string
}

func multipartRequest(t *testing.T, parts []part, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(p.content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/rag/ingest/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestIngestUpload_SingleFile(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{ProcessedDocs: 1, Chunks: 1, Success: true}}
	s := newTestServer(t, &mockChatService{}, ingest)

	req := multipartRequest(t, []part{{"file", "rows.CSV", "name\nAda\n"}}, map[string]string{"reset": "true"})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Files, 1)
	assert.Equal(t, 1, got.ProcessedDocs)

	assert.Equal(t, 1, ingest.csv)
	assert.True(t, ingest.lastReq.Reset)
	assert.Equal(t, got.Files[0], ingest.lastReq.FilePath)
	assert.Equal(t, ".csv", filepath.Ext(ingest.lastReq.FilePath))

	data, err := os.ReadFile(ingest.lastReq.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "name\nAda\n", string(data))
}

func TestIngestUpload_EventsAndGuests(t *testing.T) {
	ingest := &mockIngestService{result: &domain.IngestResult{Success: true}}
	s := newTestServer(t, &mockChatService{}, ingest)

	req := multipartRequest(t, []part{
		{"events", "events.csv", "api_id,name\n"},
		{"guests", "guests.csv", "api_id,name\n"},
	}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, ingest.dual)
	assert.NotEmpty(t, ingest.lastReq.EventsPath)
	assert.NotEmpty(t, ingest.lastReq.GuestsPath)
	assert.NotEqual(t, ingest.lastReq.EventsPath, ingest.lastReq.GuestsPath)
	assert.False(t, ingest.lastReq.Reset)
}

func TestIngestUpload_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		parts  []part
		fields map[string]string
	}{
		{"not csv", []part{{"file", "notes.txt", "hello"}}, nil},
		{"events without guests", []part{{"events", "events.csv", "a\n"}}, nil},
		{"no parts", nil, map[string]string{"x": "y"}},
		{"bad reset", []part{{"file", "a.csv", "a\n"}}, map[string]string{"reset": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ingest := &mockIngestService{}
			s := newTestServer(t, &mockChatService{}, ingest)

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, multipartRequest(t, tt.parts, tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, ingest.dual+ingest.csv)
		})
	}
}

func TestListIngestions(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ingest := &mockIngestService{runs: []domain.IngestRun{{
		ID: "run-1", Kind: domain.IngestKindDual, ProcessedDocs: 3, Chunks: 5,
		CompletedBatches: 1, TotalBatches: 1, Success: true, Message: "ok",
		StartedAt: started, FinishedAt: started.Add(time.Second),
	}}}
	s := newTestServer(t, &mockChatService{}, ingest)

	rec := do(s, http.MethodGet, "/rag/ingestions?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, ingest.lastLimit)

	var runs []runResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "dual", runs[0].Kind)
	assert.True(t, runs[0].StartedAt.Equal(started))
}

func TestListIngestions_Limits(t *testing.T) {
	ingest := &mockIngestService{}
	s := newTestServer(t, &mockChatService{}, ingest)

	rec := do(s, http.MethodGet, "/rag/ingestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultRunLimit, ingest.lastLimit)
	assert.Equal(t, "[]", rec.Body.String())

	do(s, http.MethodGet, "/rag/ingestions?limit=100000", "")
	assert.Equal(t, maxRunLimit, ingest.lastLimit)

	rec = do(s, http.MethodGet, "/rag/ingestions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListIngestions_WithoutIngest(t *testing.T) {
	s := newTestServer(t, &mockChatService{}, nil)

	rec := do(s, http.MethodGet, "/rag/ingestions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}
