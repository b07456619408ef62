package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	c := New("test", server.URL+"/v1/", time.Second, map[string]string{"Authorization": "Bearer k"})

	var out struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.PostJSON(context.Background(), "/things", map[string]string{"a": "b"}, &out))
	assert.Equal(t, "ok", out.Name)
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		retryable bool
	}{
		{"openai style", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, "bad key", false},
		{"ollama style", http.StatusNotFound, `{"error":"model not found"}`, "model not found", false},
		{"plain text", http.StatusBadGateway, "upstream down\n", "upstream down", true},
		{"rate limited", http.StatusTooManyRequests, `{}`, "{}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := New("test", server.URL, time.Second, nil).Get(context.Background(), "/", nil)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.retryable, se.Retryable())
		})
	}
}

func TestClient_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	var out map[string]any
	err := New("test", server.URL, time.Second, nil).Get(context.Background(), "/", &out)

	assert.ErrorContains(t, err, "decode response")
}
