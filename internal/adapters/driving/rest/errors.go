package rest

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

// ErrMissingChatService is returned when the server is built without a chat service.
var ErrMissingChatService = errors.New("chat service is required")

var errIngestDisabled = errors.New("ingestion is not enabled on this server")

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSourceUnavailable), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrVectorStoreUninitialized):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRewriteFailed), errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway
	case errors.Is(err, errIngestDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
