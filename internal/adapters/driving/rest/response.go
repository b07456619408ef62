package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`

	// Result is set when an ingestion failed part way.
	Result *domain.IngestResult `json:"result,omitempty"`
}

// fail records err on the context and writes the mapped status.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), errorResponse{Error: err.Error()})
}
