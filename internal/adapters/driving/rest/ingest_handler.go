package rest

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/eventrag/internal/core/domain"
)

const (
	defaultRunLimit = 20
	maxRunLimit     = 200
)

type ingestRequest struct {
	EventsFilePath string `json:"eventsFilePath"`
	GuestsFilePath string `json:"guestsFilePath"`
	FilePath       string `json:"filePath"`
	Reset          bool   `json:"reset"`
}

type uploadResponse struct {
	*domain.IngestResult
	Files []string `json:"files"`
}

type runResponse struct {
	ID               string    `json:"id"`
	Kind             string    `json:"kind"`
	EventsPath       string    `json:"eventsPath,omitempty"`
	GuestsPath       string    `json:"guestsPath,omitempty"`
	ProcessedDocs    int       `json:"processedDocs"`
	Chunks           int       `json:"chunks"`
	CompletedBatches int       `json:"completedBatches"`
	TotalBatches     int       `json:"totalBatches"`
	Diagnostics      int       `json:"diagnostics"`
	Success          bool      `json:"success"`
	Message          string    `json:"message"`
	StartedAt        time.Time `json:"startedAt"`
	FinishedAt       time.Time `json:"finishedAt"`
}

func (s *Server) ingest(c *gin.Context) {
	if s.ports.Ingest == nil {
		fail(c, errIngestDisabled)
		return
	}
	var body ingestRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	result, err := s.runIngest(c, domain.IngestRequest{
		EventsPath: body.EventsFilePath,
		GuestsPath: body.GuestsFilePath,
		FilePath:   body.FilePath,
		Reset:      body.Reset,
	})
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, result)
}

// ingestUpload accepts either a "file" part or an "events" and "guests" pair.
func (s *Server) ingestUpload(c *gin.Context) {
	if s.ports.Ingest == nil {
		fail(c, errIngestDisabled)
		return
	}

	var req domain.IngestRequest
	if raw := c.PostForm("reset"); raw != "" {
		reset, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, fmt.Errorf("%w: reset must be a boolean", domain.ErrInvalidInput))
			return
		}
		req.Reset = reset
	}

	var files []string
	single, err := c.FormFile("file")
	switch {
	case err == nil:
		if req.FilePath, err = s.saveUpload(single); err != nil {
			fail(c, err)
			return
		}
		files = append(files, req.FilePath)
	case errors.Is(err, http.ErrMissingFile):
		events, evErr := c.FormFile("events")
		guests, gErr := c.FormFile("guests")
		if evErr != nil || gErr != nil {
			fail(c, fmt.Errorf("%w: upload a file part, or both events and guests parts", domain.ErrInvalidInput))
			return
		}
		if req.EventsPath, err = s.saveUpload(events); err != nil {
			fail(c, err)
			return
		}
		if req.GuestsPath, err = s.saveUpload(guests); err != nil {
			fail(c, err)
			return
		}
		files = append(files, req.EventsPath, req.GuestsPath)
	default:
		fail(c, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return
	}

	result, err := s.runIngest(c, req)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, uploadResponse{IngestResult: result, Files: files})
}

func (s *Server) listIngestions(c *gin.Context) {
	limit := defaultRunLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, fmt.Errorf("%w: limit must be a positive integer", domain.ErrInvalidInput))
			return
		}
		limit = min(n, maxRunLimit)
	}

	out := []runResponse{}
	if s.ports.Ingest != nil {
		runs, err := s.ports.Ingest.History(c.Request.Context(), limit)
		if err != nil {
			fail(c, fmt.Errorf("listing ingestions: %w", err))
			return
		}
		for _, r := range runs {
			out = append(out, runResponse{
				ID:               r.ID,
				Kind:             string(r.Kind),
				EventsPath:       r.EventsPath,
				GuestsPath:       r.GuestsPath,
				ProcessedDocs:    r.ProcessedDocs,
				Chunks:           r.Chunks,
				CompletedBatches: r.CompletedBatches,
				TotalBatches:     r.TotalBatches,
				Diagnostics:      r.Diagnostics,
				Success:          r.Success,
				Message:          r.Message,
				StartedAt:        r.StartedAt,
				FinishedAt:       r.FinishedAt,
			})
		}
	}
	c.JSON(http.StatusOK, out)
}

// runIngest dispatches req and writes the error response on failure.
func (s *Server) runIngest(c *gin.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	var (
		result *domain.IngestResult
		err    error
	)
	if req.FilePath != "" {
		result, err = s.ports.Ingest.IngestCSV(c.Request.Context(), req)
	} else {
		result, err = s.ports.Ingest.IngestDual(c.Request.Context(), req)
	}
	if err == nil {
		return result, nil
	}

	if errors.Is(err, domain.ErrPartialIngestion) && result != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: err.Error(), Result: result})
		return nil, err
	}
	fail(c, err)
	return nil, err
}

func (s *Server) saveUpload(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return s.uploads.Save(fh.Filename, fh.Header.Get("Content-Type"), f)
}
