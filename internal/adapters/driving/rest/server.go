// Package rest serves the query and ingestion engine over HTTP with gin.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/eventrag/internal/adapters/driven/storage/uploads"
	"github.com/custodia-labs/eventrag/internal/logger"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server is the HTTP API.
type Server struct {
	ports   Ports
	uploads *uploads.Store
	router  *gin.Engine
}

// NewServer creates a server for ports. Uploaded files are written to store.
func NewServer(ports Ports, store *uploads.Store) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = uploads.NewStore("")
	}
	if !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{ports: ports, uploads: store}
	s.router = gin.New()
	s.router.Use(recovery(), requestLogger(), gzip.Gzip(gzip.DefaultCompression))
	s.registerRoutes(s.router.Group("/rag"))
	return s, nil
}

// Handler returns the HTTP handler for the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Get().Info().Str("addr", ln.Addr().String()).Msg("http server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Get().Info().Msg("http server stopping")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
