// Package server exposes projects, graphs, layouts and extraction over
// HTTP/JSON.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"archivum/internal/graph"
	"archivum/internal/ingest"
	"archivum/internal/layout"
	"archivum/internal/store"
)

// Extractor runs extraction for a project. *ingest.Orchestrator satisfies it.
type Extractor interface {
	Available() bool
	Extract(ctx context.Context, projectID, text string) (*ingest.Result, error)
}

type Options struct {
	Layout     layout.Config
	StopRule   string
	Epsilon    float64
	QuietTicks int
	Version    string
}

type Server struct {
	store     store.Store
	graphs    *graph.Assembler
	extractor Extractor
	opts      Options
	logger    *zap.Logger
}

// New builds a Server. extractor may be nil, in which case extraction
// requests answer 503.
func New(db store.Store, extractor Extractor, opts Options, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:     db,
		graphs:    graph.NewAssembler(db, logger),
		extractor: extractor,
		opts:      opts,
		logger:    logger.Named("server"),
	}
}

// Handler returns the routed API wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return RequestLogger(s.logger)(mux)
}

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.Status)

	mux.HandleFunc("GET /api/projects", s.ListProjects)
	mux.HandleFunc("POST /api/projects", s.CreateProject)
	mux.HandleFunc("DELETE /api/projects/{pid}", s.DeleteProject)

	mux.HandleFunc("GET /api/projects/{pid}/graph", s.GetGraph)
	mux.HandleFunc("GET /api/projects/{pid}/graph/layout.png", s.GetLayout)
	mux.HandleFunc("GET /api/projects/{pid}/entities/{eid}", s.GetEntity)
	mux.HandleFunc("GET /api/projects/{pid}/search", s.Search)
	mux.HandleFunc("POST /api/projects/{pid}/extract", s.Extract)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

const shutdownTimeout = 10 * time.Second
