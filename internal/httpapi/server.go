package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/service"
)

type Server struct {
	engine  *service.Engine
	scanner interface{ Invalidate() }

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

// WithScanner enables the manual rescan endpoint.
func WithScanner(scanner interface{ Invalidate() }) Option {
	return func(s *Server) {
		s.scanner = scanner
	}
}

func NewServer(engine *service.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/shows", s.handleListShows)
	s.mux.HandleFunc("/api/shows/", s.handleShowAvailability)
	s.mux.HandleFunc("/api/jobs", s.handleListJobs)
	s.mux.HandleFunc("/api/jobs/bulk-dual", s.handleCreateBulkJob)
	s.mux.HandleFunc("/api/jobs/stats", s.handleJobStats)
	s.mux.HandleFunc("/api/jobs/", s.handleJobByID)
	s.mux.HandleFunc("/api/scan", s.handleScan)
}
