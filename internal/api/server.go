// Package api exposes the chat pipeline and the seeding operation over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"laptoprag/internal/observability"
	"laptoprag/internal/service"
)

// Service is the part of the RAG service the HTTP layer drives.
type Service interface {
	Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error)
	Seed(ctx context.Context) (service.SeedReport, error)
	Sessions() int
}

type Server struct {
	router  *chi.Mux
	addr    string
	svc     Service
	metrics *observability.Metrics
	logger  *slog.Logger
	http    *http.Server
}

func NewServer(addr string, svc Service, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		addr:    addr,
		svc:     svc,
		metrics: metrics,
		logger:  logger,
	}
	router.Use(s.countRequests)

	router.Get("/health", s.health)
	router.Handle("/metrics", metrics.Handler())

	rag := router.With(allowAnyOrigin)
	rag.Post("/rag", s.chat)
	rag.Get("/rag", s.seed)
	rag.Options("/rag", s.preflight)

	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", s.addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
	})
}
