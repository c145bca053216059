// Package api exposes the VaultBox JSON HTTP surface: registration, login,
// profile and owner-scoped file endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/VaultBox/internal/config"
	"github.com/dharsanguruparan/VaultBox/internal/observability"
	"github.com/dharsanguruparan/VaultBox/internal/repository"
	"github.com/dharsanguruparan/VaultBox/internal/signing"
)

// Server exposes HTTP endpoints for accounts and files.
type Server struct {
	cfg     *config.Config
	users   repository.UserRepository
	files   repository.FileRepository
	signer  *signing.Signer
	log     *zap.Logger
	metrics *observability.Metrics
	handler http.Handler
}

// New constructs a Server and builds its routes.
func New(cfg *config.Config, users repository.UserRepository, files repository.FileRepository, signer *signing.Signer, log *zap.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		cfg:     cfg,
		users:   users,
		files:   files,
		signer:  signer,
		log:     log,
		metrics: metrics,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
// It returns only after in-flight requests have drained, so callers may close
// the stores as soon as it returns.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Serve returns ErrServerClosed as soon as Shutdown begins, not when
	// draining ends; the shutdown result is what tells us the drain is over.
	shutdownDone := make(chan error, 1)
	serveDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-serveDone:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownDone <- server.Shutdown(shutdownCtx)
	}()

	s.log.Info("api listening", zap.String("addr", ln.Addr().String()))
	err := server.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		if err := <-shutdownDone; err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
	close(serveDone)
	return err
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.mount(r)
	r.Route("/api", s.mount)
	return r
}

// mount registers the resource routes. They are served both at the root and
// under /api, the prefix the browser client uses.
func (s *Server) mount(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})
	r.Group(func(r chi.Router) {
		r.Use(s.identity)
		r.Get("/users/{id}", s.handleGetUser)
		r.Put("/users/{id}", s.handleUpdateUser)

		r.Get("/files", s.handleListFiles)
		r.Post("/files", s.handleCreateFile)
		r.Get("/files/search", s.handleSearchFiles)
		r.Get("/files/stats", s.handleFileStats)
		r.Get("/files/{id}", s.handleGetFile)
		r.Put("/files/{id}", s.handleUpdateFile)
		r.Delete("/files/{id}", s.handleDeleteFile)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
