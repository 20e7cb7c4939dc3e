// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the agent, catalog search and API key management
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Javier-Cancino/econonexo/pkg/agent"
	"github.com/Javier-Cancino/econonexo/pkg/auth"
	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/config"
	"github.com/Javier-Cancino/econonexo/pkg/credential"
	"github.com/Javier-Cancino/econonexo/pkg/observability"
	"github.com/Javier-Cancino/econonexo/pkg/search"
)

// Chatter answers one user message.
type Chatter interface {
	Run(ctx context.Context, req agent.Request) *agent.Response
}

// Searcher resolves catalog phrases into candidates.
type Searcher interface {
	Search(ctx context.Context, query string, src catalog.Source) ([]search.Candidate, error)
}

// Server is the HTTP boundary.
type Server struct {
	cfg         config.ServerConfig
	version     string
	metricsPath string
	chat        Chatter
	searcher    Searcher

	keys          credential.Manager
	validator     *auth.Validator
	observability *observability.Manager

	httpServer *http.Server
}

type Option func(*Server)

// WithKeyManager enables the /api/keys endpoints.
func WithKeyManager(m credential.Manager) Option {
	return func(s *Server) {
		s.keys = m
	}
}

// WithAuth requires a bearer token on every /api route.
func WithAuth(v *auth.Validator) Option {
	return func(s *Server) {
		s.validator = v
	}
}

func WithObservability(m *observability.Manager) Option {
	return func(s *Server) {
		s.observability = m
	}
}

// WithMetricsPath mounts the Prometheus handler at path instead of /metrics.
func WithMetricsPath(path string) Option {
	return func(s *Server) {
		if path != "" {
			s.metricsPath = path
		}
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

func New(cfg config.ServerConfig, chat Chatter, searcher Searcher, opts ...Option) *Server {
	s := &Server{
		cfg:         cfg,
		version:     "dev",
		metricsPath: "/metrics",
		chat:        chat,
		searcher:    searcher,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.observability == nil {
		s.observability = observability.NoopManager()
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observability.HTTPMiddleware)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, s.metricsPath, s.observability.Metrics().Handler())

	r.Route("/api", func(r chi.Router) {
		if s.validator != nil {
			r.Use(s.validator.Middleware)
		}
		r.Use(s.identity)

		r.Post("/chat", s.handleChat)
		r.Get("/search-indicators", s.handleSearchIndicators)

		r.Route("/keys", func(r chi.Router) {
			if s.keys == nil {
				r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
					writeError(w, http.StatusNotImplemented, "API key storage is not enabled")
				})
				return
			}
			r.Get("/", s.handleListKeys)
			r.Post("/", s.handlePutKey)
			r.Delete("/", s.handleDeleteKey)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening",
			"address", s.cfg.Address,
			"auth", s.validator != nil,
			"keys", s.keys != nil)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown waits up to 10 seconds for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("HTTP server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown error: %w", err)
	}
	return nil
}
