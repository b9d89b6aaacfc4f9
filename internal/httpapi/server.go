// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// Server serves the authentication API.
type Server struct {
	addr    string
	authSvc *auth.Service
	tokens  *auth.TokenService
	metrics *observability.Metrics
	logger  *slog.Logger

	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates an API server. metrics may be nil when the
// observability endpoint is disabled.
func NewServer(addr string, authSvc *auth.Service, tokens *auth.TokenService, metrics *observability.Metrics, logger *slog.Logger) (*Server, error) {
	if authSvc == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		authSvc: authSvc,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Routes builds the request mux. Unauthenticated routes are registered
// directly; protected routes go through the bearer-token guard so no
// handler runs without a validated identity in its context.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /api/me", s.RequireAuth(http.HandlerFunc(s.handleMe)))

	return mux
}

// Start begins serving the API. It returns an error channel that receives
// any error from the HTTP server after startup; the channel is closed when
// the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("api server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("api server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("api server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_api_server").Wrap(err)
		}
	}

	s.logger.Info("api server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
