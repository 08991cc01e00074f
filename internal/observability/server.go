// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 NexusSSO Contributors

// Package observability provides HTTP endpoints for metrics, health checks
// and the current session status.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"
)

// ReadinessChecker returns whether the agent is ready. The session agent
// reports not ready while a login or verification flow is running.
type ReadinessChecker func() bool

// StatusFunc returns a JSON-encodable view of the current session.
type StatusFunc func() any

// Registrar registers a package's collectors, e.g. session.RegisterMetrics.
type Registrar func(prometheus.Registerer)

// Metrics contains the server's own metrics.
type Metrics struct {
	BuildInfo     *prometheus.GaugeVec
	StatusQueries prometheus.Counter
}

// NewMetrics creates and registers the server's own metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BuildInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nexus_sso_build_info",
				Help: "Build information, always 1",
			},
			[]string{"version", "commit"},
		),
		StatusQueries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nexus_sso_status_queries_total",
				Help: "Total number of /status requests",
			},
		),
	}

	reg.MustRegister(m.BuildInfo)
	reg.MustRegister(m.StatusQueries)

	return m
}

// Option customizes a Server.
type Option func(*Server)

// WithRegistrars registers additional collectors with the server registry.
func WithRegistrars(registrars ...Registrar) Option {
	return func(s *Server) {
		for _, register := range registrars {
			register(s.registry)
		}
	}
}

// WithStatus serves fn's result as JSON on /status.
func WithStatus(fn StatusFunc) Option {
	return func(s *Server) {
		s.status = fn
	}
}

// WithBuildInfo sets the nexus_sso_build_info labels.
func WithBuildInfo(version, commit string) Option {
	return func(s *Server) {
		s.metrics.BuildInfo.WithLabelValues(version, commit).Set(1)
	}
}

// WithLogger sets the server logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server provides HTTP endpoints for observability.
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	status     StatusFunc
	logger     *slog.Logger
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100").
func NewServer(addr string, readinessChecker ReadinessChecker, opts ...Option) *Server {
	// Own registry so tests and multiple servers never collide on the global one.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	s := &Server{
		addr:     addr,
		registry: registry,
		metrics:  NewMetrics(registry),
		isReady:  readinessChecker,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics returns the server's own metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints.
// It returns an error channel that receives any error from the HTTP server
// after it starts. The channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)
	if s.status != nil {
		mux.HandleFunc("/status", s.handleStatus)
	}

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		// Local httpSrv avoids racing a later Start.
		if serveErr := httpSrv.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			// Still running; allow another Stop.
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	s.logger.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // client may disconnect
	w.Write([]byte("ok\n"))
}

// handleReadiness returns 200 when ready, or 503 while a flow is running.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady == nil || s.isReady() {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // client may disconnect
		w.Write([]byte("ok\n"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	//nolint:errcheck // client may disconnect
	w.Write([]byte("not ready\n"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.metrics.StatusQueries.Inc()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.status()); err != nil {
		s.logger.Warn("failed to write status", "error", err)
	}
}
