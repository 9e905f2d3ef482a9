// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Status is the body served on /health.
type Status struct {
	Status    string    `json:"status"`
	Site      string    `json:"site,omitempty"`
	Stage     string    `json:"stage,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
}

// Server exposes /metrics and /health while a run is in progress.
type Server struct {
	config  MetricsConfig
	metrics *Metrics
	router  *mux.Router
	http    *http.Server

	mu      sync.RWMutex
	site    string
	stage   string
	started time.Time
}

// NewServer builds the router; call Start to listen.
func NewServer(config MetricsConfig, metrics *Metrics) *Server {
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.ListenAddress == "" {
		config.ListenAddress = ":9090"
	}

	s := &Server{
		config:  config,
		metrics: metrics,
		router:  mux.NewRouter(),
		started: time.Now(),
	}
	s.router.Handle(config.MetricsPath, promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// SetStage records what the run is doing for /health.
func (s *Server) SetStage(site, stage string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.site = site
	s.stage = stage
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	status := Status{
		Status:    "ok",
		Site:      s.site,
		Stage:     s.stage,
		StartedAt: s.started,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// Start listens in the background. Errors after startup are passed to onError.
func (s *Server) Start(onError func(error)) {
	s.http = &http.Server{
		Addr:              s.config.ListenAddress,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && onError != nil {
			onError(err)
		}
	}()
}

// Shutdown stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
