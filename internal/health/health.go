// Package health serves liveness, readiness and per-check health endpoints.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fd1az/web3-connect/internal/logger"
)

const checkTimeout = 5 * time.Second

// Overall statuses reported by /health.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// Status represents the /health response.
type Status struct {
	Status    string           `json:"status"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// Check is the result of one named check.
type Check struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// CheckFunc performs a health check.
type CheckFunc func(ctx context.Context) Check

// ReadyFunc decides readiness from the latest check results.
type ReadyFunc func(checks map[string]Check) bool

// AllHealthy is the default readiness rule.
func AllHealthy(checks map[string]Check) bool {
	for _, c := range checks {
		if !c.Healthy {
			return false
		}
	}
	return true
}

// AnyHealthy is ready while at least one check passes.
func AnyHealthy(checks map[string]Check) bool {
	for _, c := range checks {
		if c.Healthy {
			return true
		}
	}
	return len(checks) == 0
}

// Server provides health check HTTP endpoints.
type Server struct {
	port    int
	version string
	logger  logger.LoggerInterface

	mu     sync.RWMutex
	checks map[string]CheckFunc
	ready  ReadyFunc
	server *http.Server
}

// NewServer creates a health server listening on port.
func NewServer(port int, version string, log logger.LoggerInterface) *Server {
	return &Server{
		port:    port,
		version: version,
		logger:  log,
		checks:  make(map[string]CheckFunc),
		ready:   AllHealthy,
	}
}

// RegisterCheck registers a named check, replacing any previous one.
func (s *Server) RegisterCheck(name string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// SetReadiness replaces the readiness rule.
func (s *Server) SetReadiness(fn ReadyFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = fn
}

// Handler returns the endpoint mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.HandleFunc("GET /live", s.handleLive)
	return mux
}

// Start serves in the background. Listen errors are logged.
func (s *Server) Start() error {
	if s.port <= 0 {
		return fmt.Errorf("invalid health port %d", s.port)
	}

	s.mu.Lock()
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "health server stopped", "port", s.port, "error", err)
		}
	}()

	s.logger.Info(context.Background(), "health server started", "port", s.port)
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// run executes every check concurrently and returns the results and readiness.
func (s *Server) run(ctx context.Context) (map[string]Check, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	s.mu.RLock()
	checks := make(map[string]CheckFunc, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	ready := s.ready
	s.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		g       errgroup.Group
	)
	for name, check := range checks {
		g.Go(func() error {
			c := check(ctx)
			mu.Lock()
			results[name] = c
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, ready(results)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results, ready := s.run(r.Context())

	status := Status{
		Status:    StatusOK,
		Checks:    results,
		Version:   s.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	code := http.StatusOK
	switch {
	case !ready:
		status.Status = StatusDown
		code = http.StatusServiceUnavailable
	case !AllHealthy(results):
		status.Status = StatusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Warn(r.Context(), "encode health status", "error", err)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, ready := s.run(r.Context()); !ready {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("alive"))
}
