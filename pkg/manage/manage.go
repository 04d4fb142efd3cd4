// Package manage serves health, status and metrics endpoints for long-running exifai processes.
package manage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

// Status is a snapshot of recent activity.
type Status struct {
	Started   time.Time `json:"started"`
	Processed int       `json:"processed"`
	Failed    int       `json:"failed"`
	LastPath  string    `json:"last_path,omitempty"`
	LastError string    `json:"last_error,omitempty"`
	LastAt    time.Time `json:"last_at,omitempty"`
}

// Server is the status server for watch mode.
type Server struct {
	g prometheus.Gatherer

	mu     sync.Mutex
	status Status
}

// New creates a new server exposing metrics from g.
func New(g prometheus.Gatherer) *Server {
	return &Server{g: g, status: Status{Started: time.Now()}}
}

// Record notes the outcome for one image.
func (s *Server) Record(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Processed++
	s.status.LastPath = path
	s.status.LastAt = time.Now()
	s.status.LastError = ""
	if err != nil {
		s.status.Failed++
		s.status.LastError = err.Error()
	}
}

// Status returns a copy of the current status.
func (s *Server) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintln(w, "ok")
	}
}

// StatusHandler writes the current Status as JSON.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(s.Status()); err != nil {
			klog.Errorf("encode status: %v", err)
		}
	}
}

// Handler returns a mux with every endpoint registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.HealthHandler())
	mux.HandleFunc("/status", s.StatusHandler())
	mux.Handle("/metrics", promhttp.HandlerFor(s.g, promhttp.HandlerOpts{}))
	return mux
}

// Serve listens on addr until ctx is done.
func (s *Server) Serve(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			klog.Errorf("shutdown: %v", err)
		}
	}()

	klog.Infof("Listening on %s...", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}
