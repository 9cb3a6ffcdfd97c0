// Package adminsrv serves the exporting engine's own operational
// endpoints: native Prometheus self-telemetry, liveness, and readiness.
// Adapted from the teacher's internal/exporter.Server (promhttp.Handler +
// healthz/readyz + graceful Shutdown), repurposed to serve the exporting
// engine's own metrics rather than the monitored system's.
package adminsrv

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vigilantagent/exporting/internal/constants"
)

// Server is the admin HTTP listener.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	ready      atomic.Bool
}

// New returns a Server listening on addr, with registry's collectors
// served at /metrics.
func New(addr string, registry *prometheus.Registry, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	s := &Server{logger: logger}

	mux.Handle(constants.PathMetrics, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(constants.PathHealthz, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc(constants.PathReadyz, func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  constants.HTTPReadTimeout,
		WriteTimeout: constants.HTTPWriteTimeout,
		IdleTimeout:  constants.HTTPIdleTimeout,
	}
	return s
}

// Handle registers handler on the admin mux so callers (e.g. the engine)
// can add the Prometheus scrape endpoint alongside the admin routes.
func (s *Server) Handle(pattern string, handler http.Handler) {
	s.httpServer.Handler.(*http.ServeMux).Handle(pattern, handler)
}

// SetReady flips the readiness flag reported on /readyz.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.Info("admin server starting", zap.String("addr", s.httpServer.Addr))
	s.SetReady(true)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully drains the admin server, bounded by
// constants.AdminShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.SetReady(false)
	ctx, cancel := context.WithTimeout(ctx, constants.AdminShutdownTimeout)
	defer cancel()
	s.logger.Info("admin server stopping")
	return s.httpServer.Shutdown(ctx)
}
