package metrics

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/config"
)

const defaultGracefulShutdownTimeout = 5 * time.Second

// Server exposes Prometheus metrics and health probes. Readiness stays false
// until the cold-start snapshot has been committed.
type Server struct {
	cfg             config.MetricsConfig
	logger          *zap.Logger
	registry        *prometheus.Registry
	instrumentation *Instrumentation
	httpServer      *http.Server
	ready           atomic.Bool
}

// NewServer builds a metrics server instance with its own registry.
func NewServer(cfg config.MetricsConfig, logger *zap.Logger) *Server {
	reg := prometheus.NewRegistry()
	return &Server{
		cfg:             cfg,
		logger:          logger,
		registry:        reg,
		instrumentation: NewInstrumentation(reg),
	}
}

// Instrumentation returns the metrics instrumentation helper.
func (s *Server) Instrumentation() *Instrumentation {
	return s.instrumentation
}

// Registry returns the underlying Prometheus registry.
func (s *Server) Registry() *prometheus.Registry {
	return s.registry
}

// SetReady toggles readiness probing state.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Start launches the HTTP endpoints and blocks until context cancellation.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.HealthPath, s.livenessHandler())
	mux.Handle(s.cfg.ReadinessPath, s.readinessHandler())
	gatherer := prometheus.Gatherers{
		s.registry,
		filteringGatherer{prometheus.DefaultGatherer, s.cfg.DropPrefixes},
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: mux,
	}
	s.httpServer = srv

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("metrics server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("metrics server listening", zap.String("addr", s.cfg.Address))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// livenessHandler exposes a simple OK response for Kubernetes-style probes.
func (s *Server) livenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// readinessHandler reports readiness once the initial dataset is committed.
func (s *Server) readinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready.Load() {
			http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}
