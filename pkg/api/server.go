package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/asnlab/asninfo/pkg/config"
)

const defaultGracefulShutdownTimeout = 5 * time.Second

// Server wraps the lookup API HTTP server.
type Server struct {
	cfg        config.ServerConfig
	handler    *Handler
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer constructs the API server and its router.
func NewServer(cfg config.ServerConfig, handler *Handler, logger *zap.Logger) *Server {
	return &Server{cfg: cfg, handler: handler, logger: logger}
}

// Router assembles the chi router: CORS open to all origins, request logging
// that skips /health, and the lookup/health routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))
	r.Use(s.logRequests)

	r.Get("/health", s.handler.Health)
	r.Get("/lookup", s.handler.LookupGET)
	r.Post("/lookup", s.handler.LookupPOST)

	return r
}

// Start begins serving and blocks until context cancellation or server error.
func (s *Server) Start(ctx context.Context, onReady func()) error {
	srv := &http.Server{
		Addr:    s.cfg.Address,
		Handler: s.Router(),
	}
	s.httpServer = srv

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("api server shutdown", zap.Error(err))
		}
	}()

	if onReady != nil {
		onReady()
	}

	s.logger.Info("api server listening", zap.String("addr", s.cfg.Address))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// statusRecorder captures the response status for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logRequests logs every request except health probes.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}
