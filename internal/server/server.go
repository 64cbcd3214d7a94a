// internal/server/server.go
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"charting-assistant/internal/common/config"
	apperrors "charting-assistant/internal/common/errors"
	"charting-assistant/internal/common/logger"
	"charting-assistant/internal/common/ratelimit"
	"charting-assistant/internal/handlers/chat"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Config  config.ServerConfig
	Chat    http.Handler
	Limiter *ratelimit.Limiter
	Redis   Pinger
	Metrics http.Handler
	Version string
	Logger  logger.Logger
}

// Server wraps the HTTP server
type Server struct {
	httpServer *http.Server
	redis      Pinger
	version    string
	logger     logger.Logger
}

func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.With(map[string]interface{}{"component": "server"})

	s := &Server{
		redis:   opts.Redis,
		version: opts.Version,
		logger:  log,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Config.Address(),
		Handler:      s.routes(opts),
		ReadTimeout:  config.GetDuration(opts.Config.ReadTimeout),
		WriteTimeout: config.GetDuration(opts.Config.WriteTimeout),
	}
	return s
}

func (s *Server) routes(opts Options) http.Handler {
	errs := apperrors.NewErrorHandler(s.logger)

	metricsHandler := opts.Metrics
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}

	trusted, err := opts.Config.TrustedPrefixes()
	if err != nil {
		s.logger.Warn("ignoring trusted proxies, rate limiting on connection address", map[string]interface{}{"error": err})
		trusted = nil
	}
	clients := NewClientIPResolver(trusted)

	mux := http.NewServeMux()
	mux.Handle(chat.Route, Chain(opts.Chat, RateLimit(opts.Limiter, clients, errs, s.logger)))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.Handle("/metrics", metricsHandler)

	if dir := opts.Config.StaticDir; dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			mux.Handle("/", http.FileServer(http.Dir(dir)))
			s.logger.Info("serving static files", map[string]interface{}{"dir": dir})
		} else {
			s.logger.Warn("static directory not found, skipping", map[string]interface{}{"dir": dir})
		}
	}

	return Chain(mux,
		Recover(errs),
		RequestID(),
		CORS(opts.Config.AllowedOrigins),
	)
}

// Handler exposes the full middleware-wrapped router.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", map[string]interface{}{"error": err})
			apperrors.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Format(time.RFC3339),
			})
			return
		}
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
