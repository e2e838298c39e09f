// Package server wires the HTTP surface of the service: the alert routes
// behind authentication, CORS, request logging, health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/civicpulse/mayoralert/handler"
	"github.com/civicpulse/mayoralert/middleware"
	"github.com/civicpulse/mayoralert/types"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// AlertsPath is the mount point of the alert resource.
const AlertsPath = "/api/mayor-alert"

type Server struct {
	db      types.DB
	handler http.Handler
	http    *http.Server
	logger  types.Logger
	opts    *options
}

func New(db types.DB, notifier types.Notifier, auth *middleware.Auth, logger types.Logger, opts ...Option) (*Server, error) {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	if err := o.validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid server configuration: %w", types.ErrConfiguration, err)
	}

	s := &Server{db: db, logger: logger, opts: o}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(s.handlePanic), s.logRequests(), o.metrics.Middleware())

	engine.GET("/healthz", s.health)

	if o.gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))
	}

	alerts := handler.NewAlertHandler(db, db, notifier, logger, handler.WithMetrics(o.metrics))
	alerts.Register(engine.Group(AlertsPath), auth.Protect(), middleware.Authorize(types.RoleMayor))

	s.handler = cors.New(cors.Options{
		AllowedOrigins: o.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(engine)

	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: o.readHeaderTimeout,
	}

	return s, nil
}

// Handler returns the root handler, including CORS.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully,
// waiting at most the configured shutdown timeout for in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.addr, err)
	}

	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Infof("Listening on %s", ln.Addr())

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}

	return nil
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.healthTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Store unavailable", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}

func (s *Server) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger := s.logger.WithFields(map[string]any{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})

		if c.FullPath() == "/healthz" || c.FullPath() == "/metrics" {
			logger.Debug("HTTP request")
			return
		}

		logger.Info("HTTP request")
	}
}

func (s *Server) handlePanic(c *gin.Context, err any) {
	s.logger.Errorf("Panic while handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
}
