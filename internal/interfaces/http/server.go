// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-api/internal/interfaces/http/routes"
	"github.com/your-org/storefront-api/internal/pkg/metrics"
)

// multipartOverhead covers part headers and form fields around an uploaded file
const multipartOverhead = 64 << 10

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options carries the server's collaborators
type Options struct {
	Routes   routes.Dependencies
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthChecker
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	logger     *logrus.Logger
	gin        *gin.Engine
	httpServer *http.Server
	opts       Options
	startedAt  time.Time
}

// NewServer builds the engine with its middleware and routes
func NewServer(cfg *config.Config, logger *logrus.Logger, opts Options) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		gin:       gin.New(),
		opts:      opts,
		startedAt: time.Now(),
	}

	if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		logger.WithError(err).Warn("Invalid trusted proxy list, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves until Stop is called
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.logger))
	s.gin.Use(middleware.Metrics(s.opts.Metrics))
	s.gin.Use(middleware.CORS(s.config.Security))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(s.config.Security.RateLimitPerMinute, s.opts.Redis, s.logger))
	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes, s.config.Upload.MaxBytes+multipartOverhead))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	if s.opts.Gatherer != nil {
		s.gin.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	s.gin.Static(strings.TrimSuffix(product.MediaPrefix, "/"), s.config.Upload.LocalPath)

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, s.opts.Routes)

	if s.config.IsDevelopment() {
		s.gin.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message":     s.config.App.Name,
				"version":     s.config.App.Version,
				"environment": s.config.App.Environment,
				"health":      "/health",
				"endpoints": gin.H{
					"auth":       "/api/v1/auth",
					"products":   "/api/v1/products",
					"categories": "/api/v1/categories",
					"cart":       "/api/v1/cart",
					"orders":     "/api/v1/orders",
					"admin":      "/api/v1/admin",
					"media":      product.MediaPrefix,
				},
			})
		})
	}
}

// healthCheck pings every registered dependency
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	for name, checker := range s.opts.Checks {
		if err := checker.Health(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Warn("Health check failed")
			checks[name] = "unavailable"
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":      state,
		"checks":      checks,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck reports that the process is serving
func (s *Server) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
