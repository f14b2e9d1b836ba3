package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/abhitsian/claude-session-manager/claude"
	"github.com/abhitsian/claude-session-manager/config"
	"github.com/abhitsian/claude-session-manager/continuation"
	"github.com/abhitsian/claude-session-manager/log"
	"github.com/abhitsian/claude-session-manager/metrics"
)

// Server owns and coordinates all application components
type Server struct {
	cfg *config.Config

	// Components (owned by server)
	store     *claude.Store
	activity  *claude.ActivityDetector
	artifacts *claude.ArtifactExtractor
	synth     *continuation.Synthesizer
	metrics   *metrics.Metrics

	// HTTP
	router *gin.Engine
	http   *http.Server
}

// Option customizes component construction, mostly for tests.
type Option func(*options)

type options struct {
	tokens continuation.TokenCounter
	clock  func() time.Time
}

// WithTokenCounter replaces the tiktoken based counter used for context
// token estimates.
func WithTokenCounter(c continuation.TokenCounter) Option {
	return func(o *options) { o.tokens = c }
}

// WithClock sets the clock used for activity detection and for records
// without timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New creates a new server with all components initialized
func New(cfg *config.Config, opts ...Option) *Server {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Server{
		cfg:     cfg,
		metrics: metrics.New(),
	}

	log.Info().Str("claudeDir", cfg.ClaudeDir).Msg("initializing session store")
	s.store = claude.NewStore(cfg.ClaudeDir,
		claude.WithScanWorkers(cfg.ScanWorkers),
		claude.WithClock(o.clock),
		claude.WithObserver(s.metrics),
	)

	s.activity = claude.NewActivityDetector(cfg.ClaudeDir, time.Duration(cfg.ActiveThresholdMinutes)*time.Minute)
	s.activity.SetClock(o.clock)

	s.artifacts = claude.NewArtifactExtractor(s.store)

	synthOpts := []continuation.Option{
		continuation.WithArtifacts(s.artifacts),
		continuation.WithActivity(s.activity),
	}
	if o.tokens != nil {
		synthOpts = append(synthOpts, continuation.WithTokenCounter(o.tokens))
	}
	s.synth = continuation.New(s.store, synthOpts...)

	s.setupRouter()

	log.Info().Msg("server initialized successfully")
	return s
}

// setupRouter creates and configures the Gin router
func (s *Server) setupRouter() {
	if !s.cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	// Middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(log.GinLogger())
	s.router.Use(metricsMiddleware(s.metrics))

	// CORS for development
	if s.cfg.IsDevelopment() {
		s.router.Use(corsMiddleware())
	}

	// Security headers (production only)
	if !s.cfg.IsDevelopment() {
		s.router.Use(securityHeadersMiddleware())
	}

	s.router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics", // promhttp negotiates its own compression
	})))

	// Trust proxy headers
	s.router.SetTrustedProxies(nil)

	s.router.GET("/.well-known/*path", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Note: API routes are set up by calling code (main.go)
	// to avoid import cycles
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.StdErrorLogger(), // Route Go's internal HTTP errors through zerolog
	}

	log.Info().
		Str("addr", s.http.Addr).
		Str("env", s.cfg.Env).
		Msg("HTTP server starting")

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down server")

	if s.http != nil {
		if err := s.http.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
			return err
		}
	}

	log.Info().Msg("server shutdown complete")
	return nil
}

// Component accessors for API handlers
func (s *Server) Config() *config.Config                 { return s.cfg }
func (s *Server) Store() *claude.Store                   { return s.store }
func (s *Server) Activity() *claude.ActivityDetector     { return s.activity }
func (s *Server) Artifacts() *claude.ArtifactExtractor   { return s.artifacts }
func (s *Server) Synthesizer() *continuation.Synthesizer { return s.synth }
func (s *Server) Metrics() *metrics.Metrics              { return s.metrics }
func (s *Server) Router() *gin.Engine                    { return s.router }
