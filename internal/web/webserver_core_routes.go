// Package web provides the HTTP server and web interface for go-mcpdir
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/go-while/go-mcpdir/internal/config"
	"github.com/go-while/go-mcpdir/internal/logging"
)

// WebServer represents the web server
type WebServer struct {
	Router    *gin.Engine
	Config    *config.Config
	Log       logrus.FieldLogger
	StartTime time.Time // Track server start time for uptime calculations

	templates  *template.Template
	httpServer *http.Server
	limiter    *visitorLimiter // nil when rate limiting is off
}

// SecurityConfig returns the security header policy applied to every response.
func SecurityConfig(cfg *config.Config) secure.Config {
	return secure.Config{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
		ContentSecurityPolicy: cfg.ContentSecurityPolicy,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}
}

// NewServer creates a new web server instance
func NewServer(cfg *config.Config, logger logrus.FieldLogger) (*WebServer, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	router := gin.New()

	// Configure Gin to trust reverse proxy headers
	// Set trusted proxies for common reverse proxy setups (nginx, etc.)
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	server := &WebServer{
		Router:    router,
		Config:    cfg,
		Log:       logger,
		templates: tmpl,
	}

	// Security headers first so aborted and 404 responses carry them too
	router.Use(secure.New(SecurityConfig(cfg)))
	router.Use(RequestIDMiddleware())
	router.Use(logging.AccessLog(logger))
	router.Use(gin.CustomRecovery(recoveryHandler(logger)))
	if cfg.RateLimitEnabled() {
		server.limiter = newVisitorLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		router.Use(RateLimitMiddleware(server.limiter, logger, "/health", "/ping"))
		logger.Infof("[WEB]: Rate limiting enabled: %.2f req/s, burst %d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	server.setupRoutes()

	server.httpServer = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	s.Router.GET("/", s.homePage)
	s.Router.GET("/favicon.ico", s.faviconHandler)
	s.Router.GET("/health", s.healthHandler)
	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	static := s.StaticHandler()
	s.Router.GET("/static/*filepath", static)
	s.Router.HEAD("/static/*filepath", static)

	s.Router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "404 page not found")
	})
}

// Start serves HTTP until Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *WebServer) Start() error {
	s.StartTime = time.Now() // Set the start time for uptime calculations
	s.Log.Infof("[WEB]: Starting HTTP server on %s (env=%s debug=%t)", s.httpServer.Addr, s.Config.Env, s.Config.Debug)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *WebServer) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
