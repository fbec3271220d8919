// Package server wires the chat gateway's HTTP surface.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"graphchat/pkg/config"
	"graphchat/pkg/dispatch"
	"graphchat/pkg/health"
	"graphchat/pkg/render"
	"graphchat/pkg/server/handlers"
	"graphchat/pkg/transcript"
)

// sessionCookie names the fallback cookie carrying the session ID for
// browser clients that do not set the header.
const sessionCookie = "graphchat_session"

// Server represents the HTTP server.
type Server struct {
	config     *config.Config
	router     *gin.Engine
	dispatcher *dispatch.Dispatcher
	renderer   *render.Renderer
	store      transcript.Store
	probe      *health.Probe
	log        *slog.Logger
	server     *http.Server
}

// New creates a new server instance.
func New(cfg *config.Config, d *dispatch.Dispatcher, r *render.Renderer, store transcript.Store, probe *health.Probe, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		config:     cfg,
		dispatcher: d,
		renderer:   r,
		store:      store,
		probe:      probe,
		log:        log,
	}
}

// Setup sets up the server routes and middleware.
func (s *Server) Setup() error {
	gin.SetMode(s.config.Server.Mode)

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(requestLogMiddleware(s.log))
	s.router.Use(corsMiddleware())
	s.router.Use(sessionMiddleware())

	if err := s.setupRoutes(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return nil
}

// setupRoutes sets up all the routes.
func (s *Server) setupRoutes() error {
	content, err := LoadContent()
	if err != nil {
		return err
	}

	queryHandler := handlers.NewQueryHandler(s.dispatcher, s.renderer, s.store, s.log)
	healthHandler := handlers.NewHealthHandler(s.probe)
	transcriptHandler := handlers.NewTranscriptHandler(s.store, s.log)
	metaHandler := handlers.NewMetaHandler(handlers.MetaContent{
		Title:          content.Title,
		Subtitle:       content.Subtitle,
		ExampleQueries: content.ExampleQueries,
		DataSources:    content.DataSources,
	})

	// Health endpoints
	s.router.GET("/health", healthHandler.HealthCheck)
	s.router.GET("/healthcheck", healthHandler.HealthCheck) // Legacy endpoint
	s.router.GET("/live", healthHandler.LivenessCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/query", queryHandler.Query)
		v1.GET("/transcript", transcriptHandler.Get)
		v1.DELETE("/transcript", transcriptHandler.Reset)
		v1.GET("/meta", metaHandler.Meta)
	}

	// Legacy route for compatibility with the Python server
	s.router.POST("/query", queryHandler.Query)
	// The chat endpoint is POST-only. A GET gets a method hint rather
	// than a bare 404.
	s.router.GET("/query", methodNotAllowed)
	s.router.GET("/api/v1/query", methodNotAllowed)

	return nil
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{
		"success": false,
		"error":   "Use POST with a JSON body: {\"query\": \"...\", \"search_type\": \"global|local|basic\"}",
	})
}

// Start starts the server.
func (s *Server) Start() error {
	s.log.Info("Starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Stopping server")
	return s.server.Shutdown(ctx)
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Session-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// sessionMiddleware resolves the caller's session ID. Order of precedence:
// X-Session-ID header, session cookie, then a freshly minted UUID. The
// resolved ID is echoed back on both channels.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.GetHeader("X-Session-ID")
		if sessionID == "" {
			if cookie, err := c.Cookie(sessionCookie); err == nil {
				sessionID = cookie
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		c.Set(handlers.SessionKey, sessionID)
		c.Header("X-Session-ID", sessionID)
		c.SetCookie(sessionCookie, sessionID, 86400, "/", "", false, true)
		c.Next()
	}
}

// requestLogMiddleware logs each request with the structured logger.
func requestLogMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Info("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
