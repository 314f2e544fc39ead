// Package api serves the episweep HTTP API.
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/episweep/api/handler"
	"github.com/jon4hz/episweep/config"
)

// Server is the episweep HTTP server.
type Server struct {
	cfg       *config.Store
	ginEngine *gin.Engine
	handler   *handler.Handler
}

// New creates a new API server.
func New(cfg *config.Store, engine handler.Engine, debug bool) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	return &Server{
		cfg:       cfg,
		ginEngine: gin.Default(),
		handler:   handler.New(engine),
	}, nil
}

func (s *Server) setupRoutes() {
	s.ginEngine.POST("/webhook", s.handler.Webhook)
	s.ginEngine.GET("/health", s.handler.Health)

	api := s.ginEngine.Group("/api")
	api.GET("/pending", s.handler.Pending)
	api.POST("/sweep", s.handler.TriggerSweep)
	api.GET("/jobs", s.handler.Jobs)
}

// Run starts the HTTP server. It blocks until the server exits.
func (s *Server) Run() error {
	s.setupRoutes()

	return s.ginEngine.Run(s.cfg.Get().Listen)
}
