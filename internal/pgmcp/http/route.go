package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pgmcp/pgmcp/internal/backend"
	"github.com/pgmcp/pgmcp/internal/errors"
	"github.com/pgmcp/pgmcp/pkg/version"
)

func (s *Service) initRouter() {
	s.initBaseRouter()
	s.initAPIRouter()
	s.initMCPRouter()
}

func (s *Service) initBaseRouter() {
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "pgmcp",
			"version": version.Version,
		})
	})

	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"backend": s.selector.Active().Name(),
		})
	})

	s.router.NoRoute(s.NoRoute)
}

func (s *Service) initAPIRouter() {
	api := s.router.Group("/api/v1", s.authMiddleware())
	{
		api.GET("/backend", s.handleBackend)
		api.POST("/backend/reset", s.handleBackendReset)
	}
}

func (s *Service) initMCPRouter() {
	group := s.router.Group("/mcp", s.authMiddleware())
	{
		group.GET("", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "POST JSON-RPC 2.0 envelopes to this endpoint"})
		})
		group.POST("", s.handleMCP)
	}
}

// NoRoute handles 404 Not Found errors with a JSON body.
func (s *Service) NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
}

func (s *Service) handleBackend(c *gin.Context) {
	state := "real"
	if s.selector.State() == backend.StateMock {
		state = "mock"
	}
	c.JSON(http.StatusOK, gin.H{
		"state":   state,
		"backend": s.selector.Active().Name(),
	})
}

// handleBackendReset re-probes the real backend and switches back to it on
// success. Recovery is never automatic; this is the only way back.
func (s *Service) handleBackendReset(c *gin.Context) {
	if err := s.selector.Reset(c.Request.Context()); err != nil {
		errors.Err(c, errors.Backend("real backend still unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":   "real",
		"backend": s.selector.Active().Name(),
	})
}
