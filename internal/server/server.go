// Package server exposes the roadmap engine and learner actions over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/abhisek/ailp/internal/app"
	"github.com/abhisek/ailp/internal/logger"
)

const (
	serviceName     = "ailp"
	shutdownTimeout = 10 * time.Second
)

// Server is the HTTP front end over a set of capabilities.
type Server struct {
	caps   *app.Capabilities
	log    *logger.Logger
	router *gin.Engine
}

// New builds the router for caps.
func New(caps *app.Capabilities) *Server {
	if caps.Config.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{caps: caps, log: caps.Log.With("component", "http")}
	s.router = s.routes()
	return s
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(requestLogger(s.log))
	r.Use(s.cors())
	r.Use(s.identity())

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/roadmap", s.getRoadmap)
		api.POST("/roadmap", s.completeInRoadmap)
		api.GET("/guest/roadmap", s.guestRoadmap)

		api.POST("/assessment/analyze", s.analyzeAssessment)
		api.POST("/weak-points", s.reportWeakPoint)
	}

	authAPI := api.Group("/auth")
	{
		authAPI.POST("/signup", s.signup)
		authAPI.POST("/login", s.login)
		authAPI.POST("/logout", s.logout)
		authAPI.GET("/me", s.requireUser(), s.me)
		authAPI.GET("/status", s.requireUser(), s.status)
	}

	protected := api.Group("")
	protected.Use(s.requireUser())
	{
		protected.POST("/assessment/submit", s.submitAssessment)

		protected.GET("/learn/:conceptId", s.startLesson)
		protected.POST("/learn/:conceptId/complete", s.completeConcept)
		protected.POST("/learn/:conceptId/checkpoint", s.submitCheckpoint)

		protected.GET("/weak-points", s.listWeakPoints)
		protected.GET("/mastery/events", s.masteryEvents)
	}
	return r
}

func (s *Server) cors() gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = s.caps.Config.HTTP.AllowedOrigins
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"http://localhost:3000"}
	}
	cfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	cfg.AllowHeaders = []string{"Authorization", "Content-Type", "X-Requested-With"}
	cfg.AllowCredentials = true
	return cors.New(cfg)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.caps.Config.HTTP.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":         "ok",
		"catalog":        s.caps.Graph.Subject(),
		"catalogVersion": s.caps.Graph.Version(),
		"persistent":     s.caps.Persistent(),
		"llm":            s.caps.LLM != nil,
	}
	if s.caps.Store != nil {
		if err := s.caps.Store.DB().PingContext(c.Request.Context()); err != nil {
			s.log.Error("health check failed", "error", err)
			body["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
	}
	c.JSON(http.StatusOK, body)
}
