package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/ailp/internal/logger"
	"github.com/abhisek/ailp/internal/store"
)

const userKey = "ailp.user"

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if u := currentUser(c); u != nil {
			fields = append(fields, "user_id", u.ID)
		}

		switch {
		case status >= 500:
			log.Error("http request", fields...)
		case status >= 400:
			log.Warn("http request", fields...)
		default:
			log.Info("http request", fields...)
		}
	}
}

// identity attaches the logged-in user when the request carries a valid
// session token. Requests without one continue anonymously.
func (s *Server) identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.caps.Auth == nil {
			c.Next()
			return
		}
		token := s.sessionToken(c)
		if token == "" {
			c.Next()
			return
		}
		u, err := s.caps.Auth.Resolve(c.Request.Context(), token)
		if err != nil {
			s.log.Debug("session not resolved", "error", err)
			c.Next()
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil || s.caps.Learner == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			return
		}
		c.Next()
	}
}

func (s *Server) sessionToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if v, err := c.Cookie(s.caps.Config.Session.Cookie); err == nil {
		return v
	}
	return ""
}

func currentUser(c *gin.Context) *store.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*store.User)
	return u
}
