package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/ailp/internal/assessment"
	"github.com/abhisek/ailp/internal/auth"
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/learner"
	"github.com/abhisek/ailp/internal/store"
)

func respondError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// fail maps a service error to its status. Unexpected errors are logged and
// reported as a generic failure described by action.
func (s *Server) fail(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, conceptgraph.ErrUnknownConcept):
		respondError(c, http.StatusNotFound, "Concept not found")
	case errors.Is(err, learner.ErrLocked):
		respondError(c, http.StatusForbidden, "Prerequisites not met")
	case errors.Is(err, learner.ErrCheckpointIndex):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, assessment.ErrNoResponses):
		respondError(c, http.StatusBadRequest, "Invalid request: responses array required")
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		respondError(c, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, auth.ErrNoSession):
		respondError(c, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "Not found")
	default:
		s.log.Error("request failed", "action", action, "path", c.FullPath(), "error", err)
		respondError(c, http.StatusInternalServerError, "Failed to "+action)
	}
}

// valueOr returns *v, or def when v is nil or zero.
func valueOr(v *float64, def float64) float64 {
	if v == nil || *v == 0 {
		return def
	}
	return *v
}
