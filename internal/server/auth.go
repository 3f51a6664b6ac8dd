package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/ailp/internal/store"
)

type credentials struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func viewOf(u *store.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name}
}

func (s *Server) accountsEnabled(c *gin.Context) bool {
	if s.caps.Auth == nil {
		respondError(c, http.StatusServiceUnavailable, "Accounts are not available without a database")
		return false
	}
	return true
}

func (s *Server) signup(c *gin.Context) {
	if !s.accountsEnabled(c) {
		return
	}
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: email and password required")
		return
	}
	u, sess, err := s.caps.Auth.Signup(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		s.fail(c, "create account", err)
		return
	}
	s.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": viewOf(u), "token": sess.Token})
}

func (s *Server) login(c *gin.Context) {
	if !s.accountsEnabled(c) {
		return
	}
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: email and password required")
		return
	}
	u, sess, err := s.caps.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, "log in", err)
		return
	}
	s.setSessionCookie(c, sess)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": viewOf(u), "token": sess.Token})
}

func (s *Server) logout(c *gin.Context) {
	if !s.accountsEnabled(c) {
		return
	}
	if token := s.sessionToken(c); token != "" {
		if err := s.caps.Auth.Logout(c.Request.Context(), token); err != nil {
			s.fail(c, "log out", err)
			return
		}
	}
	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": viewOf(currentUser(c))})
}

// status tells the client whether the learner still needs the placement
// assessment.
func (s *Server) status(c *gin.Context) {
	done, err := s.caps.Learner.HasCompletedAssessment(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		s.fail(c, "get user status", err)
		return
	}
	redirect := "/assessment"
	if done {
		redirect = "/roadmap"
	}
	c.JSON(http.StatusOK, gin.H{"hasCompletedAssessment": done, "redirectTo": redirect})
}

func (s *Server) setSessionCookie(c *gin.Context, sess *store.Session) {
	cfg := s.caps.Config.Session
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Cookie, sess.Token, int(s.caps.Auth.TTL().Seconds()), "/", "", cfg.Secure, true)
}

func (s *Server) clearSessionCookie(c *gin.Context) {
	cfg := s.caps.Config.Session
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cfg.Cookie, "", -1, "/", "", cfg.Secure, true)
}
