package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/ailp/internal/app"
	"github.com/abhisek/ailp/internal/auth"
	"github.com/abhisek/ailp/internal/config"
	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/roadmap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, persistent bool) *Server {
	t.Helper()
	cfg := &config.Config{
		Env:         "test",
		DatabaseDSN: "none",
		Thresholds:  roadmap.DefaultThresholds(),
		Remediation: remediation.DefaultPolicy(),
		LLM:         llm.DefaultConfig(),
	}
	if persistent {
		cfg.DatabaseDSN = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	cfg.Session.TTL = auth.DefaultSessionTTL
	cfg.Session.Cookie = "ailp_session"
	cfg.OTel.Exporter = "stdout"

	caps, err := app.Build(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { caps.Close() })
	return New(caps)
}

type call struct {
	method string
	path   string
	body   any
	token  string
	cookie *http.Cookie
}

func do(t *testing.T, s *Server, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type roadmapBody struct {
	Roadmap                []roadmap.Entry  `json:"roadmap"`
	Progress               roadmap.Progress `json:"progress"`
	NextRecommendedConcept *string          `json:"nextRecommendedConcept"`
	IsGuest                bool             `json:"isGuest"`
	GuestID                string           `json:"guestId"`
}

func statusIn(entries []roadmap.Entry, id string) string {
	for _, e := range entries {
		if e.ID == id {
			return string(e.Status)
		}
	}
	return ""
}

func signup(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(t, s, call{method: http.MethodPost, path: "/api/auth/signup", body: gin.H{
		"email": uuid.NewString() + "@example.com", "password": "correct horse", "name": "Ada",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct{ Token string }](t, rec)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, true)
	rec := do(t, s, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["persistent"])
	assert.Equal(t, "python", body["catalog"])
}

func TestGuestRoadmap(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, call{method: http.MethodGet, path: "/api/guest/roadmap"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[roadmapBody](t, rec)
	assert.True(t, body.IsGuest)
	assert.True(t, auth.IsGuest(body.GuestID))
	assert.Len(t, body.Roadmap, 12)
	assert.Equal(t, "available", statusIn(body.Roadmap, "intro"))
	assert.Equal(t, "locked", statusIn(body.Roadmap, "variables"))
	require.NotNil(t, body.NextRecommendedConcept)
	assert.Equal(t, "intro", *body.NextRecommendedConcept)
	assert.Equal(t, roadmap.Progress{Completed: 0, Total: 12, Percent: 0}, body.Progress)
}

func TestAnonymousRoadmapFromQuery(t *testing.T) {
	s := newTestServer(t, false)

	q := url.Values{}
	q.Set("conceptConfidence", `{"intro":0.75}`)
	rec := do(t, s, call{method: http.MethodGet, path: "/api/roadmap?" + q.Encode()})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[roadmapBody](t, rec)
	assert.Equal(t, "in_progress", statusIn(body.Roadmap, "intro"))
	assert.Equal(t, "available", statusIn(body.Roadmap, "variables"))

	q = url.Values{}
	q.Set("completed", "intro, variables")
	rec = do(t, s, call{method: http.MethodGet, path: "/api/roadmap?" + q.Encode()})
	body = decode[roadmapBody](t, rec)
	assert.Equal(t, 2, body.Progress.Completed)
	assert.Equal(t, 17, body.Progress.Percent)

	// Malformed confidence is ignored rather than rejected.
	rec = do(t, s, call{method: http.MethodGet, path: "/api/roadmap?conceptConfidence=%7Bnope"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[roadmapBody](t, rec)
	assert.Equal(t, "available", statusIn(body.Roadmap, "intro"))
}

func TestCompleteInClientRoadmap(t *testing.T) {
	s := newTestServer(t, false)
	guest := decode[roadmapBody](t, do(t, s, call{method: http.MethodGet, path: "/api/guest/roadmap"}))

	rec := do(t, s, call{method: http.MethodPost, path: "/api/roadmap", body: gin.H{
		"roadmap":            gin.H{"concepts": guest.Roadmap},
		"completedConceptId": "intro",
		"finalMastery":       0,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rm := decode[roadmap.Roadmap](t, rec)
	intro, ok := rm.Entry("intro")
	require.True(t, ok)
	assert.Equal(t, "completed", string(intro.Status))
	assert.Equal(t, 1.0, intro.MasteryScore, "zero final mastery defaults to 1")
	assert.Equal(t, 1.0, intro.ConfidenceScore)
	assert.Equal(t, "available", statusIn(rm.Concepts, "variables"))
	assert.Equal(t, "variables", rm.Next())
	assert.InDelta(t, 100.0/12, rm.OverallProgress, 1e-9)

	body := decode[roadmapBody](t, rec)
	assert.Equal(t, rm.Concepts, body.Roadmap, "POST answers in the GET shape too")
	assert.Equal(t, roadmap.Progress{Completed: 1, Total: 12, Percent: 8}, body.Progress)
	require.NotNil(t, body.NextRecommendedConcept)
	assert.Equal(t, "variables", *body.NextRecommendedConcept)
}

func TestCompleteInClientRoadmapValidation(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, call{method: http.MethodPost, path: "/api/roadmap", body: gin.H{"roadmap": gin.H{}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "completedConceptId")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, true)
	email := uuid.NewString() + "@example.com"

	rec := do(t, s, call{method: http.MethodPost, path: "/api/auth/signup", body: gin.H{
		"email": email, "password": "correct horse",
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ailp_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie set")
	assert.True(t, cookie.HttpOnly)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/auth/me", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[struct{ User userView }](t, rec)
	assert.Equal(t, email, me.User.Email)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/auth/status", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"hasCompletedAssessment":false,"redirectTo":"/assessment"}`, rec.Body.String())

	rec = do(t, s, call{method: http.MethodPost, path: "/api/auth/signup", body: gin.H{
		"email": strings.ToUpper(email), "password": "correct horse",
	}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/auth/login", body: gin.H{
		"email": email, "password": "wrong password",
	}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/auth/login", body: gin.H{
		"email": email, "password": "correct horse",
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/auth/logout", cookie: cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, call{method: http.MethodGet, path: "/api/auth/me", cookie: cookie})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t, true)
	rec := do(t, s, call{method: http.MethodPost, path: "/api/auth/signup", body: gin.H{
		"email": "not-an-email", "password": "correct horse",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/auth/signup", body: gin.H{
		"email": "short@example.com", "password": "short",
	}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountsNeedDatabase(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s, call{method: http.MethodPost, path: "/api/auth/signup", body: gin.H{
		"email": "a@example.com", "password": "correct horse",
	}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/learn/intro"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLearnFlow(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(t, s, call{method: http.MethodGet, path: "/api/learn/intro"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Not authenticated"}`, rec.Body.String())

	token := signup(t, s)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/learn/ghost", token: token})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/learn/variables", token: token})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Prerequisites not met"}`, rec.Body.String())

	rec = do(t, s, call{method: http.MethodGet, path: "/api/learn/intro", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	lesson := decode[struct {
		SessionID string `json:"sessionId"`
		Content   struct {
			Sections []json.RawMessage `json:"sections"`
		} `json:"content"`
	}](t, rec)
	assert.NotEmpty(t, lesson.SessionID)
	assert.NotEmpty(t, lesson.Content.Sections)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/learn/intro/complete", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	done := decode[struct {
		Success      bool        `json:"success"`
		NextConcepts []string    `json:"nextConcepts"`
		Roadmap      roadmapBody `json:"roadmap"`
	}](t, rec)
	assert.True(t, done.Success)
	assert.Equal(t, []string{"variables"}, done.NextConcepts)
	assert.Equal(t, 1, done.Roadmap.Progress.Completed)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/roadmap", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	rm := decode[roadmapBody](t, rec)
	assert.Equal(t, "completed", statusIn(rm.Roadmap, "intro"))
	assert.Equal(t, "available", statusIn(rm.Roadmap, "variables"))

	rec = do(t, s, call{method: http.MethodGet, path: "/api/mastery/events", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[struct {
		Events []map[string]any `json:"events"`
	}](t, rec)
	assert.NotEmpty(t, events.Events)
}

func TestCheckpoint(t *testing.T) {
	s := newTestServer(t, true)
	token := signup(t, s)

	rec := do(t, s, call{method: http.MethodPost, path: "/api/learn/variables/checkpoint", token: token,
		body: gin.H{"checkpointIndex": 0}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/learn/variables/checkpoint", token: token,
		body: gin.H{"checkpointIndex": -1, "responseText": "something"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/learn/variables/checkpoint", token: token,
		body: gin.H{
			"checkpointIndex": 0,
			"question":        "What is a variable?",
			"responseText":    "A named box that holds a value so the program can use it later.",
		}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Success  bool   `json:"success"`
		Feedback string `json:"feedback"`
		Analysis struct {
			UnderstandingScore float64 `json:"understandingScore"`
			Remediate          bool    `json:"remediate"`
		} `json:"analysis"`
	}](t, rec)
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.Feedback)
	assert.InDelta(t, 0.6, body.Analysis.UnderstandingScore, 1e-9)
	assert.False(t, body.Analysis.Remediate)
}

func TestWeakPointsAnonymous(t *testing.T) {
	s := newTestServer(t, false)

	rec := do(t, s, call{method: http.MethodPost, path: "/api/weak-points", body: gin.H{"errorPatterns": []string{"x"}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request: conceptId and errorPatterns array required"}`, rec.Body.String())

	rec = do(t, s, call{method: http.MethodPost, path: "/api/weak-points", body: gin.H{
		"conceptId": "loops", "errorPatterns": []string{"off by one"},
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detected":false,"message":"No weak points detected yet"}`, rec.Body.String())

	rec = do(t, s, call{method: http.MethodPost, path: "/api/weak-points", body: gin.H{
		"conceptId": "loops", "errorPatterns": []string{"off by one", "infinite loop", "wrong range"},
	}})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Detected         bool                  `json:"detected"`
		WeakPoint        remediation.WeakPoint `json:"weakPoint"`
		NeedsRemediation bool                  `json:"needsRemediation"`
	}](t, rec)
	assert.True(t, body.Detected)
	assert.Equal(t, "loops", body.WeakPoint.ConceptID)
	assert.InDelta(t, 0.45, body.WeakPoint.Severity, 1e-9)
	assert.False(t, body.NeedsRemediation)

	rec = do(t, s, call{method: http.MethodPost, path: "/api/weak-points", body: gin.H{
		"conceptId": "ghost", "errorPatterns": []string{"a", "b"},
	}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWeakPointsRecordedForLearner(t *testing.T) {
	s := newTestServer(t, true)
	token := signup(t, s)

	rec := do(t, s, call{method: http.MethodPost, path: "/api/weak-points", token: token, body: gin.H{
		"conceptId": "loops", "errorPatterns": []string{"a", "b"}, "attempts": 5,
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Detected         bool `json:"detected"`
		NeedsRemediation bool `json:"needsRemediation"`
		WeakPoint        struct {
			ID       string  `json:"id"`
			Severity float64 `json:"severity"`
		} `json:"weakPoint"`
	}](t, rec)
	assert.True(t, body.Detected)
	assert.NotEmpty(t, body.WeakPoint.ID)
	assert.InDelta(t, 0.7, body.WeakPoint.Severity, 1e-9)
	assert.True(t, body.NeedsRemediation)

	rec = do(t, s, call{method: http.MethodGet, path: "/api/weak-points?conceptId=loops", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		WeakPoints []map[string]any `json:"weakPoints"`
	}](t, rec)
	assert.Len(t, list.WeakPoints, 1)
}

func TestAssessment(t *testing.T) {
	s := newTestServer(t, true)

	rec := do(t, s, call{method: http.MethodPost, path: "/api/assessment/analyze", body: gin.H{"responses": []any{}}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	answers := gin.H{"responses": []gin.H{
		{"questionId": "q1", "question": "Have you programmed before?", "responseText": "Never"},
	}}
	rec = do(t, s, call{method: http.MethodPost, path: "/api/assessment/analyze", body: answers})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analysis := decode[map[string]any](t, rec)
	assert.Equal(t, "beginner", analysis["overallLevel"])
	assert.Equal(t, "intro", analysis["startingConcept"])

	token := signup(t, s)
	rec = do(t, s, call{method: http.MethodPost, path: "/api/assessment/submit", token: token, body: answers})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	submitted := decode[struct {
		Success         bool        `json:"success"`
		StartingConcept string      `json:"startingConcept"`
		Roadmap         roadmapBody `json:"roadmap"`
	}](t, rec)
	assert.True(t, submitted.Success)
	assert.Equal(t, "intro", submitted.StartingConcept)
	assert.Len(t, submitted.Roadmap.Roadmap, 12)
}
