package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/ailp/internal/assessment"
	"github.com/abhisek/ailp/internal/learner"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/store"
)

type assessmentAnswer struct {
	QuestionID   string `json:"questionId"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	ResponseText string `json:"responseText"`
}

type assessmentRequest struct {
	Responses []assessmentAnswer `json:"responses" binding:"required,min=1"`
}

func (r assessmentRequest) responses() []assessment.Response {
	out := make([]assessment.Response, 0, len(r.Responses))
	for _, a := range r.Responses {
		answer := a.Answer
		if answer == "" {
			answer = a.ResponseText
		}
		out = append(out, assessment.Response{QuestionID: a.QuestionID, Question: a.Question, Answer: answer})
	}
	return out
}

func (s *Server) analyzeAssessment(c *gin.Context) {
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: responses array required")
		return
	}
	analysis, err := s.caps.Analyzer.Analyze(c.Request.Context(), req.responses())
	if err != nil {
		s.fail(c, "analyze assessment", err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) submitAssessment(c *gin.Context) {
	var req assessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: responses array required")
		return
	}
	p, err := s.caps.Learner.SubmitAssessment(c.Request.Context(), currentUser(c).ID, req.responses())
	if err != nil {
		s.fail(c, "submit assessment", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"analysis":          p.Analysis,
		"startingConcept":   p.Analysis.StartingConcept,
		"completedConcepts": p.Completed,
		"roadmap":           newRoadmapResponse(p.Roadmap),
	})
}

func (s *Server) startLesson(c *gin.Context) {
	l, err := s.caps.Learner.StartLesson(c.Request.Context(), currentUser(c).ID, c.Param("conceptId"))
	if err != nil {
		s.fail(c, "load concept", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"concept":   l.Concept,
		"status":    l.Status,
		"plan":      l.Plan,
		"content":   l.Content,
		"sessionId": l.Session.ID,
	})
}

type completeRequest struct {
	SessionID       string   `json:"sessionId"`
	FinalMastery    *float64 `json:"finalMastery"`
	FinalConfidence *float64 `json:"finalConfidence"`
}

func (s *Server) completeConcept(c *gin.Context) {
	var req completeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	done, err := s.caps.Learner.CompleteConcept(c.Request.Context(), currentUser(c).ID, c.Param("conceptId"),
		valueOr(req.FinalMastery, 1), valueOr(req.FinalConfidence, 1))
	if err != nil {
		s.fail(c, "complete concept", err)
		return
	}
	next := make([]string, 0, len(done.NextConcepts))
	for _, nc := range done.NextConcepts {
		next = append(next, nc.ID)
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"nextConcepts": next,
		"roadmap":      newRoadmapResponse(done.Roadmap),
	})
}

type checkpointRequest struct {
	SessionID       string `json:"sessionId"`
	CheckpointIndex *int   `json:"checkpointIndex" binding:"required"`
	ResponseText    string `json:"responseText" binding:"required"`
	Question        string `json:"question"`
}

func (s *Server) submitCheckpoint(c *gin.Context) {
	var req checkpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: checkpointIndex and responseText required")
		return
	}
	out, err := s.caps.Learner.SubmitCheckpoint(c.Request.Context(), currentUser(c).ID, c.Param("conceptId"),
		learner.CheckpointAnswer{
			CheckpointIndex: *req.CheckpointIndex,
			Question:        req.Question,
			Response:        req.ResponseText,
		})
	if err != nil {
		s.fail(c, "process checkpoint", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"feedback": out.Feedback,
		"analysis": out,
	})
}

type weakPointRequest struct {
	ConceptID     string   `json:"conceptId" binding:"required"`
	ErrorPatterns []string `json:"errorPatterns" binding:"required"`
	Attempts      *int     `json:"attempts"`
}

// reportWeakPoint classifies a learner's error pattern. Logged-in learners
// get the weak point recorded against their profile.
func (s *Server) reportWeakPoint(c *gin.Context) {
	var req weakPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: conceptId and errorPatterns array required")
		return
	}
	detect := remediation.DetectRequest{
		ConceptID:     req.ConceptID,
		ErrorPatterns: req.ErrorPatterns,
		Attempts:      len(req.ErrorPatterns),
	}
	if req.Attempts != nil {
		detect.Attempts = *req.Attempts
	}

	var (
		wp        any
		remediate bool
	)
	if u := currentUser(c); u != nil && s.caps.Learner != nil {
		out, err := s.caps.Learner.ReportWeakPoint(c.Request.Context(), u.ID, detect)
		if err != nil {
			s.fail(c, "detect weak points", err)
			return
		}
		if out.WeakPoint != nil {
			wp, remediate = out.WeakPoint, out.Remediate
		}
	} else {
		found, err := s.caps.Detector.Detect(c.Request.Context(), detect)
		if err != nil {
			s.fail(c, "detect weak points", err)
			return
		}
		if found != nil {
			wp, remediate = found, s.caps.Policy.ShouldRemediate(*found)
		}
	}

	if wp == nil {
		c.JSON(http.StatusOK, gin.H{"detected": false, "message": "No weak points detected yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"detected": true, "weakPoint": wp, "needsRemediation": remediate})
}

func (s *Server) listWeakPoints(c *gin.Context) {
	wps, err := s.caps.Learner.WeakPoints(c.Request.Context(), currentUser(c).ID, c.Query("conceptId"))
	if err != nil {
		s.fail(c, "list weak points", err)
		return
	}
	if wps == nil {
		wps = []store.StoredWeakPoint{}
	}
	c.JSON(http.StatusOK, gin.H{"weakPoints": wps})
}

func (s *Server) masteryEvents(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		respondError(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	events, err := s.caps.Learner.MasteryEvents(c.Request.Context(), currentUser(c).ID, limit)
	if err != nil {
		s.fail(c, "load mastery events", err)
		return
	}
	if events == nil {
		events = []store.MasteryEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
