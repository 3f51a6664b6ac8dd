package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/ailp/internal/auth"
	"github.com/abhisek/ailp/internal/roadmap"
)

type roadmapResponse struct {
	Roadmap                []roadmap.Entry  `json:"roadmap"`
	Progress               roadmap.Progress `json:"progress"`
	NextRecommendedConcept *string          `json:"nextRecommendedConcept"`
	IsGuest                bool             `json:"isGuest,omitempty"`
	GuestID                string           `json:"guestId,omitempty"`
}

func newRoadmapResponse(rm roadmap.Roadmap) roadmapResponse {
	return roadmapResponse{
		Roadmap:                rm.Concepts,
		Progress:               rm.Progress(),
		NextRecommendedConcept: rm.NextRecommendedConcept,
	}
}

// getRoadmap serves the logged-in learner's stored roadmap. Anonymous
// callers get a roadmap derived from the conceptConfidence (JSON object)
// and completed (comma-separated IDs) query parameters.
func (s *Server) getRoadmap(c *gin.Context) {
	if u := currentUser(c); u != nil && s.caps.Learner != nil {
		rm, err := s.caps.Learner.Roadmap(c.Request.Context(), u.ID)
		if err != nil {
			s.fail(c, "generate roadmap", err)
			return
		}
		c.JSON(http.StatusOK, newRoadmapResponse(rm))
		return
	}

	conf := map[string]float64{}
	if raw := c.Query("conceptConfidence"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &conf); err != nil {
			s.log.Debug("ignoring malformed conceptConfidence", "error", err)
			conf = map[string]float64{}
		}
	}
	completed := map[string]bool{}
	for _, id := range strings.Split(c.Query("completed"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			completed[id] = true
		}
	}
	c.JSON(http.StatusOK, newRoadmapResponse(s.caps.Engine.Generate(conf, completed)))
}

type completeInRoadmapRequest struct {
	Roadmap struct {
		Concepts []roadmap.Entry `json:"concepts"`
	} `json:"roadmap"`
	CompletedConceptID string   `json:"completedConceptId" binding:"required"`
	FinalMastery       *float64 `json:"finalMastery"`
	FinalConfidence    *float64 `json:"finalConfidence"`
}

// completedRoadmapResponse has the GET shape plus the concepts and
// overallProgress fields older clients read.
type completedRoadmapResponse struct {
	roadmapResponse
	Concepts        []roadmap.Entry `json:"concepts"`
	OverallProgress float64         `json:"overallProgress"`
}

// completeInRoadmap applies a completion to a client-held roadmap and
// returns the updated roadmap. Nothing is stored.
func (s *Server) completeInRoadmap(c *gin.Context) {
	var req completeInRoadmapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request: roadmap and completedConceptId required")
		return
	}
	rm := s.caps.Engine.Reconcile(req.Roadmap.Concepts)
	rm = s.caps.Engine.Complete(rm, req.CompletedConceptID,
		valueOr(req.FinalMastery, 1), valueOr(req.FinalConfidence, 1))
	c.JSON(http.StatusOK, completedRoadmapResponse{
		roadmapResponse: newRoadmapResponse(rm),
		Concepts:        rm.Concepts,
		OverallProgress: rm.OverallProgress,
	})
}

// guestRoadmap serves the fresh-learner roadmap with a throwaway guest ID.
func (s *Server) guestRoadmap(c *gin.Context) {
	resp := newRoadmapResponse(s.caps.Engine.Generate(nil, nil))
	resp.IsGuest = true
	resp.GuestID = auth.GuestID()
	c.JSON(http.StatusOK, resp)
}
