package learner

import (
	"context"
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/abhisek/ailp/internal/assessment"
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/roadmap"
	"github.com/abhisek/ailp/internal/store"
	"github.com/abhisek/ailp/internal/teaching"
)

// Completion is the outcome of finishing a concept.
type Completion struct {
	Roadmap      roadmap.Roadmap        `json:"roadmap"`
	NextConcepts []conceptgraph.Concept `json:"nextConcepts"`
	Transitions  []mastery.Transition   `json:"-"`
}

// CompleteConcept marks conceptID completed with the final scores, unlocks
// its dependents and closes the open learning session. Completing a concept
// again updates its scores and changes nothing else.
func (s *Service) CompleteConcept(ctx context.Context, userID, conceptID string, finalMastery, finalConfidence float64) (Completion, error) {
	g := s.engine.Graph()
	if _, err := g.Lookup(conceptID); err != nil {
		return Completion{}, err
	}

	var out Completion
	err := s.withLearner(ctx, userID, func(ls *session) error {
		now := s.now()
		rm := s.engine.Complete(s.engine.FromProfile(ls.mastery), conceptID, finalMastery, finalConfidence)
		if t, _ := ls.mastery.Complete(conceptID, finalMastery, finalConfidence, now); t != nil {
			ls.transitions = append(ls.transitions, *t)
		}
		ls.transitions = append(ls.transitions, ls.mastery.ApplyStatuses(statuses(rm))...)

		open, err := ls.tx.LearningSessions().Open(ctx, ls.profile.ID, conceptID)
		switch {
		case err == nil:
			open.SectionsCompleted = open.SectionsTotal
			open.CompletedAt = &now
			if err := ls.tx.LearningSessions().Update(ctx, open); err != nil {
				return err
			}
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := ls.tx.WeakPoints().MarkRemediated(ctx, ls.profile.ID, conceptID, now); err != nil {
			return err
		}

		out.Roadmap = rm
		out.NextConcepts = g.Available(ls.mastery.CompletedIDs())
		out.Transitions = ls.transitions
		return nil
	})
	if err != nil {
		return Completion{}, fmt.Errorf("complete %s: %w", conceptID, err)
	}
	s.log.Info("concept completed", "user_id", userID, "concept_id", conceptID,
		"progress", out.Roadmap.Progress().Percent)
	return out, nil
}

// AnalyzeAssessment scores responses without touching the learner's profile.
func (s *Service) AnalyzeAssessment(ctx context.Context, responses []assessment.Response) (assessment.Analysis, error) {
	return s.analyzer.Analyze(ctx, responses)
}

// Placement is the outcome of a submitted assessment.
type Placement struct {
	Analysis  assessment.Analysis `json:"analysis"`
	Completed []string            `json:"completedConcepts"`
	Roadmap   roadmap.Roadmap     `json:"roadmap"`
}

// SubmitAssessment analyzes responses and seeds the learner's profile from
// the result: concepts before the starting concept are credited as
// completed, every other concept takes the assessed confidence, and assessed
// weak points are recorded. Completed concepts are never reverted.
func (s *Service) SubmitAssessment(ctx context.Context, userID string, responses []assessment.Response) (Placement, error) {
	analysis, err := s.analyzer.Analyze(ctx, responses)
	if err != nil {
		return Placement{}, err
	}
	g := s.engine.Graph()
	completed := assessment.Placement(g, analysis)

	var out Placement
	err = s.withLearner(ctx, userID, func(ls *session) error {
		ls.transitions = append(ls.transitions,
			ls.mastery.Seed(analysis.ConceptConfidence, completed, s.engine.Thresholds().MasteryRatio, s.now())...)
		rm := s.derive(ls)

		if err := ls.tx.Assessments().Save(ctx, ls.profile.ID, responses, analysis); err != nil {
			return err
		}
		for _, id := range analysis.WeakPoints {
			wp := remediation.WeakPoint{
				ConceptID: id,
				Type:      remediation.TypeConceptual,
				Severity:  remediation.DefaultSeverity,
				RootCause: "Identified during the diagnostic assessment",
				Source:    "assessment",
			}.Normalize(g)
			if _, err := ls.tx.WeakPoints().Save(ctx, ls.profile.ID, wp); err != nil {
				return err
			}
		}
		out = Placement{Analysis: analysis, Completed: completed, Roadmap: rm}
		return nil
	})
	if err != nil {
		return Placement{}, fmt.Errorf("submit assessment: %w", err)
	}
	s.log.Info("assessment submitted", "user_id", userID, "level", analysis.OverallLevel,
		"starting_concept", analysis.StartingConcept, "source", analysis.Source)
	return out, nil
}

// Lesson is a started or resumed lesson.
type Lesson struct {
	Concept conceptgraph.Concept   `json:"concept"`
	Status  conceptgraph.Status    `json:"status"`
	Plan    teaching.LessonPlan    `json:"plan"`
	Content teaching.Lesson        `json:"content"`
	Session *store.LearningSession `json:"session"`
}

// StartLesson plans and generates a lesson for conceptID, reusing the
// learner's open learning session for it when there is one. Locked
// concepts report ErrLocked.
func (s *Service) StartLesson(ctx context.Context, userID, conceptID string) (Lesson, error) {
	c, err := s.engine.Graph().Lookup(conceptID)
	if err != nil {
		return Lesson{}, err
	}

	var (
		out   Lesson
		state teaching.LearnerState
	)
	err = s.withLearner(ctx, userID, func(ls *session) error {
		rec, err := ls.tx.Masteries().Get(ctx, ls.profile.ID, conceptID)
		if errors.Is(err, store.ErrNotFound) {
			def, _ := ls.mastery.Record(conceptID)
			rec = *def
		} else if err != nil {
			return err
		}
		completed := ls.mastery.CompletedIDs()
		if rec.Status == conceptgraph.StatusLocked &&
			!s.engine.CanUnlock(conceptID, completed, ls.mastery.Confidence()) {
			return ErrLocked
		}
		s.derive(ls)

		state = teaching.LearnerState{Mastery: rec.Mastery, Confidence: rec.Confidence}
		out.Plan = teaching.Plan(c, state)
		out.Status = rec.Status

		sess, err := s.openSession(ctx, ls, conceptID, len(out.Plan.Sections))
		if err != nil {
			return err
		}
		out.Session = sess
		return nil
	})
	if err != nil {
		return Lesson{}, fmt.Errorf("start lesson %s: %w", conceptID, err)
	}

	out.Concept = c
	out.Content = s.content.Generate(ctx, c, out.Plan, learnerContext(state))
	return out, nil
}

func (s *Service) openSession(ctx context.Context, ls *session, conceptID string, sections int) (*store.LearningSession, error) {
	open, err := ls.tx.LearningSessions().Open(ctx, ls.profile.ID, conceptID)
	if err == nil {
		return open, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	sess := &store.LearningSession{
		ProfileID:     ls.profile.ID,
		ConceptID:     conceptID,
		SectionsTotal: sections,
		StartedAt:     s.now().UTC(),
	}
	if err := ls.tx.LearningSessions().Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func learnerContext(st teaching.LearnerState) string {
	switch {
	case st.Mastery == 0 && st.Confidence == 0:
		return "The learner has not studied this concept yet."
	case st.Confidence < 0.3:
		return fmt.Sprintf("The learner has seen this concept before but is unsure (confidence %.0f%%).", st.Confidence*100)
	default:
		return fmt.Sprintf("The learner has partial mastery (%.0f%%) and is building confidence.", st.Mastery*100)
	}
}

// CheckpointAnswer is a learner's answer to a lesson checkpoint.
type CheckpointAnswer struct {
	CheckpointIndex int
	Question        string
	Response        string
}

// CheckpointOutcome reports one scored checkpoint and the remediation
// decision over all of the concept's checkpoint scores so far.
type CheckpointOutcome struct {
	teaching.CheckpointResult
	Remediate         bool    `json:"remediate"`
	MeanUnderstanding float64 `json:"meanUnderstanding"`
	SectionsCompleted int     `json:"sectionsCompleted"`
}

// SubmitCheckpoint scores an answer, records it against the open learning
// session and recomputes the concept's mastery from its checkpoint scores.
func (s *Service) SubmitCheckpoint(ctx context.Context, userID, conceptID string, ans CheckpointAnswer) (CheckpointOutcome, error) {
	c, err := s.engine.Graph().Lookup(conceptID)
	if err != nil {
		return CheckpointOutcome{}, err
	}
	if ans.CheckpointIndex < 0 {
		return CheckpointOutcome{}, ErrCheckpointIndex
	}

	result := s.checkpoints.Analyze(ctx, teaching.CheckpointInput{
		Concept:  c,
		Question: ans.Question,
		Response: ans.Response,
	})

	var out CheckpointOutcome
	err = s.withLearner(ctx, userID, func(ls *session) error {
		rec, _ := ls.mastery.Record(conceptID)
		plan := teaching.Plan(c, teaching.LearnerState{Mastery: rec.Mastery, Confidence: rec.Confidence})

		sess, err := s.openSession(ctx, ls, conceptID, len(plan.Sections))
		if err != nil {
			return err
		}
		if err := ls.tx.Checkpoints().Save(ctx, &store.CheckpointResponse{
			SessionID:          sess.ID,
			ProfileID:          ls.profile.ID,
			ConceptID:          conceptID,
			CheckpointIndex:    ans.CheckpointIndex,
			Question:           ans.Question,
			Response:           ans.Response,
			UnderstandingScore: result.UnderstandingScore,
			Feedback:           result.Feedback,
		}); err != nil {
			return err
		}

		scores, err := ls.tx.Checkpoints().Scores(ctx, ls.profile.ID, conceptID)
		if err != nil {
			return err
		}
		ls.mastery.RecordAttempt(conceptID, scores, s.now())

		sess.SectionsCompleted = min(max(sess.SectionsCompleted, ans.CheckpointIndex+1), sess.SectionsTotal)
		if err := ls.tx.LearningSessions().Update(ctx, sess); err != nil {
			return err
		}

		out = CheckpointOutcome{
			CheckpointResult:  result,
			Remediate:         s.policy.ShouldRemediateScores(scores, c.Difficulty),
			MeanUnderstanding: mean(scores),
			SectionsCompleted: sess.SectionsCompleted,
		}
		return nil
	})
	if err != nil {
		return CheckpointOutcome{}, fmt.Errorf("submit checkpoint %s: %w", conceptID, err)
	}
	return out, nil
}

// WeakPointOutcome is the result of analyzing a learner's error pattern.
type WeakPointOutcome struct {
	WeakPoint *store.StoredWeakPoint `json:"weakPoint"`
	Remediate bool                   `json:"shouldRemediate"`
}

// ReportWeakPoint classifies a learner's repeated errors on a concept and
// records the weak point. Too little evidence yields an empty outcome.
func (s *Service) ReportWeakPoint(ctx context.Context, userID string, req remediation.DetectRequest) (WeakPointOutcome, error) {
	wp, err := s.detector.Detect(ctx, req)
	if err != nil {
		return WeakPointOutcome{}, err
	}
	if wp == nil {
		return WeakPointOutcome{}, nil
	}

	var out WeakPointOutcome
	err = s.withLearner(ctx, userID, func(ls *session) error {
		stored, err := ls.tx.WeakPoints().Save(ctx, ls.profile.ID, *wp)
		if err != nil {
			return err
		}
		out = WeakPointOutcome{WeakPoint: stored, Remediate: s.policy.ShouldRemediate(*wp)}
		return nil
	})
	if err != nil {
		return WeakPointOutcome{}, fmt.Errorf("report weak point: %w", err)
	}
	s.log.Info("weak point recorded", "user_id", userID, "concept_id", wp.ConceptID,
		"type", wp.Type, "severity", wp.Severity, "remediate", out.Remediate)
	return out, nil
}

// WeakPoints lists the learner's open weak points. An empty conceptID lists
// every concept.
func (s *Service) WeakPoints(ctx context.Context, userID, conceptID string) ([]store.StoredWeakPoint, error) {
	var out []store.StoredWeakPoint
	err := s.withLearner(ctx, userID, func(ls *session) error {
		var err error
		out, err = ls.tx.WeakPoints().ListOpen(ctx, ls.profile.ID, conceptID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list weak points: %w", err)
	}
	return out, nil
}

func mean(scores []float64) float64 {
	m, err := stats.Mean(scores)
	if err != nil {
		return 0
	}
	return m
}
