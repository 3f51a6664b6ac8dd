package learner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/ailp/internal/assessment"
	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/logger"
	"github.com/abhisek/ailp/internal/mastery"
	"github.com/abhisek/ailp/internal/remediation"
	"github.com/abhisek/ailp/internal/roadmap"
	"github.com/abhisek/ailp/internal/store"
	"github.com/abhisek/ailp/internal/teaching"
)

var (
	// ErrLocked is returned when a learner opens a concept whose
	// prerequisites are not met.
	ErrLocked = errors.New("concept is locked")

	// ErrCheckpointIndex is returned for a negative checkpoint index.
	ErrCheckpointIndex = errors.New("checkpoint index out of range")
)

// Service applies learner actions to stored profiles. Each call loads the
// profile, runs the engine and writes the result back in one transaction,
// holding a per-learner lock so concurrent requests for the same learner
// cannot interleave. LLM calls happen outside the transaction.
type Service struct {
	store  *store.Store
	engine *roadmap.Engine
	policy remediation.Policy
	log    *logger.Logger

	analyzer    *assessment.Analyzer
	content     *teaching.ContentGenerator
	checkpoints *teaching.CheckpointAnalyzer
	detector    *remediation.Detector

	locks keyedMutex
	now   func() time.Time
}

// Options tunes the collaborators built by New.
type Options struct {
	Policy     remediation.Policy
	Assessment assessment.AnalyzerConfig
	Teaching   teaching.Config
	Checkpoint teaching.CheckpointConfig
	Detector   remediation.DetectorConfig
}

// DefaultOptions returns the default collaborator settings.
func DefaultOptions() Options {
	return Options{
		Policy:     remediation.DefaultPolicy(),
		Assessment: assessment.DefaultAnalyzerConfig(),
		Teaching:   teaching.DefaultConfig(),
		Checkpoint: teaching.DefaultCheckpointConfig(),
		Detector:   remediation.DefaultDetectorConfig(),
	}
}

// New creates a Service. A nil provider runs every LLM collaborator on its
// fallback path.
func New(st *store.Store, engine *roadmap.Engine, provider llm.Provider, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	g := engine.Graph()
	return &Service{
		store:       st,
		engine:      engine,
		policy:      opts.Policy,
		log:         log.With("service", "learner"),
		analyzer:    assessment.NewAnalyzer(provider, g, opts.Assessment),
		content:     teaching.NewContentGenerator(provider, opts.Teaching),
		checkpoints: teaching.NewCheckpointAnalyzer(provider, opts.Checkpoint),
		detector:    remediation.NewDetector(provider, g, opts.Detector),
		now:         time.Now,
	}
}

// Engine returns the roadmap engine.
func (s *Service) Engine() *roadmap.Engine {
	return s.engine
}

// session is the state loaded for one learner inside a transaction.
type session struct {
	tx          *store.Tx
	profile     *store.LearnerProfile
	mastery     *mastery.Profile
	transitions []mastery.Transition
}

// withLearner runs fn under the learner's lock inside a transaction, then
// persists every changed mastery record and transition.
func (s *Service) withLearner(ctx context.Context, userID string, fn func(ls *session) error) error {
	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.store.InTx(ctx, func(tx *store.Tx) error {
		lp, created, err := tx.Profiles().GetOrCreate(ctx, userID, s.engine.Graph().Subject())
		if err != nil {
			return err
		}
		if created {
			defaults := mastery.NewProfile(s.engine.Graph(), lp.ID, userID, nil).Records()
			if err := tx.Masteries().Init(ctx, lp.ID, defaults); err != nil {
				return err
			}
		}
		records, err := tx.Masteries().All(ctx, lp.ID)
		if err != nil {
			return err
		}
		ls := &session{
			tx:      tx,
			profile: lp,
			mastery: mastery.NewProfile(s.engine.Graph(), lp.ID, userID, records),
		}
		if err := fn(ls); err != nil {
			return err
		}

		if dirty := ls.mastery.Dirty(); len(dirty) > 0 {
			if err := tx.Masteries().Upsert(ctx, lp.ID, dirty); err != nil {
				return err
			}
			if err := tx.Profiles().Touch(ctx, lp.ID, s.now()); err != nil {
				return err
			}
		}
		if err := tx.Events().AppendMasteryTransitions(ctx, lp.ID, ls.transitions); err != nil {
			return err
		}
		for _, t := range ls.transitions {
			s.log.Debug("concept status changed",
				"profile_id", lp.ID, "concept_id", t.ConceptID,
				"from", t.From, "to", t.To, "trigger", t.Trigger)
		}
		ls.mastery.ClearDirty()
		return nil
	})
}

// derive recomputes the roadmap from the profile and persists the derived
// statuses.
func (s *Service) derive(ls *session) roadmap.Roadmap {
	rm := s.engine.FromProfile(ls.mastery)
	ls.transitions = append(ls.transitions, ls.mastery.ApplyStatuses(statuses(rm))...)
	return rm
}

func statuses(rm roadmap.Roadmap) map[string]conceptgraph.Status {
	out := make(map[string]conceptgraph.Status, len(rm.Concepts))
	for _, e := range rm.Concepts {
		out[e.ID] = e.Status
	}
	return out
}

// Roadmap returns the learner's current roadmap.
func (s *Service) Roadmap(ctx context.Context, userID string) (roadmap.Roadmap, error) {
	var rm roadmap.Roadmap
	err := s.withLearner(ctx, userID, func(ls *session) error {
		rm = s.derive(ls)
		return nil
	})
	if err != nil {
		return roadmap.Roadmap{}, fmt.Errorf("load roadmap: %w", err)
	}
	return rm, nil
}

// MasteryEvents returns the learner's recent status transitions.
func (s *Service) MasteryEvents(ctx context.Context, userID string, limit int) ([]store.MasteryEvent, error) {
	lp, _, err := s.store.Profiles().GetOrCreate(ctx, userID, s.engine.Graph().Subject())
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return s.store.Events().MasteryEvents(ctx, lp.ID, store.QueryOpts{Limit: limit})
}

// AssessmentThreshold is how many answered diagnostic questions count as a
// completed placement assessment.
const AssessmentThreshold = 3

// HasCompletedAssessment reports whether the learner has answered enough
// diagnostic questions to skip the placement assessment.
func (s *Service) HasCompletedAssessment(ctx context.Context, userID string) (bool, error) {
	lp, _, err := s.store.Profiles().GetOrCreate(ctx, userID, s.engine.Graph().Subject())
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	n, err := s.store.Assessments().Count(ctx, lp.ID)
	if err != nil {
		return false, fmt.Errorf("count assessment responses: %w", err)
	}
	return n >= AssessmentThreshold, nil
}
