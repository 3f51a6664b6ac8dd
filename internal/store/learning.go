package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// LearningSession tracks one pass through a concept's lesson plan.
type LearningSession struct {
	ID                string     `db:"id" json:"id"`
	ProfileID         string     `db:"profile_id" json:"-"`
	ConceptID         string     `db:"concept_id" json:"conceptId"`
	SectionsTotal     int        `db:"sections_total" json:"sectionsTotal"`
	SectionsCompleted int        `db:"sections_completed" json:"sectionsCompleted"`
	StartedAt         time.Time  `db:"started_at" json:"startedAt"`
	CompletedAt       *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

var learningSessionColumns = []string{
	"id", "profile_id", "concept_id", "sections_total", "sections_completed", "started_at", "completed_at",
}

// LearningSessionRepo persists learning sessions.
type LearningSessionRepo struct{ conn }

// Create inserts ls, assigning an ID and start time when unset.
func (r *LearningSessionRepo) Create(ctx context.Context, ls *LearningSession) error {
	if ls.ID == "" {
		ls.ID = uuid.NewString()
	}
	if ls.StartedAt.IsZero() {
		ls.StartedAt = time.Now().UTC()
	}
	query, args := r.builder().Insert("learning_sessions").
		Columns(learningSessionColumns...).
		Values(ls.ID, ls.ProfileID, ls.ConceptID, ls.SectionsTotal, ls.SectionsCompleted,
			ls.StartedAt.UTC(), utcPtr(ls.CompletedAt)).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("create learning session: %w", err)
	}
	return nil
}

// Get returns a session by ID or ErrNotFound.
func (r *LearningSessionRepo) Get(ctx context.Context, id string) (*LearningSession, error) {
	return r.one(ctx, entsql.EQ("id", id))
}

// Open returns the profile's unfinished session for a concept, the most
// recently started one when there are several, or ErrNotFound.
func (r *LearningSessionRepo) Open(ctx context.Context, profileID, conceptID string) (*LearningSession, error) {
	return r.one(ctx, entsql.And(
		entsql.EQ("profile_id", profileID),
		entsql.EQ("concept_id", conceptID),
		entsql.IsNull("completed_at"),
	))
}

// Update writes the progress fields of ls.
func (r *LearningSessionRepo) Update(ctx context.Context, ls *LearningSession) error {
	query, args := r.builder().Update("learning_sessions").
		Set("sections_completed", ls.SectionsCompleted).
		Set("completed_at", utcPtr(ls.CompletedAt)).
		Where(entsql.EQ("id", ls.ID)).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("update learning session: %w", err)
	}
	return nil
}

func (r *LearningSessionRepo) one(ctx context.Context, pred *entsql.Predicate) (*LearningSession, error) {
	b := r.builder()
	query, args := b.Select(learningSessionColumns...).
		From(b.Table("learning_sessions")).
		Where(pred).
		OrderBy(entsql.Desc("started_at")).
		Limit(1).
		Query()
	var ls LearningSession
	if err := r.get(ctx, &ls, query, args); err != nil {
		return nil, fmt.Errorf("get learning session: %w", err)
	}
	return &ls, nil
}

// CheckpointResponse is a learner's answer to one in-lesson checkpoint.
type CheckpointResponse struct {
	ID                 string    `db:"id"`
	SessionID          string    `db:"session_id"`
	ProfileID          string    `db:"profile_id"`
	ConceptID          string    `db:"concept_id"`
	CheckpointIndex    int       `db:"checkpoint_index"`
	Question           string    `db:"question"`
	Response           string    `db:"response_text"`
	UnderstandingScore float64   `db:"understanding_score"`
	Feedback           string    `db:"feedback"`
	CreatedAt          time.Time `db:"created_at"`
}

// CheckpointRepo persists checkpoint responses.
type CheckpointRepo struct{ conn }

// Save inserts cr, assigning an ID and creation time when unset.
func (r *CheckpointRepo) Save(ctx context.Context, cr *CheckpointResponse) error {
	if cr.ID == "" {
		cr.ID = uuid.NewString()
	}
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now().UTC()
	}
	query, args := r.builder().Insert("checkpoint_responses").
		Columns("id", "session_id", "profile_id", "concept_id", "checkpoint_index",
			"question", "response_text", "understanding_score", "feedback", "created_at").
		Values(cr.ID, cr.SessionID, cr.ProfileID, cr.ConceptID, cr.CheckpointIndex,
			cr.Question, cr.Response, cr.UnderstandingScore, cr.Feedback, cr.CreatedAt.UTC()).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Scores returns every understanding score a profile has recorded for a
// concept, oldest first.
func (r *CheckpointRepo) Scores(ctx context.Context, profileID, conceptID string) ([]float64, error) {
	b := r.builder()
	query, args := b.Select("understanding_score").
		From(b.Table("checkpoint_responses")).
		Where(entsql.And(entsql.EQ("profile_id", profileID), entsql.EQ("concept_id", conceptID))).
		OrderBy("created_at").
		Query()
	var scores []float64
	if err := r.selectAll(ctx, &scores, query, args); err != nil {
		return nil, fmt.Errorf("list checkpoint scores: %w", err)
	}
	return scores, nil
}
