package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/ailp/internal/conceptgraph"
	"github.com/abhisek/ailp/internal/mastery"
)

// LearnerProfile binds a user to one subject catalog.
type LearnerProfile struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Subject   string    `db:"subject"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ProfileRepo reads and creates learner profiles.
type ProfileRepo struct{ conn }

// GetOrCreate returns the profile for (userID, subject), creating it on
// first use. The bool reports whether a new profile was created.
func (r *ProfileRepo) GetOrCreate(ctx context.Context, userID, subject string) (*LearnerProfile, bool, error) {
	p, err := r.lookup(ctx, userID, subject)
	if err == nil {
		return p, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	now := time.Now().UTC()
	query, args := r.builder().Insert("learner_profiles").
		Columns("id", "user_id", "subject", "created_at", "updated_at").
		Values(uuid.NewString(), userID, subject, now, now).
		OnConflict(entsql.ConflictColumns("user_id", "subject"), entsql.DoNothing()).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return nil, false, fmt.Errorf("create profile: %w", err)
	}
	p, err = r.lookup(ctx, userID, subject)
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// Touch bumps the profile's update time.
func (r *ProfileRepo) Touch(ctx context.Context, id string, now time.Time) error {
	query, args := r.builder().Update("learner_profiles").
		Set("updated_at", now.UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("touch profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) lookup(ctx context.Context, userID, subject string) (*LearnerProfile, error) {
	b := r.builder()
	query, args := b.Select("id", "user_id", "subject", "created_at", "updated_at").
		From(b.Table("learner_profiles")).
		Where(entsql.And(entsql.EQ("user_id", userID), entsql.EQ("subject", subject))).
		Query()
	var p LearnerProfile
	if err := r.get(ctx, &p, query, args); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// masteryRow is the stored form of a mastery.Record.
type masteryRow struct {
	ProfileID       string     `db:"profile_id"`
	ConceptID       string     `db:"concept_id"`
	Mastery         float64    `db:"mastery_score"`
	Confidence      float64    `db:"confidence_score"`
	Status          string     `db:"status"`
	Attempts        int        `db:"attempts"`
	LastAttemptedAt *time.Time `db:"last_attempted_at"`
	CompletedAt     *time.Time `db:"completed_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (m masteryRow) record() mastery.Record {
	return mastery.Record{
		ConceptID:       m.ConceptID,
		Mastery:         m.Mastery,
		Confidence:      m.Confidence,
		Status:          conceptgraph.Status(m.Status),
		Attempts:        m.Attempts,
		LastAttemptedAt: m.LastAttemptedAt,
		CompletedAt:     m.CompletedAt,
	}
}

var masteryColumns = []string{
	"profile_id", "concept_id", "mastery_score", "confidence_score", "status",
	"attempts", "last_attempted_at", "completed_at", "updated_at",
}

// MasteryRepo stores per-concept mastery records.
type MasteryRepo struct{ conn }

// All returns every stored record of a profile.
func (r *MasteryRepo) All(ctx context.Context, profileID string) ([]mastery.Record, error) {
	b := r.builder()
	query, args := b.Select(masteryColumns...).
		From(b.Table("concept_mastery")).
		Where(entsql.EQ("profile_id", profileID)).
		OrderBy("concept_id").
		Query()
	var rows []masteryRow
	if err := r.selectAll(ctx, &rows, query, args); err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	out := make([]mastery.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}

// Get returns the stored record for one concept or ErrNotFound.
func (r *MasteryRepo) Get(ctx context.Context, profileID, conceptID string) (mastery.Record, error) {
	b := r.builder()
	query, args := b.Select(masteryColumns...).
		From(b.Table("concept_mastery")).
		Where(entsql.And(entsql.EQ("profile_id", profileID), entsql.EQ("concept_id", conceptID))).
		Query()
	var row masteryRow
	if err := r.get(ctx, &row, query, args); err != nil {
		return mastery.Record{}, fmt.Errorf("get mastery: %w", err)
	}
	return row.record(), nil
}

// Upsert writes records, replacing any stored row for the same concept.
func (r *MasteryRepo) Upsert(ctx context.Context, profileID string, records []mastery.Record) error {
	if len(records) == 0 {
		return nil
	}
	return r.insert(ctx, profileID, records, entsql.ResolveWithNewValues())
}

// Init writes records that are not stored yet and leaves existing rows alone.
func (r *MasteryRepo) Init(ctx context.Context, profileID string, records []mastery.Record) error {
	if len(records) == 0 {
		return nil
	}
	return r.insert(ctx, profileID, records, entsql.DoNothing())
}

func (r *MasteryRepo) insert(ctx context.Context, profileID string, records []mastery.Record, resolve entsql.ConflictOption) error {
	now := time.Now().UTC()
	ins := r.builder().Insert("concept_mastery").Columns(masteryColumns...)
	for _, rec := range records {
		ins.Values(
			profileID, rec.ConceptID, rec.Mastery, rec.Confidence, string(rec.Status),
			rec.Attempts, utcPtr(rec.LastAttemptedAt), utcPtr(rec.CompletedAt), now,
		)
	}
	query, args := ins.
		OnConflict(entsql.ConflictColumns("profile_id", "concept_id"), resolve).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("upsert mastery: %w", err)
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
