package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/ailp/internal/remediation"
)

// StoredWeakPoint is a weak point recorded against a profile.
type StoredWeakPoint struct {
	ID           string     `json:"id"`
	ProfileID    string     `json:"-"`
	DetectedAt   time.Time  `json:"detectedAt"`
	RemediatedAt *time.Time `json:"remediatedAt,omitempty"`
	remediation.WeakPoint
}

type weakPointRow struct {
	ID              string     `db:"id"`
	ProfileID       string     `db:"profile_id"`
	ConceptID       string     `db:"concept_id"`
	Type            string     `db:"type"`
	Severity        float64    `db:"severity"`
	RootCause       string     `db:"root_cause"`
	RelatedConcepts string     `db:"related_concepts"`
	Source          string     `db:"source"`
	DetectedAt      time.Time  `db:"detected_at"`
	RemediatedAt    *time.Time `db:"remediated_at"`
}

var weakPointColumns = []string{
	"id", "profile_id", "concept_id", "type", "severity", "root_cause",
	"related_concepts", "source", "detected_at", "remediated_at",
}

// WeakPointRepo persists detected weak points.
type WeakPointRepo struct{ conn }

// Save records wp for a profile and returns the stored form.
func (r *WeakPointRepo) Save(ctx context.Context, profileID string, wp remediation.WeakPoint) (*StoredWeakPoint, error) {
	related := wp.RelatedConcepts
	if related == nil {
		related = []string{}
	}
	relatedJSON, err := json.Marshal(related)
	if err != nil {
		return nil, fmt.Errorf("marshal related concepts: %w", err)
	}
	s := &StoredWeakPoint{
		ID:         uuid.NewString(),
		ProfileID:  profileID,
		DetectedAt: time.Now().UTC(),
		WeakPoint:  wp,
	}
	query, args := r.builder().Insert("weak_points").
		Columns(weakPointColumns...).
		Values(s.ID, profileID, wp.ConceptID, string(wp.Type), wp.Severity, wp.RootCause,
			string(relatedJSON), wp.Source, s.DetectedAt, nil).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return nil, fmt.Errorf("save weak point: %w", err)
	}
	return s, nil
}

// ListOpen returns the profile's unremediated weak points, newest first.
// An empty conceptID lists every concept.
func (r *WeakPointRepo) ListOpen(ctx context.Context, profileID, conceptID string) ([]StoredWeakPoint, error) {
	preds := []*entsql.Predicate{
		entsql.EQ("profile_id", profileID),
		entsql.IsNull("remediated_at"),
	}
	if conceptID != "" {
		preds = append(preds, entsql.EQ("concept_id", conceptID))
	}
	b := r.builder()
	query, args := b.Select(weakPointColumns...).
		From(b.Table("weak_points")).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("detected_at")).
		Query()
	var rows []weakPointRow
	if err := r.selectAll(ctx, &rows, query, args); err != nil {
		return nil, fmt.Errorf("list weak points: %w", err)
	}
	out := make([]StoredWeakPoint, 0, len(rows))
	for _, row := range rows {
		var related []string
		if err := json.Unmarshal([]byte(row.RelatedConcepts), &related); err != nil {
			return nil, fmt.Errorf("decode related concepts of %s: %w", row.ID, err)
		}
		out = append(out, StoredWeakPoint{
			ID:           row.ID,
			ProfileID:    row.ProfileID,
			DetectedAt:   row.DetectedAt,
			RemediatedAt: row.RemediatedAt,
			WeakPoint: remediation.WeakPoint{
				ConceptID:       row.ConceptID,
				Type:            remediation.Type(row.Type),
				Severity:        row.Severity,
				RootCause:       row.RootCause,
				RelatedConcepts: related,
				Source:          row.Source,
			},
		})
	}
	return out, nil
}

// MarkRemediated closes every open weak point of a profile on a concept.
func (r *WeakPointRepo) MarkRemediated(ctx context.Context, profileID, conceptID string, now time.Time) error {
	query, args := r.builder().Update("weak_points").
		Set("remediated_at", now.UTC()).
		Where(entsql.And(
			entsql.EQ("profile_id", profileID),
			entsql.EQ("concept_id", conceptID),
			entsql.IsNull("remediated_at"),
		)).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("mark weak points remediated: %w", err)
	}
	return nil
}
