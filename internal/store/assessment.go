package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/abhisek/ailp/internal/assessment"
)

// AssessmentRepo persists diagnostic assessment responses.
type AssessmentRepo struct{ conn }

// Save stores each response together with the analysis it produced.
func (r *AssessmentRepo) Save(ctx context.Context, profileID string, responses []assessment.Response, a assessment.Analysis) error {
	if len(responses) == 0 {
		return nil
	}
	analysis, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	now := time.Now().UTC()
	ins := r.builder().Insert("assessment_responses").
		Columns("id", "profile_id", "question_id", "response_text", "analysis", "created_at")
	for i, resp := range responses {
		qid := resp.QuestionID
		if qid == "" {
			qid = fmt.Sprintf("q%d", i+1)
		}
		ins.Values(uuid.NewString(), profileID, qid, resp.Answer, string(analysis), now)
	}
	query, args := ins.Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

// Count returns how many assessment responses a profile has stored.
func (r *AssessmentRepo) Count(ctx context.Context, profileID string) (int, error) {
	var n int
	query, args := r.builder().Select(entsql.Count("*")).
		From(r.builder().Table("assessment_responses")).
		Where(entsql.EQ("profile_id", profileID)).
		Query()
	if err := r.get(ctx, &n, query, args); err != nil {
		return 0, fmt.Errorf("count assessments: %w", err)
	}
	return n, nil
}
