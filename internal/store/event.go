package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/ailp/internal/llm"
	"github.com/abhisek/ailp/internal/mastery"
)

// QueryOpts filters and pages event queries. Zero values disable a filter.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	Sequence     int64     `db:"sequence"`
	Timestamp    time.Time `db:"timestamp"`
	Provider     string    `db:"provider"`
	Model        string    `db:"model"`
	Purpose      string    `db:"purpose"`
	InputTokens  int       `db:"input_tokens"`
	OutputTokens int       `db:"output_tokens"`
	LatencyMs    int64     `db:"latency_ms"`
	Success      bool      `db:"success"`
	ErrorMessage string    `db:"error_message"`
	CostUSD      float64   `db:"cost_usd"`
	RequestBody  string    `db:"request_body"`
	ResponseBody string    `db:"response_body"`
}

// MasteryEvent is a stored concept status transition.
type MasteryEvent struct {
	Sequence   int64     `db:"sequence" json:"sequence"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	ProfileID  string    `db:"profile_id" json:"-"`
	ConceptID  string    `db:"concept_id" json:"conceptId"`
	FromStatus string    `db:"from_status" json:"from"`
	ToStatus   string    `db:"to_status" json:"to"`
	Trigger    string    `db:"trigger" json:"trigger"`
}

// Usage aggregates LLM calls under one key, a purpose or a model.
type Usage struct {
	Key          string  `db:"key"`
	Calls        int     `db:"calls"`
	InputTokens  int     `db:"input_tokens"`
	OutputTokens int     `db:"output_tokens"`
	AvgLatencyMs float64 `db:"avg_latency_ms"`
	CostUSD      float64 `db:"cost_usd"`
}

var llmEventColumns = []string{
	"sequence", "timestamp", "provider", "model", "purpose", "input_tokens", "output_tokens",
	"latency_ms", "success", "error_message", "cost_usd", "request_body", "response_body",
}

// EventRepo appends and queries the event log. Every event takes its
// sequence from the global counter.
type EventRepo struct{ conn }

var _ llm.EventRecorder = (*EventRepo)(nil)

// AppendLLMRequest records an LLM API call.
func (r *EventRepo) AppendLLMRequest(ctx context.Context, e llm.RequestEvent) error {
	seq, err := nextSequence(ctx, r.q)
	if err != nil {
		return err
	}
	query, args := r.builder().Insert("llm_request_events").
		Columns(llmEventColumns...).
		Values(seq, time.Now().UTC(), e.Provider, e.Model, e.Purpose, e.InputTokens, e.OutputTokens,
			e.LatencyMs, e.Success, e.ErrorMessage, e.CostUSD, e.RequestBody, e.ResponseBody).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

// AppendMasteryTransitions records status transitions of one profile in order.
func (r *EventRepo) AppendMasteryTransitions(ctx context.Context, profileID string, ts []mastery.Transition) error {
	now := time.Now().UTC()
	for _, t := range ts {
		seq, err := nextSequence(ctx, r.q)
		if err != nil {
			return err
		}
		query, args := r.builder().Insert("mastery_events").
			Columns("sequence", "timestamp", "profile_id", "concept_id", "from_status", "to_status", "trigger").
			Values(seq, now, profileID, t.ConceptID, string(t.From), string(t.To), t.Trigger).
			Query()
		if err := r.exec(ctx, query, args); err != nil {
			return fmt.Errorf("save mastery event: %w", err)
		}
	}
	return nil
}

// MasteryEvents returns a profile's transitions, newest first.
func (r *EventRepo) MasteryEvents(ctx context.Context, profileID string, opts QueryOpts) ([]MasteryEvent, error) {
	b := r.builder()
	sel := b.Select("sequence", "timestamp", "profile_id", "concept_id", "from_status", "to_status", "trigger").
		From(b.Table("mastery_events")).
		Where(entsql.And(append(opts.predicates(), entsql.EQ("profile_id", profileID))...)).
		OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()
	var out []MasteryEvent
	if err := r.selectAll(ctx, &out, query, args); err != nil {
		return nil, fmt.Errorf("query mastery events: %w", err)
	}
	return out, nil
}

// QueryLLMEvents returns LLM events, newest first.
func (r *EventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	b := r.builder()
	sel := b.Select(llmEventColumns...).
		From(b.Table("llm_request_events")).
		OrderBy(entsql.Desc("sequence"))
	preds := opts.predicates()
	if opts.Purpose != "" {
		preds = append(preds, entsql.EQ("purpose", opts.Purpose))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	query, args := sel.Query()
	var out []LLMEvent
	if err := r.selectAll(ctx, &out, query, args); err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return out, nil
}

// GetLLMEvent returns one LLM event by sequence or ErrNotFound.
func (r *EventRepo) GetLLMEvent(ctx context.Context, seq int64) (*LLMEvent, error) {
	b := r.builder()
	query, args := b.Select(llmEventColumns...).
		From(b.Table("llm_request_events")).
		Where(entsql.EQ("sequence", seq)).
		Query()
	var e LLMEvent
	if err := r.get(ctx, &e, query, args); err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", seq, err)
	}
	return &e, nil
}

// LLMUsageByPurpose aggregates LLM calls per purpose.
func (r *EventRepo) LLMUsageByPurpose(ctx context.Context) ([]Usage, error) {
	return r.usage(ctx, "purpose")
}

// LLMUsageByModel aggregates LLM calls per model.
func (r *EventRepo) LLMUsageByModel(ctx context.Context) ([]Usage, error) {
	return r.usage(ctx, "model")
}

func (r *EventRepo) usage(ctx context.Context, column string) ([]Usage, error) {
	b := r.builder()
	t := b.Table("llm_request_events")
	query, args := b.Select().
		AppendSelectExprAs(entsql.Expr(column), "key").
		AppendSelectExprAs(entsql.Expr("COUNT(*)"), "calls").
		AppendSelectExprAs(entsql.Expr("COALESCE(SUM(input_tokens), 0)"), "input_tokens").
		AppendSelectExprAs(entsql.Expr("COALESCE(SUM(output_tokens), 0)"), "output_tokens").
		AppendSelectExprAs(entsql.Expr("COALESCE(AVG(latency_ms), 0)"), "avg_latency_ms").
		AppendSelectExprAs(entsql.Expr("COALESCE(SUM(cost_usd), 0)"), "cost_usd").
		From(t).
		GroupBy(column).
		OrderBy(column).
		Query()
	var out []Usage
	if err := r.selectAll(ctx, &out, query, args); err != nil {
		return nil, fmt.Errorf("aggregate LLM usage by %s: %w", column, err)
	}
	return out, nil
}

func (o QueryOpts) predicates() []*entsql.Predicate {
	var preds []*entsql.Predicate
	if o.After > 0 {
		preds = append(preds, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		preds = append(preds, entsql.LT("sequence", o.Before))
	}
	if !o.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", o.From.UTC()))
	}
	if !o.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", o.To.UTC()))
	}
	return preds
}
