package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Migrate creates any missing tables and indexes and seeds the global
// sequence. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(entsql.OpenDB(s.dialect, s.db.DB))
	if err != nil {
		return fmt.Errorf("new migrate: %w", err)
	}
	if err := m.Create(ctx, tables...); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	seed, args := entsql.Dialect(s.dialect).
		Insert("global_sequence").
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if _, err := s.db.ExecContext(ctx, seed, args...); err != nil {
		return fmt.Errorf("seed sequence: %w", err)
	}
	return nil
}

func text(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString}
}

func textDefault(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeString, Default: ""}
}

func integer(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt}
}

func bigint(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeInt64}
}

func float(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeFloat64}
}

func timestamp(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime}
}

func nullableTimestamp(name string) *schema.Column {
	return &schema.Column{Name: name, Type: field.TypeTime, Nullable: true}
}

// cascade references the first (primary key) column of ref.
func cascade(symbol string, col *schema.Column, ref *schema.Table) *schema.ForeignKey {
	return &schema.ForeignKey{
		Symbol:     symbol,
		Columns:    []*schema.Column{col},
		RefTable:   ref,
		RefColumns: []*schema.Column{ref.PrimaryKey[0]},
		OnDelete:   schema.Cascade,
	}
}

var (
	usersColumns = []*schema.Column{
		text("id"),
		{Name: "email", Type: field.TypeString, Unique: true},
		text("password_hash"),
		textDefault("name"),
		timestamp("created_at"),
	}
	usersTable = &schema.Table{
		Name:       "users",
		Columns:    usersColumns,
		PrimaryKey: []*schema.Column{usersColumns[0]},
	}

	sessionsColumns = []*schema.Column{
		text("token"),
		text("user_id"),
		timestamp("expires_at"),
		timestamp("created_at"),
	}
	sessionsTable = &schema.Table{
		Name:       "sessions",
		Columns:    sessionsColumns,
		PrimaryKey: []*schema.Column{sessionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("sessions_users_sessions", sessionsColumns[1], usersTable),
		},
	}

	learnerProfilesColumns = []*schema.Column{
		text("id"),
		text("user_id"),
		text("subject"),
		timestamp("created_at"),
		timestamp("updated_at"),
	}
	learnerProfilesTable = &schema.Table{
		Name:       "learner_profiles",
		Columns:    learnerProfilesColumns,
		PrimaryKey: []*schema.Column{learnerProfilesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("learner_profiles_users_profiles", learnerProfilesColumns[1], usersTable),
		},
		Indexes: []*schema.Index{
			{
				Name:    "learner_profiles_user_subject",
				Unique:  true,
				Columns: []*schema.Column{learnerProfilesColumns[1], learnerProfilesColumns[2]},
			},
		},
	}

	conceptMasteryColumns = []*schema.Column{
		text("profile_id"),
		text("concept_id"),
		{Name: "mastery_score", Type: field.TypeFloat64, Default: 0},
		{Name: "confidence_score", Type: field.TypeFloat64, Default: 0},
		text("status"),
		{Name: "attempts", Type: field.TypeInt, Default: 0},
		nullableTimestamp("last_attempted_at"),
		nullableTimestamp("completed_at"),
		timestamp("updated_at"),
	}
	conceptMasteryTable = &schema.Table{
		Name:       "concept_mastery",
		Columns:    conceptMasteryColumns,
		PrimaryKey: []*schema.Column{conceptMasteryColumns[0], conceptMasteryColumns[1]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("concept_mastery_learner_profiles_masteries", conceptMasteryColumns[0], learnerProfilesTable),
		},
	}

	learningSessionsColumns = []*schema.Column{
		text("id"),
		text("profile_id"),
		text("concept_id"),
		integer("sections_total"),
		{Name: "sections_completed", Type: field.TypeInt, Default: 0},
		timestamp("started_at"),
		nullableTimestamp("completed_at"),
	}
	learningSessionsTable = &schema.Table{
		Name:       "learning_sessions",
		Columns:    learningSessionsColumns,
		PrimaryKey: []*schema.Column{learningSessionsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("learning_sessions_learner_profiles_sessions", learningSessionsColumns[1], learnerProfilesTable),
		},
	}

	assessmentResponsesColumns = []*schema.Column{
		text("id"),
		text("profile_id"),
		text("question_id"),
		text("response_text"),
		text("analysis"),
		timestamp("created_at"),
	}
	assessmentResponsesTable = &schema.Table{
		Name:       "assessment_responses",
		Columns:    assessmentResponsesColumns,
		PrimaryKey: []*schema.Column{assessmentResponsesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("assessment_responses_learner_profiles_responses", assessmentResponsesColumns[1], learnerProfilesTable),
		},
	}

	weakPointsColumns = []*schema.Column{
		text("id"),
		text("profile_id"),
		text("concept_id"),
		text("type"),
		float("severity"),
		text("root_cause"),
		text("related_concepts"),
		text("source"),
		timestamp("detected_at"),
		nullableTimestamp("remediated_at"),
	}
	weakPointsTable = &schema.Table{
		Name:       "weak_points",
		Columns:    weakPointsColumns,
		PrimaryKey: []*schema.Column{weakPointsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("weak_points_learner_profiles_weak_points", weakPointsColumns[1], learnerProfilesTable),
		},
	}

	checkpointResponsesColumns = []*schema.Column{
		text("id"),
		text("session_id"),
		text("profile_id"),
		text("concept_id"),
		integer("checkpoint_index"),
		text("question"),
		text("response_text"),
		float("understanding_score"),
		text("feedback"),
		timestamp("created_at"),
	}
	checkpointResponsesTable = &schema.Table{
		Name:       "checkpoint_responses",
		Columns:    checkpointResponsesColumns,
		PrimaryKey: []*schema.Column{checkpointResponsesColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("checkpoint_responses_learning_sessions_checkpoints", checkpointResponsesColumns[1], learningSessionsTable),
			cascade("checkpoint_responses_learner_profiles_checkpoints", checkpointResponsesColumns[2], learnerProfilesTable),
		},
	}

	globalSequenceColumns = []*schema.Column{
		integer("id"),
		bigint("next_val"),
	}
	globalSequenceTable = &schema.Table{
		Name:       "global_sequence",
		Columns:    globalSequenceColumns,
		PrimaryKey: []*schema.Column{globalSequenceColumns[0]},
	}

	llmRequestEventsColumns = []*schema.Column{
		bigint("sequence"),
		timestamp("timestamp"),
		text("provider"),
		text("model"),
		text("purpose"),
		integer("input_tokens"),
		integer("output_tokens"),
		bigint("latency_ms"),
		{Name: "success", Type: field.TypeBool},
		textDefault("error_message"),
		{Name: "cost_usd", Type: field.TypeFloat64, Default: 0},
		textDefault("request_body"),
		textDefault("response_body"),
	}
	llmRequestEventsTable = &schema.Table{
		Name:       "llm_request_events",
		Columns:    llmRequestEventsColumns,
		PrimaryKey: []*schema.Column{llmRequestEventsColumns[0]},
	}

	masteryEventsColumns = []*schema.Column{
		bigint("sequence"),
		timestamp("timestamp"),
		text("profile_id"),
		text("concept_id"),
		text("from_status"),
		text("to_status"),
		text("trigger"),
	}
	masteryEventsTable = &schema.Table{
		Name:       "mastery_events",
		Columns:    masteryEventsColumns,
		PrimaryKey: []*schema.Column{masteryEventsColumns[0]},
		ForeignKeys: []*schema.ForeignKey{
			cascade("mastery_events_learner_profiles_events", masteryEventsColumns[2], learnerProfilesTable),
		},
	}

	// tables lists every table in dependency order.
	tables = []*schema.Table{
		usersTable,
		sessionsTable,
		learnerProfilesTable,
		conceptMasteryTable,
		learningSessionsTable,
		assessmentResponsesTable,
		weakPointsTable,
		checkpointResponsesTable,
		globalSequenceTable,
		llmRequestEventsTable,
		masteryEventsTable,
	}
)
