package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	// Postgres driver, registered as "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an insert violates a uniqueness constraint.
	ErrConflict = errors.New("already exists")
)

// conn carries a query target, the database or a transaction, and the SQL
// dialect used to build statements for it. Repositories are views over a conn.
type conn struct {
	q       sqlx.ExtContext
	dialect string
}

func (c conn) builder() *entsql.DialectBuilder {
	return entsql.Dialect(c.dialect)
}

func (c conn) Users() *UserRepo                       { return &UserRepo{c} }
func (c conn) Sessions() *SessionRepo                 { return &SessionRepo{c} }
func (c conn) Profiles() *ProfileRepo                 { return &ProfileRepo{c} }
func (c conn) Masteries() *MasteryRepo                { return &MasteryRepo{c} }
func (c conn) LearningSessions() *LearningSessionRepo { return &LearningSessionRepo{c} }
func (c conn) Checkpoints() *CheckpointRepo           { return &CheckpointRepo{c} }
func (c conn) WeakPoints() *WeakPointRepo             { return &WeakPointRepo{c} }
func (c conn) Assessments() *AssessmentRepo           { return &AssessmentRepo{c} }
func (c conn) Events() *EventRepo                     { return &EventRepo{c} }

// Store is the relational backend: SQLite by default, Postgres when the DSN
// is a postgres:// URL.
type Store struct {
	conn
	db *sqlx.DB
}

// Tx exposes the same repositories inside a transaction.
type Tx struct {
	conn
}

// Open connects to dsn, applies driver settings and creates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	driver, d := "sqlite", dialect.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, d = "pgx", dialect.Postgres
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if d == dialect.SQLite {
		// One connection serializes writers and keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{conn: conn{q: db, dialect: d}, db: db}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// DB returns the underlying handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Dialect returns the SQL dialect name.
func (s *Store) Dialect() string {
	return s.dialect
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InTx runs fn in a transaction, committing when it returns nil. On SQLite
// the store holds a single connection, so fn must only use tx.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&Tx{conn{q: sqlTx, dialect: s.dialect}}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// applyPragmas configures SQLite for a small write-mostly workload.
func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (c conn) exec(ctx context.Context, query string, args []any) error {
	_, err := c.q.ExecContext(ctx, query, args...)
	return mapError(err)
}

func (c conn) get(ctx context.Context, dest any, query string, args []any) error {
	return mapError(sqlx.GetContext(ctx, c.q, dest, query, args...))
}

func (c conn) selectAll(ctx context.Context, dest any, query string, args []any) error {
	return mapError(sqlx.SelectContext(ctx, c.q, dest, query, args...))
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// mapError translates driver errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
