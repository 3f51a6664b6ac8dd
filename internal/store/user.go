package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// Session is an opaque login token bound to a user.
type Session struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

var userColumns = []string{"id", "email", "password_hash", "name", "created_at"}

// UserRepo reads and writes users.
type UserRepo struct{ conn }

// Create inserts u, assigning an ID and creation time when unset. A taken
// email reports ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	query, args := r.builder().Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, u.PasswordHash, u.Name, u.CreatedAt).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByEmail returns the user with the given email or ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByID returns the user with the given ID or ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (*User, error) {
	b := r.builder()
	query, args := b.Select(userColumns...).
		From(b.Table("users")).
		Where(entsql.EQ(column, value)).
		Query()
	var u User
	if err := r.get(ctx, &u, query, args); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// SessionRepo persists login sessions.
type SessionRepo struct{ conn }

// Create stores s.
func (r *SessionRepo) Create(ctx context.Context, s Session) error {
	query, args := r.builder().Insert("sessions").
		Columns("token", "user_id", "expires_at", "created_at").
		Values(s.Token, s.UserID, s.ExpiresAt.UTC(), s.CreatedAt.UTC()).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns the unexpired session for token or ErrNotFound.
func (r *SessionRepo) Get(ctx context.Context, token string, now time.Time) (*Session, error) {
	b := r.builder()
	query, args := b.Select("token", "user_id", "expires_at", "created_at").
		From(b.Table("sessions")).
		Where(entsql.And(
			entsql.EQ("token", token),
			entsql.GT("expires_at", now.UTC()),
		)).
		Query()
	var s Session
	if err := r.get(ctx, &s, query, args); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Delete removes the session for token. Missing tokens are not an error.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	query, args := r.builder().Delete("sessions").
		Where(entsql.EQ("token", token)).
		Query()
	if err := r.exec(ctx, query, args); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions that expired before now and reports how
// many were removed.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query, args := r.builder().Delete("sessions").
		Where(entsql.LTE("expires_at", now.UTC())).
		Query()
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", mapError(err))
	}
	return res.RowsAffected()
}
