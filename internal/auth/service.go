package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/ailp/internal/logger"
	"github.com/abhisek/ailp/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNoSession          = errors.New("no active session")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 30 * 24 * time.Hour

// GuestID returns a fresh identifier for an unauthenticated learner.
func GuestID() string {
	return "guest-" + uuid.NewString()
}

// IsGuest reports whether id was produced by GuestID.
func IsGuest(id string) bool {
	return strings.HasPrefix(id, "guest-")
}

// Service registers users and manages their sessions.
type Service struct {
	users    *store.UserRepo
	sessions SessionStore
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates a Service. A non-positive ttl selects DefaultSessionTTL.
func NewService(users *store.UserRepo, sessions SessionStore, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{users: users, sessions: sessions, ttl: ttl, log: log.With("service", "auth"), now: time.Now}
}

// Signup creates an account and logs it in.
func (s *Service) Signup(ctx context.Context, email, password, name string) (*store.User, *store.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, nil, ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, nil, err
	}

	u := &store.User{Email: email, PasswordHash: hash, Name: strings.TrimSpace(name)}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, fmt.Errorf("signup: %w", err)
	}
	s.log.Info("user signed up", "user_id", u.ID)

	sess, err := s.startSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*store.User, *store.Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	if !CheckPassword(u.PasswordHash, password) {
		s.log.Warn("login rejected", "user_id", u.ID)
		return nil, nil, ErrInvalidCredentials
	}

	sess, err := s.startSession(ctx, u.ID)
	if err != nil {
		return nil, nil, err
	}
	return u, sess, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Resolve returns the user behind a session token, or ErrNoSession.
func (s *Service) Resolve(ctx context.Context, token string) (*store.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, sess.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return u, nil
}

// TTL returns the session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func (s *Service) startSession(ctx context.Context, userID string) (*store.Session, error) {
	now := s.now().UTC()
	sess := store.Session{
		Token:     rand.Text(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &sess, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
