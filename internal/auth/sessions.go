package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/ailp/internal/store"
)

// SessionStore keeps login sessions. Get reports ErrNoSession for unknown
// and expired tokens.
type SessionStore interface {
	Create(ctx context.Context, s store.Session) error
	Get(ctx context.Context, token string) (*store.Session, error)
	Delete(ctx context.Context, token string) error
}

// SQLSessionStore keeps sessions in the relational store.
type SQLSessionStore struct {
	repo *store.SessionRepo
	now  func() time.Time
}

// NewSQLSessionStore wraps a session repository.
func NewSQLSessionStore(repo *store.SessionRepo) *SQLSessionStore {
	return &SQLSessionStore{repo: repo, now: time.Now}
}

func (s *SQLSessionStore) Create(ctx context.Context, sess store.Session) error {
	return s.repo.Create(ctx, sess)
}

func (s *SQLSessionStore) Get(ctx context.Context, token string) (*store.Session, error) {
	sess, err := s.repo.Get(ctx, token, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSession
	}
	return sess, err
}

func (s *SQLSessionStore) Delete(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}

// RedisSessionStore keeps sessions in redis with the session's remaining
// lifetime as the key TTL.
type RedisSessionStore struct {
	rdb    *goredis.Client
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore connects to addr and verifies the server responds.
func NewRedisSessionStore(ctx context.Context, addr string) (*RedisSessionStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisSessionStore{rdb: rdb, prefix: "ailp:session:", now: time.Now}, nil
}

type redisSession struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *RedisSessionStore) Create(ctx context.Context, sess store.Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(redisSession{UserID: sess.UserID, ExpiresAt: sess.ExpiresAt, CreatedAt: sess.CreatedAt})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, s.prefix+sess.Token, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, token string) (*store.Session, error) {
	raw, err := s.rdb.Get(ctx, s.prefix+token).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}
	var rs redisSession
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !rs.ExpiresAt.After(s.now()) {
		return nil, ErrNoSession
	}
	return &store.Session{Token: token, UserID: rs.UserID, ExpiresAt: rs.ExpiresAt, CreatedAt: rs.CreatedAt}, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := s.rdb.Del(ctx, s.prefix+token).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// Close releases the redis client.
func (s *RedisSessionStore) Close() error {
	return s.rdb.Close()
}
