package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired tokens
var ErrNotFound = errors.New("session not found")

// Session binds an opaque bearer token to a user
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store keeps sessions until they expire or are deleted
type Store interface {
	Create(ctx context.Context, userID string) (*Session, error)
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

func newSession(userID string, ttl time.Duration, now time.Time) *Session {
	return &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Key is the Redis key holding a session hash
func Key(token string) string {
	return "session:" + token
}

// RedisStore keeps sessions as Redis hashes that expire with the session
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Create stores a new session
func (s *RedisStore) Create(ctx context.Context, userID string) (*Session, error) {
	sess := newSession(userID, s.ttl, time.Now().UTC())

	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, Key(sess.Token),
		"user_id", sess.UserID,
		"created_at", sess.CreatedAt.Format(time.RFC3339),
	)
	pipe.Expire(ctx, Key(sess.Token), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session
func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	key := Key(token)

	m, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(m) == 0 || m["user_id"] == "" {
		return nil, ErrNotFound
	}

	ttl, err := s.rdb.TTL(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	sess := &Session{Token: token, UserID: m["user_id"], ExpiresAt: time.Now().UTC().Add(ttl)}
	if created, err := time.Parse(time.RFC3339, m["created_at"]); err == nil {
		sess.CreatedAt = created
	}
	return sess, nil
}

// Delete removes a session. Deleting an unknown token is not an error.
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, Key(token)).Err()
}

// MemoryStore keeps sessions in process. Used when no Redis address is configured and
// in tests.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates a MemoryStore
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]*Session),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new session
func (s *MemoryStore) Create(_ context.Context, userID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := newSession(userID, s.ttl, s.now())
	s.sessions[sess.Token] = sess
	return sess, nil
}

// Get loads a session, dropping it when expired
func (s *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

// Delete removes a session
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
	return nil
}
