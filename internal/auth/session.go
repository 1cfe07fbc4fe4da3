package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Identity is the authenticated principal stored against a session token
type Identity struct {
	UserID   uint   `json:"user_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// ErrSessionNotFound is returned for unknown or expired tokens
var ErrSessionNotFound = errors.New("session not found")

// Store persists session identities keyed by opaque token
type Store interface {
	Create(ctx context.Context, identity Identity) (string, error)
	Get(ctx context.Context, token string) (*Identity, error)
	Delete(ctx context.Context, token string) error
}

// RedisStore keeps sessions in Redis with a sliding TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

// Create mints a token and stores the identity under it
func (s *RedisStore) Create(ctx context.Context, identity Identity) (string, error) {
	token := uuid.NewString()

	data, err := json.Marshal(identity)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal session identity")
	}

	if err := s.client.Set(ctx, sessionKey(token), data, s.ttl).Err(); err != nil {
		return "", errors.Wrap(err, "failed to store session")
	}

	return token, nil
}

// Get resolves a token to its identity, refreshing the TTL on hit
func (s *RedisStore) Get(ctx context.Context, token string) (*Identity, error) {
	data, err := s.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, errors.Wrap(err, "failed to read session")
	}

	var identity Identity
	if err := json.Unmarshal(data, &identity); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal session identity")
	}

	// Sliding expiration; a failed refresh is not fatal
	s.client.Expire(ctx, sessionKey(token), s.ttl)

	return &identity, nil
}

// Delete removes a session, logging the principal out
func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return errors.Wrap(err, "failed to delete session")
	}
	return nil
}

// MemoryStore is the fallback session store used when Redis is disabled.
// Sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memorySession
}

type memorySession struct {
	identity Identity
	expires  time.Time
}

// NewMemoryStore creates an in-process session store
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memorySession),
	}
}

// Create mints a token and stores the identity under it
func (s *MemoryStore) Create(_ context.Context, identity Identity) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	s.sessions[token] = memorySession{identity: identity, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()

	return token, nil
}

// Get resolves a token to its identity, refreshing the TTL on hit
func (s *MemoryStore) Get(_ context.Context, token string) (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if time.Now().After(sess.expires) {
		delete(s.sessions, token)
		return nil, ErrSessionNotFound
	}

	sess.expires = time.Now().Add(s.ttl)
	s.sessions[token] = sess

	identity := sess.identity
	return &identity, nil
}

// Delete removes a session
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}
