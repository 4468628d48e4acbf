package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned by a SessionStore for an absent or expired key.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the expiring key-value store sessions live in.
type SessionStore interface {
	Put(ctx context.Context, key, token string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisSessionStore struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionStore keeps sessions in Redis under "<prefix>:<key>".
func NewRedisSessionStore(client *redis.Client, prefix string) SessionStore {
	return &redisSessionStore{client: client, prefix: prefix}
}

func (s *redisSessionStore) key(k string) string { return s.prefix + ":" + k }

func (s *redisSessionStore) Put(ctx context.Context, key, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), token, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *redisSessionStore) Get(ctx context.Context, key string) (string, error) {
	token, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	return token, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

type memorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemorySessionStore keeps sessions in process memory. It is used when no
// Redis address is configured and in tests.
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *memorySessionStore) Put(_ context.Context, key, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *memorySessionStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return "", ErrSessionNotFound
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return "", ErrSessionNotFound
	}
	return e.token, nil
}

func (s *memorySessionStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
