package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists chat histories between turns. Load on an unknown session
// returns an empty history, not an error. Sessions are read-then-written
// per turn with no cross-request locking; concurrent turns for the same
// session may race, which is an accepted limitation.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Save(ctx context.Context, sessionID string, messages []Message) error
}

// MemoryStore keeps sessions in process memory. Histories expire with the
// process; suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]Message
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string][]Message)}
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	messages := make([]Message, len(stored))
	copy(messages, stored)
	return messages, nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID string, messages []Message) error {
	stored := make([]Message, len(messages))
	copy(stored, messages)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = stored
	return nil
}

// redisSessionTTL bounds how long an idle chat session survives.
const redisSessionTTL = 24 * time.Hour

// RedisStore keeps sessions in Redis so histories survive restarts and can
// be shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(sessionID string) string {
	return "chat_session:" + sessionID
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session from redis: %w", err)
	}
	return Unmarshal(data)
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, messages []Message) error {
	data, err := Marshal(messages)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisKey(sessionID), data, redisSessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}
