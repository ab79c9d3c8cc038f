package shield

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces analyst session keys in Redis.
const keyPrefix = "groomsafe:analyst:"

// RedisStore implements SessionStore backed by Redis. Use this in
// multi-instance deployments so an analyst's exposure counters are shared
// across every API node.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisStoreOption is a functional option for configuring RedisStore.
type RedisStoreOption func(*RedisStore)

// WithTTL sets the session key TTL (default: 24 hours). The TTL refreshes
// on every save, so it bounds idle time, not total session length.
func WithTTL(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = d
	}
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client: client,
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func sessionKey(analystID string) string {
	return keyPrefix + analystID
}

// Get retrieves a session by analyst ID. Returns nil, nil if not found.
func (s *RedisStore) Get(ctx context.Context, analystID string) (*AnalystSession, error) {
	data, err := s.client.Get(ctx, sessionKey(analystID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get analyst session: %w", err)
	}

	var session AnalystSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode analyst session: %w", err)
	}
	return &session, nil
}

// Save creates or updates a session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, session *AnalystSession) error {
	if session == nil {
		return fmt.Errorf("analyst session is nil")
	}
	if session.AnalystID == "" {
		return fmt.Errorf("analyst ID is required")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode analyst session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(session.AnalystID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis save analyst session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, analystID string) error {
	if err := s.client.Del(ctx, sessionKey(analystID)).Err(); err != nil {
		return fmt.Errorf("redis delete analyst session: %w", err)
	}
	return nil
}

// Ensure RedisStore implements SessionStore
var _ SessionStore = (*RedisStore)(nil)
