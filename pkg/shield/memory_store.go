package shield

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryStore implements SessionStore with in-process storage. Suitable
// for single-node deployments; distributed deployments should use
// RedisStore so exposure limits follow the analyst across instances.
//
// Sessions idle past the max age are swept by a background cleanup loop,
// so an analyst returning the next day starts fresh automatically.
type InMemoryStore struct {
	sessions map[string]*sessionRecord
	mu       sync.RWMutex

	maxAge          time.Duration // Idle session TTL (default: 24 hours)
	cleanupInterval time.Duration // Sweep interval (default: 15 minutes)

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

type sessionRecord struct {
	session  AnalystSession
	lastSeen time.Time
}

// MemoryStoreOption is a functional option for configuring InMemoryStore.
type MemoryStoreOption func(*InMemoryStore)

// WithMaxAge sets how long an idle session survives before cleanup.
func WithMaxAge(d time.Duration) MemoryStoreOption {
	return func(s *InMemoryStore) {
		s.maxAge = d
	}
}

// WithCleanupInterval sets how often the cleanup loop runs.
func WithCleanupInterval(d time.Duration) MemoryStoreOption {
	return func(s *InMemoryStore) {
		s.cleanupInterval = d
	}
}

// NewInMemoryStore creates an in-memory session store and starts its
// cleanup loop. Call Close to stop the loop.
func NewInMemoryStore(opts ...MemoryStoreOption) *InMemoryStore {
	s := &InMemoryStore{
		sessions:        make(map[string]*sessionRecord),
		maxAge:          24 * time.Hour,
		cleanupInterval: 15 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.cleanupLoop()

	return s
}

// Get retrieves a session by analyst ID. Returns nil, nil if not found or
// expired.
func (s *InMemoryStore) Get(_ context.Context, analystID string) (*AnalystSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[analystID]
	if !ok {
		return nil, nil
	}
	if time.Since(rec.lastSeen) > s.maxAge {
		// Stale, treat as not found; actual removal happens in cleanupLoop
		return nil, nil
	}

	session := rec.session
	return &session, nil
}

// Save creates or updates a session.
func (s *InMemoryStore) Save(_ context.Context, session *AnalystSession) error {
	if session == nil {
		return fmt.Errorf("analyst session is nil")
	}
	if session.AnalystID == "" {
		return fmt.Errorf("analyst ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.AnalystID] = &sessionRecord{
		session:  *session,
		lastSeen: time.Now(),
	}
	return nil
}

// Delete removes a session.
func (s *InMemoryStore) Delete(_ context.Context, analystID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, analystID)
	return nil
}

// Close stops the cleanup goroutine.
func (s *InMemoryStore) Close() {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
}

func (s *InMemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *InMemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, rec := range s.sessions {
		if now.Sub(rec.lastSeen) > s.maxAge {
			delete(s.sessions, id)
		}
	}
}

// Ensure InMemoryStore implements SessionStore
var _ SessionStore = (*InMemoryStore)(nil)
