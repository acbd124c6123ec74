package utils

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateKeyPrefix = "oauth:state:"

// StateStore keeps single-use OAuth state tokens to mitigate CSRF.
// Redis is preferred when available; otherwise tokens live in process memory.
type StateStore struct {
	rc *redis.Client

	mu     sync.Mutex
	states map[string]time.Time
}

// NewStateStore creates a store; rc may be nil.
func NewStateStore(rc *redis.Client) *StateStore {
	return &StateStore{rc: rc, states: map[string]time.Time{}}
}

// Save stores a state token with TTL.
func (s *StateStore) Save(ctx context.Context, state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.rc.Set(ctx, stateKeyPrefix+state, "1", ttl).Err(); err == nil {
			return
		}
	}
	s.mu.Lock()
	s.states[state] = time.Now().Add(ttl)
	s.mu.Unlock()
}

// Consume validates and removes a state token.
func (s *StateStore) Consume(ctx context.Context, state string) bool {
	if state == "" {
		return false
	}
	if s.rc != nil {
		ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		v, err := s.rc.GetDel(ctx, stateKeyPrefix+state).Result()
		if err == nil {
			return v != ""
		}
		if err != redis.Nil {
			Sugar.Debugf("state lookup failed, trying memory: %v", err)
		}
	}
	s.mu.Lock()
	expiresAt, ok := s.states[state]
	if ok {
		delete(s.states, state)
	}
	s.mu.Unlock()
	return ok && time.Now().Before(expiresAt)
}
