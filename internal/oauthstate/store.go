// Package oauthstate binds OAuth anti-forgery state values to the user who
// initiated the flow. Entries are one-shot: Consume removes the entry, so a
// replayed callback with the same state is rejected.
package oauthstate

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"
)

const defaultTTL = 15 * time.Minute

type entry struct {
	userID    string
	expiresAt time.Time
}

// Store is an in-memory anti-forgery state store with TTL.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
}

// NewStore returns a Store with the given TTL; ttl <= 0 uses the default.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{ttl: ttl, entries: map[string]entry{}}
}

// Generate creates a random state value, binds it to userID, and returns it.
func (s *Store) Generate(userID string) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.entries[state] = entry{userID: userID, expiresAt: time.Now().Add(s.ttl)}
	return state, nil
}

// Consume validates a state value and returns the bound user id. The entry
// is removed whether or not it is still valid.
func (s *Store) Consume(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[state]
	if !ok {
		return "", false
	}
	delete(s.entries, state)
	if time.Now().After(e.expiresAt) {
		return "", false
	}
	return e.userID, true
}

// sweepLocked drops expired entries. Called with the mutex held.
func (s *Store) sweepLocked() {
	now := time.Now()
	for state, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, state)
		}
	}
}
