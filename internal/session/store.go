// package session keeps logged-in sessions and pending OAuth states in memory
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/spotifie/internal/models"
	"github.com/desertthunder/spotifie/internal/shared"
)

const cleanupInterval = time.Minute

// Store is a thread-safe in-memory session and OAuth state store with TTL.
//
// Sessions are lost on restart. A session whose token has expired is treated as absent.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	states   map[string]time.Time
	ttl      time.Duration
	stateTTL time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// NewStore creates a [Store] and starts its cleanup loop. Call [Store.Close] to stop it.
func NewStore(ttl, stateTTL time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*models.Session),
		states:   make(map[string]time.Time),
		ttl:      ttl,
		stateTTL: stateTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Create stores a new session binding identity to token and returns it.
func (s *Store) Create(identity models.Identity, token models.AuthorizedToken) *models.Session {
	now := s.now()
	sess := &models.Session{
		ID:        shared.GenerateID(),
		Identity:  identity,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns the session with the given ID.
//
// Returns [shared.ErrNotAuthenticated] for unknown IDs and [shared.ErrSessionExpired] when either
// the session or its token has lapsed.
func (s *Store) Get(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}

	now := s.now()
	if now.After(sess.ExpiresAt) || sess.Token.Expired(now) {
		return nil, fmt.Errorf("%w: session %s", shared.ErrSessionExpired, id)
	}

	out := *sess
	return &out, nil
}

// Delete removes a session. Unknown IDs are ignored.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// PutState records an OAuth state value issued for a login redirect.
func (s *Store) PutState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = s.now().Add(s.stateTTL)
}

// ConsumeState removes state and reports whether it was issued and still valid.
//
// A state can be consumed only once.
func (s *Store) ConsumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return !s.now().After(expiresAt)
}

// Close stops the cleanup loop.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) || sess.Token.Expired(now) {
			delete(s.sessions, id)
		}
	}
	for state, expiresAt := range s.states {
		if now.After(expiresAt) {
			delete(s.states, state)
		}
	}
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}
