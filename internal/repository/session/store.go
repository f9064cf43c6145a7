// Package session keeps grid sessions in memory with idle expiry.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/resultgrid/internal/domain"
	domsess "github.com/kailas-cloud/resultgrid/internal/domain/session"
)

// Store is an in-memory session store. Sessions idle longer than the TTL are dropped
// on access and by Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domsess.Session
	idleTTL  time.Duration
	max      int
	now      func() time.Time
}

// New creates a store. idleTTL <= 0 disables expiry, maxSessions <= 0 disables the cap.
func New(idleTTL time.Duration, maxSessions int) *Store {
	return &Store{
		sessions: make(map[string]*domsess.Session),
		idleTTL:  idleTTL,
		max:      maxSessions,
		now:      time.Now,
	}
}

// Create registers a new session with a random UUID.
func (s *Store) Create(_ context.Context) (*domsess.Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.sessions) >= s.max {
		s.sweepLocked(now)
		if len(s.sessions) >= s.max {
			return nil, fmt.Errorf("create session: %w", domain.ErrTooManySessions)
		}
	}

	sess := domsess.New(uuid.NewString(), now)
	s.sessions[sess.ID()] = sess
	return sess, nil
}

// Get returns a live session and marks it as used.
func (s *Store) Get(_ context.Context, id string) (*domsess.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	now := s.now()

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	if s.expired(sess, now) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, fmt.Errorf("session %s expired: %w", id, domain.ErrSessionNotFound)
	}
	sess.Touch(now)
	return sess, nil
}

// Delete removes a session.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrSessionNotFound)
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Ping reports store availability.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	return nil
}

// Sweep drops idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Store) expired(sess *domsess.Session, now time.Time) bool {
	return s.idleTTL > 0 && now.Sub(sess.LastSeen()) > s.idleTTL
}

// Run sweeps every interval until ctx is done. onSweep, if set, receives the
// number of removed sessions and the remaining count.
func (s *Store) Run(ctx context.Context, interval time.Duration, onSweep func(removed, remaining int)) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			removed := s.Sweep()
			if onSweep != nil {
				onSweep(removed, s.Len())
			}
		}
	}
}
