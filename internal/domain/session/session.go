// Package session holds the per-client grid state.
package session

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/resultgrid/internal/domain/column"
	"github.com/kailas-cloud/resultgrid/internal/domain/hit"
	"github.com/kailas-cloud/resultgrid/internal/domain/row"
	"github.com/kailas-cloud/resultgrid/internal/domain/view"
)

// State is the grid state of one session. Access it only while holding the session lock.
type State struct {
	Filters     []string
	Records     []hit.Record
	PrimaryKeys []string
	Schema      column.Schema
	View        view.State
	Rows        []row.Row
	Expanded    map[string]bool
	Malformed   int
}

// FilterChanged reports whether filters differ from the ones of the last ingest.
func (s *State) FilterChanged(filters []string) bool {
	return !slices.Equal(s.Filters, filters)
}

// AllEntities reports whether no entity filter is active.
func (s *State) AllEntities() bool { return len(s.Filters) == 0 }

// HasRecord reports whether a record with primary key value pk is loaded.
func (s *State) HasRecord(pk string) bool {
	for i := range s.Records {
		if s.Records[i].PrimaryKey().Value == pk {
			return true
		}
	}
	return false
}

// Session is one grid session. Events of one session are serialized by its lock.
type Session struct {
	mu        sync.Mutex
	id        string
	createdAt time.Time
	lastSeen  atomic.Int64
	state     State
}

// New creates an empty session.
func New(id string, now time.Time) *Session {
	s := &Session{id: id, createdAt: now, state: State{Expanded: make(map[string]bool)}}
	s.lastSeen.Store(now.UnixNano())
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LastSeen returns the time of the last access. Safe without the lock.
func (s *Session) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Touch records an access.
func (s *Session) Touch(now time.Time) { s.lastSeen.Store(now.UnixNano()) }

// Lock acquires the session for one event.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// State returns the mutable state. The caller must hold the lock.
func (s *Session) State() *State { return &s.state }
