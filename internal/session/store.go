package session

import (
	"sync"

	"github.com/google/uuid"
)

// Store holds session state keyed by session id. Each session carries its own
// lock: Do serializes turns for one session while other sessions' turns keep
// making progress.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	state State
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*entry),
	}
}

// NewID returns a fresh session id for conversations that do not carry one.
func NewID() string {
	return uuid.NewString()
}

// Do runs fn with exclusive access to the session's state, creating the
// session on first use. The per-session lock is held for the full call, so a
// turn's provider calls complete before the next turn of the same session is
// interpreted.
func (s *Store) Do(id string, fn func(*State)) {
	s.mu.Lock()
	e, ok := s.sessions[id]
	if !ok {
		e = &entry{}
		s.sessions[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.state)
}

// Peek returns a copy of the session's current state, or the zero state if
// the session does not exist yet.
func (s *Store) Peek(id string) State {
	var state State
	s.Do(id, func(st *State) {
		state = *st
	})
	return state
}
