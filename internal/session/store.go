package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/BilanDracDraaf/grist-prefill/internal/models"
)

// State is what one interactive session holds: the last resolved record
// and the last generated link. Record is nil until a search succeeds.
type State struct {
	Record     *models.CaseRecord
	DossierURL string
}

// Store keeps session state in memory, keyed by an opaque id. Sessions
// live as long as the process; nothing is persisted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*State)}
}

// Create opens a new empty session and returns its id.
func (s *Store) Create() string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &State{}
	return id
}

// Snapshot returns a copy of a session's state.
func (s *Store) Snapshot(id string) (State, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.sessions[id]
	if !ok {
		return State{}, false
	}
	return *state, true
}

// SetRecord replaces the session's record after a successful search. The
// previously generated link is discarded: it was built from stale data.
func (s *Store) SetRecord(id string, record models.CaseRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return false
	}
	state.Record = &record
	state.DossierURL = ""
	return true
}

// SetURL stores the generated link.
func (s *Store) SetURL(id, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return false
	}
	state.DossierURL = url
	return true
}

// ClearURL discards the generated link so a new one can be requested.
func (s *Store) ClearURL(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[id]
	if !ok {
		return false
	}
	state.DossierURL = ""
	return true
}
