// Package session holds per-session conversational state: the append-only
// chat history and the opaque continuation handle carried between turns.
package session

import (
	"context"
	"sync"

	"mailsearch/internal/models"
)

// State is everything stored for one session. The continuation handle is
// opaque at this layer: it is stored and returned byte for byte, never
// inspected, and replaced wholesale after each turn.
type State struct {
	History []models.ConversationTurn
	Handle  []byte
}

// clone copies the state so callers never share backing arrays with the store.
func (s State) clone() State {
	out := State{
		History: make([]models.ConversationTurn, len(s.History)),
		Handle:  make([]byte, len(s.Handle)),
	}
	copy(out.History, s.History)
	copy(out.Handle, s.Handle)
	return out
}

// Store is the session state backend. Implementations must support
// independent read/write per session id; Get returns nil for an absent
// session.
type Store interface {
	Get(ctx context.Context, sessionID string) (*State, error)
	Set(ctx context.Context, sessionID string, state State) error
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	sessions map[string]State
	mutex    sync.RWMutex
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]State),
	}
}

// Get retrieves a session's state, or nil if the session is absent.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*State, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	state, exists := s.sessions[sessionID]
	if !exists {
		return nil, nil
	}
	cloned := state.clone()
	return &cloned, nil
}

// Set stores a session's state wholesale.
func (s *MemoryStore) Set(_ context.Context, sessionID string, state State) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.sessions[sessionID] = state.clone()
	return nil
}

// Delete removes a session entirely, history and handle together.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
