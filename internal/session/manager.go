package session

import (
	"context"
	"fmt"
	"sync"

	"mailsearch/internal/models"
)

// Manager owns the mapping from session id to conversational state. Callers
// never mutate history directly; every change goes through Append, SetHandle
// or Reset, each of which is atomic per call. The backing Store is injected
// so a durable implementation can replace the in-memory one without touching
// call sites.
type Manager struct {
	store Store
	mutex sync.Mutex // serializes read-modify-write cycles against the store
}

// NewManager creates a session manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// History returns the session's turns in insertion order. An absent session
// yields an empty sequence.
func (m *Manager) History(ctx context.Context, sessionID string) ([]models.ConversationTurn, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state == nil {
		return []models.ConversationTurn{}, nil
	}
	return state.History, nil
}

// Append adds turns to the session's history, creating the session on first
// use. The append is atomic: concurrent appends cannot interleave partially.
func (m *Manager) Append(ctx context.Context, sessionID string, turns ...models.ConversationTurn) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state == nil {
		state = &State{}
	}

	state.History = append(state.History, turns...)
	if err := m.store.Set(ctx, sessionID, *state); err != nil {
		return fmt.Errorf("failed to store session %s: %w", sessionID, err)
	}
	return nil
}

// Handle returns the session's continuation handle, or nil when the session
// is absent or has no handle yet.
func (m *Manager) Handle(ctx context.Context, sessionID string) ([]byte, error) {
	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state == nil || len(state.Handle) == 0 {
		return nil, nil
	}
	return state.Handle, nil
}

// SetHandle replaces the session's continuation handle wholesale. The handle
// is opaque; the manager stores it byte for byte.
func (m *Manager) SetHandle(ctx context.Context, sessionID string, handle []byte) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	state, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if state == nil {
		state = &State{}
	}

	state.Handle = handle
	if err := m.store.Set(ctx, sessionID, *state); err != nil {
		return fmt.Errorf("failed to store session %s: %w", sessionID, err)
	}
	return nil
}

// Reset removes the session's history and continuation handle in one
// operation. Partial resets are not possible: the store deletes the whole
// session entry.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if err := m.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}
	return nil
}
