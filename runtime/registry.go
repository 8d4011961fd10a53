// Package runtime holds the connection registry and the message router.
// It moves lines between live sessions without containing transport logic.
package runtime

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Registry is the shared set of live sessions. A session is present
// exactly between its handshake completion and its lifecycle teardown.
// All mutation and enumeration goes through the single RWMutex, so a
// snapshot taken during concurrent joins and leaves is never torn.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*domain.Session
	order    []uuid.UUID // insertion order, drives enumeration and FindByName ties
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[uuid.UUID]*domain.Session),
	}
}

// Add makes the session visible to every subsequent Snapshot and FindByName.
// Re-adding a live ID is a programming invariant violation: the call is
// rejected with ErrDuplicateSession and existing entries stay untouched.
func (r *Registry) Add(session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; ok {
		return errors.ErrDuplicateSession
	}
	r.sessions[session.ID] = session
	r.order = append(r.order, session.ID)
	return nil
}

// Remove deletes the session by ID. Removing an absent session is a no-op,
// which covers double-teardown races between /quit and a dying transport.
func (r *Registry) Remove(session *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[session.ID]; !ok {
		return
	}
	delete(r.sessions, session.ID)
	for i, id := range r.order {
		if id == session.ID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Snapshot returns a point-in-time copy of the live sessions in insertion
// order. The copy is safe to iterate while other goroutines join or leave.
func (r *Registry) Snapshot() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*domain.Session, 0, len(r.order))
	for _, id := range r.order {
		res = append(res, r.sessions[id])
	}
	return res
}

// FindByName resolves a display name case-insensitively. Names are not
// unique, the first match in insertion order wins. A miss is a recoverable
// condition, not an error.
func (r *Registry) FindByName(name string) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if s := r.sessions[id]; strings.EqualFold(s.DisplayName, name) {
			return s, true
		}
	}
	return nil, false
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
