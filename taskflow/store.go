package taskflow

import (
	"sync"

	"polyglot-agent/gateway"
)

// SessionStore is the in-memory mapping from session id to session state.
// It is safe for concurrent use across sessions; within one session, turns
// are serialized on the session's own lock so the append-only message
// ordering is preserved. Sessions are never deleted automatically.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu    sync.Mutex
	state SessionState
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*session)}
}

// acquire returns the session for id, creating it on first use, with its
// lock held. The caller must release it when the turn completes.
func (st *SessionStore) acquire(id string) *session {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if !ok {
		s = &session{state: SessionState{SessionID: id}}
		st.sessions[id] = s
	}
	st.mu.Unlock()

	s.mu.Lock()
	return s
}

func (s *session) release() { s.mu.Unlock() }

// Messages returns a copy of the session's message history.
func (st *SessionStore) Messages(id string) []gateway.Message {
	s := st.lookup(id)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gateway.Message, len(s.state.Messages))
	copy(out, s.state.Messages)
	return out
}

// Trace returns a copy of the session's reasoning trace.
func (st *SessionStore) Trace(id string) []string {
	s := st.lookup(id)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.state.ReasoningTrace))
	copy(out, s.state.ReasoningTrace)
	return out
}

// Clear removes the session entirely. The next turn for the same id starts
// from an empty history.
func (st *SessionStore) Clear(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *SessionStore) lookup(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[id]
}
