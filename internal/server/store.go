package server

import (
	"sync"

	"github.com/mcncl/jsonlens/internal/session"
)

// entry guards one session. Handlers hold mu for the whole toggle so
// directives of one request are applied before the next request starts.
type entry struct {
	mu      sync.Mutex
	session *session.Session
}

// SessionStore keeps the live sessions of the server. Once it holds limit
// sessions, adding another evicts the oldest.
type SessionStore struct {
	mu      sync.RWMutex
	limit   int
	entries map[string]*entry
	order   []string
}

// NewSessionStore creates a store holding at most limit sessions. A limit
// below one is treated as one.
func NewSessionStore(limit int) *SessionStore {
	return &SessionStore{
		limit:   max(limit, 1),
		entries: make(map[string]*entry),
	}
}

// Add stores s under its ID and returns the IDs of evicted sessions.
func (st *SessionStore) Add(s *session.Session) []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.entries[s.ID()]; ok {
		st.entries[s.ID()] = &entry{session: s}
		return nil
	}

	var evicted []string
	for len(st.order) >= st.limit {
		oldest := st.order[0]
		st.order = st.order[1:]
		delete(st.entries, oldest)
		evicted = append(evicted, oldest)
	}
	st.entries[s.ID()] = &entry{session: s}
	st.order = append(st.order, s.ID())
	return evicted
}

// With runs fn on the session called id while holding its lock. It reports
// false when no such session exists.
func (st *SessionStore) With(id string, fn func(*session.Session)) bool {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.session)
	return true
}

// Delete removes a session
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.entries[id]; !ok {
		return
	}
	delete(st.entries, id)
	for i, o := range st.order {
		if o == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of stored sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}
