package session

import "sync"

// Store is the session table. Implementations must make Insert an atomic
// check-and-set so two sessions can never share an identifier.
type Store interface {
	// Insert adds s under id and reports false if id is taken
	Insert(id string, s *Session) bool
	Get(id string) (*Session, bool)
	// Delete removes id and reports whether it was present
	Delete(id string) bool
	Len() int
	// All returns a snapshot of the registered sessions
	All() []*Session
}

// MemoryStore is a mutex guarded in-process Store
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Insert(id string, s *Session) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.sessions[id]; taken {
		return false
	}
	m.sessions[id] = s
	return true
}

func (m *MemoryStore) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	return s, ok
}

func (m *MemoryStore) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
