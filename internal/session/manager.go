package session

import (
	"sync"
	"time"
)

// DefaultTTL is how long an idle session survives.
const DefaultTTL = 30 * time.Minute

const sweepInterval = time.Minute

// Manager owns all sessions, keyed by an opaque session id the caller
// supplies. Locking is per session: mutating one conversation's cache
// never contends with reads of another's. A background sweeper drops
// expired sessions.
type Manager struct {
	capacity int
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[string]*managedSession

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

type managedSession struct {
	mu      sync.Mutex
	session *Session
}

// NewManager creates a manager and starts its expiry sweeper. Call Stop
// to shut the sweeper down.
func NewManager(capacity int, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	m := &Manager{
		capacity: capacity,
		ttl:      ttl,
		sessions: make(map[string]*managedSession),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go m.sweep()
	return m
}

// With runs fn while holding the session's lock, creating the session on
// first use and replacing it if it expired. fn must not call back into the
// Manager for the same session id.
func (m *Manager) With(sessionID string, fn func(*Session)) {
	ms := m.lookup(sessionID)

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.session.IsExpired() {
		ms.session = NewSession(m.capacity, m.ttl)
	}
	ms.session.Touch()
	fn(ms.session)
}

// Reset drops a session explicitly.
func (m *Manager) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stop terminates the sweeper.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		<-m.doneCh
	})
}

func (m *Manager) lookup(sessionID string) *managedSession {
	m.mu.RLock()
	ms, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return ms
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ms, ok := m.sessions[sessionID]; ok {
		return ms
	}
	ms = &managedSession{session: NewSession(m.capacity, m.ttl)}
	m.sessions[sessionID] = ms
	return ms
}

func (m *Manager) sweep() {
	defer close(m.doneCh)
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.dropExpired()
		}
	}
}

func (m *Manager) dropExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, ms := range m.sessions {
		ms.mu.Lock()
		expired := ms.session.IsExpired()
		ms.mu.Unlock()
		if expired {
			delete(m.sessions, id)
		}
	}
}
