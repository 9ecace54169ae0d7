package service

import (
	"sync"
	"time"

	"leadbook/core/constants"
	"leadbook/core/logger"
	"leadbook/modules/wizard/entity"
)

// SessionStore holds open wizard sessions in memory. Sessions are
// transient by design: close discards them, restarts discard them, and
// idle ones are swept after a TTL. Nothing wizard-scoped is persisted.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*entity.WizardSession
	ttl      time.Duration
	done     chan struct{}
}

func NewSessionStore() *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*entity.WizardSession),
		ttl:      constants.WizardSessionTTL,
		done:     make(chan struct{}),
	}
	go s.janitor()
	return s
}

func (s *SessionStore) Put(session *entity.WizardSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get returns a detached snapshot of the session, or false when it does
// not exist or has idle-expired.
func (s *SessionStore) Get(id string) (entity.WizardSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return entity.WizardSession{}, false
	}
	return session.Clone(), true
}

// Mutate applies fn to the live session under the lock and returns the
// resulting snapshot. All state transitions go through here so reads
// never observe a half-applied change.
func (s *SessionStore) Mutate(id string, fn func(*entity.WizardSession)) (entity.WizardSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok || s.expired(session) {
		return entity.WizardSession{}, false
	}
	fn(session)
	session.LastActiveAt = time.Now()
	return session.Clone(), true
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *SessionStore) Close() {
	close(s.done)
}

func (s *SessionStore) expired(session *entity.WizardSession) bool {
	return time.Since(session.LastActiveAt) > s.ttl
}

func (s *SessionStore) janitor() {
	ticker := time.NewTicker(s.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *SessionStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			logger.Info("SessionStore:Sweep:Expired", "session_id", id)
		}
	}
}
