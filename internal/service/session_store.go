package service

import (
	"sync"

	"tg-link-service/internal/domain"
)

// SessionStore хранилище сессий тенантов в памяти.
// Пишет только AuthenticateAll, читают запросы к API; сессии неизменяемы,
// поэтому читатель всегда получает целостный снимок.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session // ключ - ID тенанта
}

// NewSessionStore создает пустое хранилище
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.Session),
	}
}

// Get возвращает сессию тенанта, если она есть
func (s *SessionStore) Get(tenantID string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[tenantID]
	return session, ok
}

// Put сохраняет или заменяет сессию тенанта
func (s *SessionStore) Put(session domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.TenantID] = session
}

// Len - количество активных сессий
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
