package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		subjects: make(map[string]Subject),
		tokens:   make(map[string]string),
	}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	subjects map[string]Subject
	tokens   map[string]string
}

// Register makes a subject known so Find can return it.
func (s *InMemorySessionStore) Register(subject Subject) {
	s.mu.Lock()
	s.subjects[subject.ID] = subject
	s.mu.Unlock()
}

// Save records the user's current refresh token.
func (s *InMemorySessionStore) Save(_ context.Context, userID, refreshToken string) error {
	s.mu.Lock()
	s.tokens[userID] = refreshToken
	if _, ok := s.subjects[userID]; !ok {
		s.subjects[userID] = Subject{ID: userID}
	}
	s.mu.Unlock()
	return nil
}

// Find retrieves the user's current refresh token.
func (s *InMemorySessionStore) Find(_ context.Context, userID string) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[userID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return Session{Subject: s.subjects[userID], RefreshToken: token}, nil
}

// Delete clears the user's refresh token.
func (s *InMemorySessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.tokens, userID)
	s.mu.Unlock()
	return nil
}

// Has reports whether the user holds a refresh token. Useful for tests.
func (s *InMemorySessionStore) Has(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[userID]
	return ok
}
