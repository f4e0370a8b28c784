// SPDX-License-Identifier: MIT

package quiz

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]*Quiz
}

// NewMemoryStore creates an empty in-memory quiz store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{quizzes: make(map[string]*Quiz)}
}

// Put stores or replaces a quiz.
func (s *MemoryStore) Put(q *Quiz) {
	s.mu.Lock()
	s.quizzes[q.ID] = q
	s.mu.Unlock()
}

// FindByID implements Store.
func (s *MemoryStore) FindByID(_ context.Context, quizID string) (*Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return nil, ErrNotFound
	}
	return q, nil
}
