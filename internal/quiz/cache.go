// SPDX-License-Identifier: MIT

package quiz

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	quiz       *Quiz
	expiration time.Time
}

func (e *cacheEntry) expired() bool {
	return time.Now().After(e.expiration)
}

// CachedStore wraps a Store with an in-memory TTL cache. Answer validation
// fetches the quiz on every submission, so a short-lived cache keeps one
// busy session from hammering the content service. Concurrent misses for
// the same quiz are collapsed into a single upstream fetch.
type CachedStore struct {
	next Store
	ttl  time.Duration

	mu      sync.RWMutex
	entries map[string]*cacheEntry
	group   singleflight.Group
}

// NewCachedStore wraps next with a cache holding quizzes for ttl.
func NewCachedStore(next Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next:    next,
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
	}
}

// FindByID implements Store.
func (c *CachedStore) FindByID(ctx context.Context, quizID string) (*Quiz, error) {
	c.mu.RLock()
	e, ok := c.entries[quizID]
	c.mu.RUnlock()
	if ok && !e.expired() {
		return e.quiz, nil
	}

	v, err, _ := c.group.Do(quizID, func() (any, error) {
		q, err := c.next.FindByID(ctx, quizID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[quizID] = &cacheEntry{quiz: q, expiration: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Quiz), nil
}

// Invalidate drops a quiz from the cache.
func (c *CachedStore) Invalidate(quizID string) {
	c.mu.Lock()
	delete(c.entries, quizID)
	c.mu.Unlock()
}
