// Package memory provides an in-process CacheStore.
package memory

import (
	"container/list"
	"context"
	"path"
	"sync"
	"time"

	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/core/ports/driven"
	"github.com/Seedline-Foundation/Coindailynow-sub003/internal/runtime"
)

// Verify interface compliance
var _ driven.CacheStore = (*CacheStore)(nil)

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// CacheStore is a bounded TTL map. Once capacity is exceeded the oldest
// inserted entry is evicted; reads do not refresh an entry's position.
type CacheStore struct {
	mu       sync.Mutex
	capacity int
	clock    driven.Clock
	order    *list.List // front = oldest
	entries  map[string]*list.Element
}

// NewCacheStore creates a CacheStore holding at most capacity entries
func NewCacheStore(capacity int, clock driven.Clock) *CacheStore {
	if capacity <= 0 {
		capacity = 1000
	}
	if clock == nil {
		clock = runtime.SystemClock{}
	}
	return &CacheStore{
		capacity: capacity,
		clock:    clock,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the value for key unless it has expired
func (s *CacheStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	e := el.Value.(*entry)
	if !s.clock.Now().Before(e.expiresAt) {
		s.remove(el)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores value for ttl. Overwriting a key keeps its original insertion
// position.
func (s *CacheStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	expiresAt := s.clock.Now().Add(ttl)
	if el, ok := s.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		return nil
	}

	s.entries[key] = s.order.PushBack(&entry{key: key, value: value, expiresAt: expiresAt})
	for s.order.Len() > s.capacity {
		s.remove(s.order.Front())
	}
	return nil
}

// Invalidate removes every key matching the glob pattern
func (s *CacheStore) Invalidate(_ context.Context, pattern string) (int, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, el := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			s.remove(el)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included
func (s *CacheStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *CacheStore) remove(el *list.Element) {
	e := s.order.Remove(el).(*entry)
	delete(s.entries, e.key)
}
