// Package memstore is an in-process LRU respcache.Storage, grounded on the
// teacher's pkg/kernel.InMemoryBlobStore (Mindburn-Labs-helm): a mutex
// guarded map, generalized here with a container/list LRU ring since the
// response cache is bounded (unlike the teacher's unbounded forensic blob
// store, which never evicts).
package memstore

import (
	"container/list"
	"context"
	"sync"

	"github.com/oorabona/unireq/pkg/respcache"
)

// Store is a bounded, concurrency-safe in-memory respcache.Storage.
type Store struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	order    *list.List
}

type record struct {
	key   string
	entry respcache.Entry
}

// New creates a Store holding at most capacity entries, evicting the
// least-recently-used one once full. capacity<=0 means unbounded.
func New(capacity int) *Store {
	return &Store{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get implements respcache.Storage.
func (s *Store) Get(_ context.Context, key string) (respcache.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		return respcache.Entry{}, false, nil
	}
	s.order.MoveToFront(el)
	return el.Value.(*record).entry, true, nil
}

// Put implements respcache.Storage.
func (s *Store) Put(_ context.Context, key string, e respcache.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		el.Value.(*record).entry = e
		s.order.MoveToFront(el)
		return nil
	}

	el := s.order.PushFront(&record{key: key, entry: e})
	s.entries[key] = el

	if s.capacity > 0 {
		for len(s.entries) > s.capacity {
			back := s.order.Back()
			if back == nil {
				break
			}
			s.order.Remove(back)
			delete(s.entries, back.Value.(*record).key)
		}
	}
	return nil
}

// Delete implements respcache.Storage.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[key]; ok {
		s.order.Remove(el)
		delete(s.entries, key)
	}
	return nil
}

// Len reports the number of cached entries, for tests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
