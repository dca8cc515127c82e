package content

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process LRU store. A max of zero or less disables the bound.
type MemoryStore struct {
	mu    sync.Mutex
	max   int
	ll    *list.List
	items map[string]*list.Element
}

type memoryItem struct {
	key   string
	entry *Entry
}

// NewMemoryStore creates a store holding at most max entries.
func NewMemoryStore(max int) *MemoryStore {
	return &MemoryStore{
		max:   max,
		ll:    list.New(),
		items: make(map[string]*list.Element),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, nil
	}
	s.ll.MoveToFront(el)
	return el.Value.(*memoryItem).entry, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		el.Value.(*memoryItem).entry = entry
		s.ll.MoveToFront(el)
		return nil
	}
	s.items[key] = s.ll.PushFront(&memoryItem{key: key, entry: entry})

	for s.max > 0 && s.ll.Len() > s.max {
		s.removeLocked(s.ll.Back())
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.removeLocked(el)
	}
	return nil
}

func (s *MemoryStore) DeleteUser(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, el := range s.items {
		if keyBelongsTo(key, userID) {
			s.removeLocked(el)
			n++
		}
	}
	return n, nil
}

// Sweep drops every entry that is no longer fresh at now.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for el := s.ll.Back(); el != nil; {
		prev := el.Prev()
		if !el.Value.(*memoryItem).entry.Fresh(now) {
			s.removeLocked(el)
			n++
		}
		el = prev
	}
	return n, nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ll.Len()
}

func (s *MemoryStore) removeLocked(el *list.Element) {
	s.ll.Remove(el)
	delete(s.items, el.Value.(*memoryItem).key)
}
