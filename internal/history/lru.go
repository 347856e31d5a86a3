package history

import (
	"sync"

	"github.com/hallvard/steward/internal/cmdexec"
)

// CachedStore is an in-memory LRU cache that delegates to a backing
// Store on miss. It fronts the Archive for by-ID lookups, which the
// HTTP layer issues far more often than it writes.
type CachedStore struct {
	mu   sync.Mutex
	cap  int
	back Store

	// Doubly-linked list for LRU ordering (most recent at head).
	head, tail *lruEntry
	items      map[string]*lruEntry
}

type lruEntry struct {
	key    string
	result *cmdexec.Result
	prev   *lruEntry
	next   *lruEntry
}

// NewCachedStore creates an LRU cache with the given capacity that
// delegates to back on cache misses. Capacity must be >= 1.
func NewCachedStore(cap int, back Store) *CachedStore {
	if cap < 1 {
		cap = 1
	}
	return &CachedStore{
		cap:   cap,
		back:  back,
		items: make(map[string]*lruEntry, cap),
	}
}

// Save writes the result to the cache and delegates to the backing store.
func (s *CachedStore) Save(result *cmdexec.Result) error {
	s.mu.Lock()
	if e, ok := s.items[result.ID]; ok {
		e.result = result
		s.moveToFront(e)
	} else {
		e := &lruEntry{key: result.ID, result: result}
		s.items[result.ID] = e
		s.pushFront(e)
		if len(s.items) > s.cap {
			s.evict()
		}
	}
	s.mu.Unlock()

	return s.back.Save(result)
}

// Load checks the cache first. On miss, loads from the backing store
// and promotes the result into the cache.
func (s *CachedStore) Load(id string) (*cmdexec.Result, error) {
	s.mu.Lock()
	if e, ok := s.items[id]; ok {
		s.moveToFront(e)
		r := e.result
		s.mu.Unlock()
		return r, nil
	}
	s.mu.Unlock()

	result, err := s.back.Load(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if e, ok := s.items[id]; ok {
		// Concurrent load already inserted it.
		e.result = result
		s.moveToFront(e)
	} else {
		e := &lruEntry{key: id, result: result}
		s.items[id] = e
		s.pushFront(e)
		if len(s.items) > s.cap {
			s.evict()
		}
	}
	s.mu.Unlock()

	return result, nil
}

func (s *CachedStore) pushFront(e *lruEntry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *CachedStore) moveToFront(e *lruEntry) {
	if s.head == e {
		return
	}
	s.remove(e)
	s.pushFront(e)
}

func (s *CachedStore) remove(e *lruEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (s *CachedStore) evict() {
	if s.tail == nil {
		return
	}
	e := s.tail
	s.remove(e)
	delete(s.items, e.key)
}
