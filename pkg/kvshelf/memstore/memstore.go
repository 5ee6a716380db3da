// Package memstore is the trivial in-memory backend: a mutex-guarded map
// where each key holds either a string or a doubly-linked list of
// strings.
package memstore

import (
	"container/list"
	"errors"
	"sync"
)

// ErrNotFound is returned when a key is absent, or holds the wrong value
// kind for the call.
var ErrNotFound = errors.New("memstore: not found")

type entry struct {
	isList bool
	str    []byte
	list   *list.List // elements are []byte
}

// Store is a sync.Mutex-guarded map[string]*entry.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[string(key)] = &entry{str: cloneBytes(value)}

	return nil
}

func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[string(key)]
	if e == nil || e.isList {
		return nil, ErrNotFound
	}

	return cloneBytes(e.str), nil
}

func (s *Store) Remove(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[string(key)]
	if e == nil || e.isList {
		return ErrNotFound
	}

	delete(s.entries, string(key))

	return nil
}

func (s *Store) FetchRemove(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[string(key)]
	if e == nil || e.isList {
		return nil, ErrNotFound
	}

	delete(s.entries, string(key))

	return cloneBytes(e.str), nil
}

func (s *Store) Append(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.listEntry(key)
	e.list.PushBack(cloneBytes(value))

	return nil
}

func (s *Store) Prepend(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.listEntry(key)
	e.list.PushFront(cloneBytes(value))

	return nil
}

func (s *Store) Pop(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[string(key)]
	if e == nil || !e.isList || e.list.Len() == 0 {
		return nil, ErrNotFound
	}

	back := e.list.Back()
	e.list.Remove(back)

	return back.Value.([]byte), nil
}

func (s *Store) PopFirst(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entries[string(key)]
	if e == nil || !e.isList || e.list.Len() == 0 {
		return nil, ErrNotFound
	}

	front := e.list.Front()
	e.list.Remove(front)

	return front.Value.([]byte), nil
}

func (s *Store) Close() error { return nil }

// listEntry returns key's list entry, converting a string into an empty
// list or creating a new one if key is absent.
func (s *Store) listEntry(key []byte) *entry {
	e := s.entries[string(key)]
	if e == nil || !e.isList {
		e = &entry{isList: true, list: list.New()}
		s.entries[string(key)] = e
	}

	return e
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}
