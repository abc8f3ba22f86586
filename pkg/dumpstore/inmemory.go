package dumpstore

import (
	"container/list"
	"context"
	"fmt"
	"sync"
)

// InMemoryStore is a thread-safe, size-limited dump store with least recently
// used eviction, for hosts that only need the most recent failure dumps.
type InMemoryStore struct {
	maxSize int

	mu      sync.Mutex
	ll      *list.List               // Tracks record recency.
	records map[string]*list.Element // Exchange id to list element.
}

// NewInMemoryStore creates a store holding at most maxSize records.
func NewInMemoryStore(maxSize int) (*InMemoryStore, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("maxSize must be greater than 0")
	}
	return &InMemoryStore{
		maxSize: maxSize,
		ll:      list.New(),
		records: make(map[string]*list.Element),
	}, nil
}

// Write persists a record, evicting the least recently used record when the
// store is full.
func (s *InMemoryStore) Write(_ context.Context, record *Record) error {
	if record == nil || record.ExchangeID == "" {
		return fmt.Errorf("record must carry an exchange id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.records[record.ExchangeID]; ok {
		elem.Value = record
		s.ll.MoveToFront(elem)
		return nil
	}

	s.records[record.ExchangeID] = s.ll.PushFront(record)
	if s.ll.Len() > s.maxSize {
		s.evict()
	}
	return nil
}

// Fetch returns the record for an exchange and marks it recently used.
func (s *InMemoryStore) Fetch(_ context.Context, exchangeID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.records[exchangeID]
	if !ok {
		return nil, ErrNotFound
	}
	s.ll.MoveToFront(elem)
	return elem.Value.(*Record), nil
}

// evict removes the least recently used record. Callers must hold the mutex.
func (s *InMemoryStore) evict() {
	oldest := s.ll.Back()
	if oldest == nil {
		return
	}
	record := s.ll.Remove(oldest).(*Record)
	delete(s.records, record.ExchangeID)
}
