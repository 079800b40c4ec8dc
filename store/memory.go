package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

var _ Store = &MemoryStore{}

// MemoryStore implements Store using an in-memory map
type MemoryStore struct {
	mu        sync.RWMutex
	documents map[string]*Record
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*Record),
		now:       time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, uri string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.documents[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return rec.Copy(), nil
}

func (s *MemoryStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateURI(rec.URI); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents[rec.URI] = prepare(rec, s.documents[rec.URI], s.now())
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[uri]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	delete(s.documents, uri)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for uri, rec := range s.documents {
		if strings.HasPrefix(uri, prefix) {
			out = append(out, rec.Copy())
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) Apply(ctx context.Context, changes []Change) error {
	for _, c := range changes {
		if c.Record != nil {
			if err := ValidateURI(c.URI); err != nil {
				return err
			}
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for _, c := range changes {
		if c.Record == nil {
			delete(s.documents, c.URI)
			continue
		}
		rec := c.Record.Copy()
		rec.URI = c.URI
		s.documents[c.URI] = prepare(rec, s.documents[c.URI], now)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
