package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu  sync.RWMutex
	ws  map[string]Workspace
	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ws:  make(map[string]Workspace),
		now: time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, ws Workspace) (Workspace, error) {
	c, err := clone(ws)
	if err != nil {
		return Workspace{}, err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.UpdatedAt = s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ws[c.ID] = c
	return clone(c)
}

func (s *MemoryStore) Get(_ context.Context, id string) (Workspace, error) {
	s.mu.RLock()
	ws, ok := s.ws[id]
	s.mu.RUnlock()
	if !ok {
		return Workspace{}, ErrNotFound
	}
	return clone(ws)
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Workspace) error) (Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.ws[id]
	if !ok {
		return Workspace{}, ErrNotFound
	}
	next, err := clone(cur)
	if err != nil {
		return Workspace{}, err
	}
	if err := fn(&next); err != nil {
		return Workspace{}, err
	}
	next.ID = id
	next.UpdatedAt = s.now().UTC()
	s.ws[id] = next
	return clone(next)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ws[id]; !ok {
		return ErrNotFound
	}
	delete(s.ws, id)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ws), nil
}
