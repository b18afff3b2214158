package out

import (
	"context"
	"sync"

	monitorout "camwatch/internal/modules/monitor/port/out"
	apperrors "camwatch/internal/platform/errors"
)

// MemorySessionStore lives as long as the process, like a browser tab's
// session storage.
type MemorySessionStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemorySessionStore() monitorout.SessionStore {
	return &MemorySessionStore{values: map[string]string{}}
}

func (s *MemorySessionStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (s *MemorySessionStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

func (s *MemorySessionStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.values, key)
	s.mu.Unlock()
	return nil
}
