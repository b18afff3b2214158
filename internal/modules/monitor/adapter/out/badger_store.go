package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/timshannon/badgerhold/v4"

	apperrors "camwatch/internal/platform/errors"
)

type sessionEntry struct {
	Key   string
	Value string
}

// BadgerSessionStore keeps session keys in an embedded Badger database.
type BadgerSessionStore struct {
	store *badgerhold.Store
}

func NewBadgerSessionStore(dir string) (*BadgerSessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return nil, fmt.Errorf("create badger dir: %w", err)
	}
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil
	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerSessionStore{store: store}, nil
}

func (s *BadgerSessionStore) Get(_ context.Context, key string) (string, error) {
	var entry sessionEntry
	err := s.store.Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", apperrors.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session key %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *BadgerSessionStore) Set(_ context.Context, key, value string) error {
	if err := s.store.Upsert(key, &sessionEntry{Key: key, Value: value}); err != nil {
		return fmt.Errorf("set session key %s: %w", key, err)
	}
	return nil
}

func (s *BadgerSessionStore) Remove(_ context.Context, key string) error {
	err := s.store.Delete(key, sessionEntry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("remove session key %s: %w", key, err)
	}
	return nil
}

func (s *BadgerSessionStore) Close() error {
	return s.store.Close()
}
