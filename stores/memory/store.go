package memory

import (
	"context"
	"sync"

	"artisan-canvas/core"

	"github.com/sirupsen/logrus"
)

// Store keeps values in a process-local map. Everything is lost on restart.
type Store struct {
	values map[string][]byte
	mu     sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.values[key]
	if !ok {
		logrus.WithField("key", key).Debug("Key not found")
		return nil, core.ErrNotFound
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := core.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.values[key] = stored
	logrus.WithFields(logrus.Fields{
		"key":         key,
		"data_length": len(value),
	}).Debug("Value stored")
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	logrus.WithField("key", key).Debug("Value deleted")
	return nil
}
