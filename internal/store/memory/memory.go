// Package memory is the in-memory Snapshots implementation used in dev mode
// and throughout the tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"warungpay/backend/internal/domain"
)

type Store struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func New() *Store {
	return &Store{docs: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string, dest any) error {
	s.mu.RLock()
	doc, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(doc, dest); err != nil {
		return fmt.Errorf("%w: decode snapshot %q: %v", domain.ErrStorage, key, err)
	}
	return nil
}

func (s *Store) Save(_ context.Context, key string, value any) error {
	doc, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot %q: %v", domain.ErrStorage, key, err)
	}
	s.mu.Lock()
	s.docs[key] = doc
	s.mu.Unlock()
	return nil
}
