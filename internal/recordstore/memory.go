package recordstore

import (
	"context"
	"sync"
)

// MemoryStore keeps payloads in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, collection string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.records[collection]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), payload...), nil
}

func (s *MemoryStore) Put(ctx context.Context, collection string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[collection] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
