package memory

import (
	"context"
	"sync"

	"github.com/vbonduro/photopoet/internal/kv"
)

// Store is an in-memory kv.Store. PutErr, when set, is returned by every Put
// without modifying the stored value.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	PutErr error
	puts   int
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.PutErr != nil {
		return s.PutErr
	}
	s.values[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

// Puts returns the number of successful writes.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// FailPuts makes subsequent writes fail with err; nil restores normal writes.
func (s *Store) FailPuts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PutErr = err
}

func (s *Store) Close() error { return nil }
