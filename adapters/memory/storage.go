package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store is a concurrent in-memory Storage implementation. Useful for tests
// and anonymous sessions that never touch disk.
type Store struct {
	mu      sync.Mutex
	data    map[string][]byte
	backups map[string][]byte
}

func New() *Store {
	return &Store{data: map[string][]byte{}, backups: map[string][]byte{}}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, true, nil
}

func (s *Store) Save(_ context.Context, key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(raw))
	copy(cp, raw)
	s.data[key] = cp
	return nil
}

func (s *Store) Backup(_ context.Context, key string, raw []byte, reason string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fmt.Sprintf("%s.%s.%d.bak", key, reason, time.Now().UnixNano())
	cp := make([]byte, len(raw))
	copy(cp, raw)
	s.backups[name] = cp
	return name, nil
}

// Backups returns a copy of the backup map, keyed by backup name.
func (s *Store) Backups() map[string][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]byte, len(s.backups))
	for k, v := range s.backups {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
