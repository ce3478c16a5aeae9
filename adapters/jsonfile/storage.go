package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Store persists each key as a JSON file under a root directory, with
// backups of undecodable payloads kept beside them. Suitable for the desktop
// shell's per-workspace storage root.
type Store struct {
	mu   sync.Mutex
	root string
}

func New(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, "backups"), 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, sanitize(key)+".json")
}

// sanitize keeps keys filesystem-safe without losing uniqueness for the
// "{baseKey}-{userID}" shapes we actually store.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, key)
}

func (s *Store) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (s *Store) Save(_ context.Context, key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Backup writes the raw bytes to a timestamped file under backups/ and never
// overwrites an earlier snapshot.
func (s *Store) Backup(_ context.Context, key string, raw []byte, reason string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fmt.Sprintf("%s.%s.%s.bak", sanitize(key), sanitize(reason), time.Now().UTC().Format("20060102T150405.000000000"))
	if err := os.WriteFile(filepath.Join(s.root, "backups", name), raw, 0o644); err != nil {
		return "", err
	}
	return name, nil
}
