package engine

import "context"

// Storage abstracts the key-value blob persistence behind the store. Keys are
// user-scoped ("{baseKey}-{userID}"); values are versioned JSON envelopes.
type Storage interface {
	// Load returns the raw payload for key, reporting presence separately
	// from errors.
	Load(ctx context.Context, key string) (raw []byte, ok bool, err error)
	// Save replaces the payload for key.
	Save(ctx context.Context, key string, raw []byte) error
	// Backup preserves raw bytes that can no longer be decoded, returning
	// the backup's name. It must never overwrite a previous backup.
	Backup(ctx context.Context, key string, raw []byte, reason string) (string, error)
}
