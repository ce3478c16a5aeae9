package engine

import (
	"context"
	"encoding/json"
	"time"

	"gesushell/core"
)

// SchemaVersion is the current persisted envelope version.
const SchemaVersion = 1

// DefaultBaseKey prefixes the per-user storage key.
const DefaultBaseKey = "gamification"

type envelope struct {
	SchemaVersion int        `json:"schema_version"`
	State         core.State `json:"state"`
}

// SchemaWarning records a payload that could not be decoded and was backed up
// instead of discarded. Surfaced to ops; no automatic migration is attempted.
type SchemaWarning struct {
	Key         string    `json:"key"`
	Kind        string    `json:"kind"` // "corrupt" or "version_mismatch"
	FromVersion int       `json:"from_version,omitempty"`
	BackupName  string    `json:"backup_name,omitempty"`
	At          time.Time `json:"at"`
}

// StorageKey builds the user-scoped key for a base key.
func StorageKey(baseKey string, user core.UserID) string {
	if user == "" {
		user = core.DefaultUser
	}
	return baseKey + "-" + string(user)
}

func encodeState(s core.State) ([]byte, error) {
	return json.Marshal(envelope{SchemaVersion: SchemaVersion, State: s})
}

// decodeState parses a persisted envelope. On unparseable JSON or a version
// mismatch (including versions from a newer release) it backs the raw bytes
// up through storage and returns a warning alongside defaults; the stored
// payload is never silently discarded.
func decodeState(ctx context.Context, storage Storage, key string, raw []byte, user core.UserID, now time.Time) (core.State, *SchemaWarning) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		w := &SchemaWarning{Key: key, Kind: "corrupt", At: now}
		w.BackupName, _ = backupQuietly(ctx, storage, key, raw, w.Kind)
		return core.NewState(user), w
	}
	if env.SchemaVersion != SchemaVersion {
		w := &SchemaWarning{Key: key, Kind: "version_mismatch", FromVersion: env.SchemaVersion, At: now}
		w.BackupName, _ = backupQuietly(ctx, storage, key, raw, w.Kind)
		return core.NewState(user), w
	}
	st := env.State
	st.Normalize()
	if st.UserID != user {
		st.UserID = user
	}
	return st, nil
}

// backupQuietly never propagates: a failed backup must not take the session
// down with it.
func backupQuietly(ctx context.Context, storage Storage, key string, raw []byte, reason string) (string, error) {
	if storage == nil {
		return "", nil
	}
	return storage.Backup(ctx, key, raw, reason)
}
