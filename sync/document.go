package sync

import (
	"context"
	"time"

	"gesushell/core"
)

// Document is the per-user remote representation of gamification progress.
// Version is the writer's timestamp in milliseconds; WriterID lets listeners
// drop echoes of their own writes.
type Document struct {
	XP                     int64             `json:"xp"`
	Level                  int               `json:"level"`
	Streak                 int               `json:"streak"`
	Achievements           []string          `json:"achievements"`
	UnlockedCosmetics      []string          `json:"unlocked_cosmetics"`
	EquippedCosmetics      map[string]string `json:"equipped_cosmetics"`
	TotalTasksCompleted    int64             `json:"total_tasks_completed"`
	TotalProjectsCompleted int64             `json:"total_projects_completed"`
	LastSyncAt             time.Time         `json:"last_sync_at"`
	Version                int64             `json:"version"`
	WriterID               string            `json:"writer_id"`
}

// DocumentStore is the opaque remote document service: get, merge-write, and
// change subscription. The wire protocol behind it is out of scope.
type DocumentStore interface {
	// Get returns the user's document, or nil when absent.
	Get(ctx context.Context, user core.UserID) (*Document, error)
	// Set upserts the user's document and notifies subscribers.
	Set(ctx context.Context, user core.UserID, doc Document) error
	// Subscribe invokes fn for every remote write to the user's document,
	// including this process's own (callers filter by WriterID). Returns an
	// unsubscribe func.
	Subscribe(ctx context.Context, user core.UserID, fn func(Document)) (func(), error)
}

// DocumentFromState projects the syncable fields of a state.
func DocumentFromState(s core.State, writer string, now time.Time) Document {
	doc := Document{
		XP:                     s.XP,
		Level:                  s.Level,
		Streak:                 s.Streak,
		TotalTasksCompleted:    s.TotalTasksCompleted,
		TotalProjectsCompleted: s.TotalProjectsCompleted,
		EquippedCosmetics:      map[string]string{},
		LastSyncAt:             now,
		Version:                now.UnixMilli(),
		WriterID:               writer,
	}
	for id := range s.Achievements {
		doc.Achievements = append(doc.Achievements, string(id))
	}
	for id := range s.UnlockedCosmetics {
		doc.UnlockedCosmetics = append(doc.UnlockedCosmetics, string(id))
	}
	for slot, id := range s.EquippedCosmetics {
		doc.EquippedCosmetics[string(slot)] = string(id)
	}
	return doc
}

// ToState expands a document into a mergeable state for user.
func (d Document) ToState(user core.UserID) core.State {
	st := core.NewState(user)
	st.XP = d.XP
	st.Level = d.Level
	st.Streak = d.Streak
	st.TotalTasksCompleted = d.TotalTasksCompleted
	st.TotalProjectsCompleted = d.TotalProjectsCompleted
	for _, id := range d.Achievements {
		st.Achievements[core.AchievementID(id)] = struct{}{}
	}
	for _, id := range d.UnlockedCosmetics {
		st.UnlockedCosmetics[core.CosmeticID(id)] = struct{}{}
	}
	for slot, id := range d.EquippedCosmetics {
		st.EquippedCosmetics[core.CosmeticSlot(slot)] = core.CosmeticID(id)
	}
	st.Updated = d.LastSyncAt
	return st
}
