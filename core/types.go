package core

import (
	"errors"
	"strings"
	"time"
)

// UserID identifies the owner of a gamification state. The DefaultUser
// sentinel is used for anonymous local sessions.
type UserID string

// DefaultUser scopes state that has no signed-in owner.
const DefaultUser UserID = "default"

// TaskID identifies an external task for reward idempotency.
type TaskID string

// AchievementID names an entry in the achievement catalog.
type AchievementID string

// CosmeticID names an entry in the cosmetic catalog.
type CosmeticID string

// Reason classifies the source of an XP award.
type Reason string

const (
	ReasonDoDItem         Reason = "dod_item"
	ReasonWorkflowStep    Reason = "workflow_step"
	ReasonProjectComplete Reason = "project_complete"
	ReasonCompassSnapshot Reason = "compass_snapshot"
)

// BaseXP returns the configured base award for a reason, or 0 for unknown
// reasons. These are tuning constants, not protocol.
func BaseXP(r Reason) int64 {
	switch r {
	case ReasonDoDItem:
		return 10
	case ReasonWorkflowStep:
		return 50
	case ReasonProjectComplete:
		return 200
	case ReasonCompassSnapshot:
		return 5
	}
	return 0
}

// State is a snapshot of a user's gamification progress.
// Implementations should return deep copies to maintain immutability guarantees.
type State struct {
	UserID                 UserID                      `json:"user_id"`
	XP                     int64                       `json:"xp"`
	Level                  int                         `json:"level"`
	Combo                  int                         `json:"combo"`
	ComboExpiry            time.Time                   `json:"combo_expiry"`
	Streak                 int                         `json:"streak"`
	LastActiveDate         string                      `json:"last_active_date"`
	Achievements           map[AchievementID]struct{}  `json:"achievements"`
	TotalTasksCompleted    int64                       `json:"total_tasks_completed"`
	TotalProjectsCompleted int64                       `json:"total_projects_completed"`
	SoundEnabled           bool                        `json:"sound_enabled"`
	CompletedTaskIDs       map[TaskID]struct{}         `json:"completed_task_ids"`
	UnlockedCosmetics      map[CosmeticID]struct{}     `json:"unlocked_cosmetics"`
	EquippedCosmetics      map[CosmeticSlot]CosmeticID `json:"equipped_cosmetics"`
	Updated                time.Time                   `json:"updated"`
}

// NewState returns the default state for a user: level 1, nothing unlocked,
// sound on.
func NewState(user UserID) State {
	return State{
		UserID:            user,
		Level:             1,
		SoundEnabled:      true,
		Achievements:      map[AchievementID]struct{}{},
		CompletedTaskIDs:  map[TaskID]struct{}{},
		UnlockedCosmetics: map[CosmeticID]struct{}{},
		EquippedCosmetics: map[CosmeticSlot]CosmeticID{},
	}
}

// Clone returns a deep copy of the state to uphold immutability.
func (s State) Clone() State {
	cp := s
	cp.Achievements = make(map[AchievementID]struct{}, len(s.Achievements))
	for k := range s.Achievements {
		cp.Achievements[k] = struct{}{}
	}
	cp.CompletedTaskIDs = make(map[TaskID]struct{}, len(s.CompletedTaskIDs))
	for k := range s.CompletedTaskIDs {
		cp.CompletedTaskIDs[k] = struct{}{}
	}
	cp.UnlockedCosmetics = make(map[CosmeticID]struct{}, len(s.UnlockedCosmetics))
	for k := range s.UnlockedCosmetics {
		cp.UnlockedCosmetics[k] = struct{}{}
	}
	cp.EquippedCosmetics = make(map[CosmeticSlot]CosmeticID, len(s.EquippedCosmetics))
	for k, v := range s.EquippedCosmetics {
		cp.EquippedCosmetics[k] = v
	}
	return cp
}

// Normalize fills nil collections so decoded states are safe to mutate.
func (s *State) Normalize() {
	if s.UserID == "" {
		s.UserID = DefaultUser
	}
	if s.Level < 1 {
		s.Level = 1
	}
	if s.Achievements == nil {
		s.Achievements = map[AchievementID]struct{}{}
	}
	if s.CompletedTaskIDs == nil {
		s.CompletedTaskIDs = map[TaskID]struct{}{}
	}
	if s.UnlockedCosmetics == nil {
		s.UnlockedCosmetics = map[CosmeticID]struct{}{}
	}
	if s.EquippedCosmetics == nil {
		s.EquippedCosmetics = map[CosmeticSlot]CosmeticID{}
	}
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// Clock abstracts wall-clock time so combo expiry, streak day boundaries,
// and time-of-day achievement checks are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
