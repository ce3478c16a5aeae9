package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventXPAdded             EventType = "xp_added"
	EventLevelUp             EventType = "level_up"
	EventAchievementUnlocked EventType = "achievement_unlocked"
	EventCosmeticUnlocked    EventType = "cosmetic_unlocked"
	EventStateReplaced       EventType = "state_replaced"
)

// Event represents an immutable domain event.
type Event struct {
	Type        EventType     `json:"type"`
	Time        time.Time     `json:"time"`
	UserID      UserID        `json:"user_id"`
	Reason      Reason        `json:"reason,omitempty"`
	XPGained    int64         `json:"xp_gained,omitempty"`
	TotalXP     int64         `json:"total_xp,omitempty"`
	Level       int           `json:"level,omitempty"`
	Combo       int           `json:"combo,omitempty"`
	Achievement AchievementID `json:"achievement,omitempty"`
	Cosmetic    CosmeticID    `json:"cosmetic,omitempty"`
}

func NewXPAdded(user UserID, reason Reason, gained, total int64, combo int) Event {
	return Event{Type: EventXPAdded, Time: time.Now().UTC(), UserID: user, Reason: reason, XPGained: gained, TotalXP: total, Combo: combo}
}

func NewLevelUp(user UserID, level int) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level}
}

func NewAchievementUnlocked(user UserID, id AchievementID) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), UserID: user, Achievement: id}
}

func NewCosmeticUnlocked(user UserID, id CosmeticID) Event {
	return Event{Type: EventCosmeticUnlocked, Time: time.Now().UTC(), UserID: user, Cosmetic: id}
}

func NewStateReplaced(user UserID, total int64, level int) Event {
	return Event{Type: EventStateReplaced, Time: time.Now().UTC(), UserID: user, TotalXP: total, Level: level}
}
