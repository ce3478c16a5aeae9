package core

import "time"

// Achievement is a one-time unlockable milestone with a stat-based predicate.
type Achievement struct {
	ID          AchievementID               `json:"id"`
	Name        string                      `json:"name"`
	Description string                      `json:"description"`
	Icon        string                      `json:"icon"`
	Predicate   func(State, time.Time) bool `json:"-"`
}

// AllAchievements returns the static achievement catalog.
//
// The early_bird/night_owl predicates check the wall-clock hour on every
// award, not just the first of the day. Known quirk, kept as shipped.
func AllAchievements() []Achievement {
	return []Achievement{
		{
			ID: "first_blood", Name: "First Blood", Icon: "🩸",
			Description: "Complete your first task.",
			Predicate:   func(s State, _ time.Time) bool { return s.TotalTasksCompleted >= 1 },
		},
		{
			ID: "centurion", Name: "Centurion", Icon: "🏛️",
			Description: "Complete 100 tasks.",
			Predicate:   func(s State, _ time.Time) bool { return s.TotalTasksCompleted >= 100 },
		},
		{
			ID: "on_fire", Name: "On Fire", Icon: "🔥",
			Description: "Keep a 7-day streak alive.",
			Predicate:   func(s State, _ time.Time) bool { return s.Streak >= 7 },
		},
		{
			ID: "combo_master", Name: "Combo Master", Icon: "⚡",
			Description: "Chain 10 actions in one combo.",
			Predicate:   func(s State, _ time.Time) bool { return s.Combo >= 10 },
		},
		{
			ID: "perfectionist", Name: "Perfectionist", Icon: "💎",
			Description: "Finish a whole project.",
			Predicate:   func(s State, _ time.Time) bool { return s.TotalProjectsCompleted >= 1 },
		},
		{
			ID: "early_bird", Name: "Early Bird", Icon: "🌅",
			Description: "Earn XP before 9am.",
			Predicate: func(s State, now time.Time) bool {
				return now.Hour() < 9 && s.TotalTasksCompleted >= 1
			},
		},
		{
			ID: "night_owl", Name: "Night Owl", Icon: "🦉",
			Description: "Earn XP after 10pm.",
			Predicate:   func(_ State, now time.Time) bool { return now.Hour() >= 22 },
		},
	}
}

// AchievementByID looks up a catalog entry.
func AchievementByID(id AchievementID) (Achievement, bool) {
	for _, a := range AllAchievements() {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// EvaluateAchievements returns catalog entries whose predicate holds but that
// are not yet in the state's unlocked set. Idempotent per entry.
func EvaluateAchievements(s State, now time.Time) []Achievement {
	var newly []Achievement
	for _, a := range AllAchievements() {
		if _, ok := s.Achievements[a.ID]; ok {
			continue
		}
		if a.Predicate != nil && a.Predicate(s, now) {
			newly = append(newly, a)
		}
	}
	return newly
}
