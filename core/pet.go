package core

import "time"

// PetMood is the pet's displayed mood, recomputed from live state rather
// than persisted as authoritative.
type PetMood string

const (
	MoodHappy   PetMood = "happy"
	MoodSleepy  PetMood = "sleepy"
	MoodSad     PetMood = "sad"
	MoodFiredUp PetMood = "fired_up"
	MoodEvolved PetMood = "evolved"
)

// PetEvolution is the pet's growth stage, a pure function of level.
type PetEvolution string

const (
	EvolutionEgg       PetEvolution = "egg"
	EvolutionHatchling PetEvolution = "hatchling"
	EvolutionBaby      PetEvolution = "baby"
	EvolutionTeen      PetEvolution = "teen"
	EvolutionAdult     PetEvolution = "adult"
)

// PetInfo is the derived pet display state.
type PetInfo struct {
	Mood      PetMood      `json:"mood"`
	Evolution PetEvolution `json:"evolution"`
}

// EvolutionForLevel maps a level to a growth stage.
func EvolutionForLevel(level int) PetEvolution {
	switch {
	case level <= 5:
		return EvolutionEgg
	case level <= 12:
		return EvolutionHatchling
	case level <= 22:
		return EvolutionBaby
	case level <= 35:
		return EvolutionTeen
	default:
		return EvolutionAdult
	}
}

// MoodFor derives the pet mood; first matching rule wins.
func MoodFor(s State, now time.Time) PetMood {
	if s.Combo >= 3 && s.ComboExpiry.After(now) {
		return MoodFiredUp
	}
	if !ActiveRecently(s.LastActiveDate, now) {
		return MoodSad
	}
	if s.ComboExpiry.Before(now.Add(-2*time.Hour)) && s.LastActiveDate == DayKey(now) {
		return MoodSleepy
	}
	return MoodHappy
}

// PetInfoFor derives the full pet display state.
func PetInfoFor(s State, now time.Time) PetInfo {
	return PetInfo{Mood: MoodFor(s, now), Evolution: EvolutionForLevel(s.Level)}
}
