package core

import (
	"testing"
	"time"
)

func TestComboMultiplier(t *testing.T) {
	cases := map[int]float64{0: 1.0, 1: 1.0, 2: 1.0, 3: 1.25, 4: 1.25, 5: 1.5, 7: 1.5, 8: 2.0, 14: 2.0, 15: 3.0, 100: 3.0}
	for count, want := range cases {
		if got := ComboMultiplier(count); got != want {
			t.Fatalf("count %d: want %v got %v", count, want, got)
		}
	}
}

func TestComboInfoExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewState(DefaultUser)
	s.Combo = 6
	s.ComboExpiry = now.Add(-time.Minute)
	info := ComboInfoFor(s, now)
	if info.Count != 0 || info.Multiplier != 1.0 || info.ExpiresIn != 0 {
		t.Fatalf("expired combo should read zero, got %+v", info)
	}

	s.ComboExpiry = now.Add(10 * time.Minute)
	info = ComboInfoFor(s, now)
	if info.Count != 6 || info.Multiplier != 1.5 || info.ExpiresIn != 10*time.Minute {
		t.Fatalf("live combo wrong: %+v", info)
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if got := NextStreak(4, "2026-03-10", now); got != 4 {
		t.Fatalf("same day should not change streak, got %d", got)
	}
	if got := NextStreak(4, "2026-03-09", now); got != 5 {
		t.Fatalf("next day should extend, got %d", got)
	}
	if got := NextStreak(4, "2026-03-07", now); got != 1 {
		t.Fatalf("gap should reset, got %d", got)
	}
	if got := NextStreak(0, "", now); got != 1 {
		t.Fatalf("first activity should start at 1, got %d", got)
	}
}

func TestPetEvolution(t *testing.T) {
	cases := map[int]PetEvolution{1: EvolutionEgg, 5: EvolutionEgg, 6: EvolutionHatchling, 12: EvolutionHatchling, 13: EvolutionBaby, 22: EvolutionBaby, 23: EvolutionTeen, 35: EvolutionTeen, 36: EvolutionAdult, 50: EvolutionAdult}
	for level, want := range cases {
		if got := EvolutionForLevel(level); got != want {
			t.Fatalf("level %d: want %s got %s", level, want, got)
		}
	}
}

func TestPetMoodPriority(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	s := NewState(DefaultUser)
	s.Combo = 3
	s.ComboExpiry = now.Add(5 * time.Minute)
	s.LastActiveDate = "2026-03-01" // stale, but fired_up wins
	if got := MoodFor(s, now); got != MoodFiredUp {
		t.Fatalf("want fired_up, got %s", got)
	}

	s.ComboExpiry = now.Add(-time.Hour)
	if got := MoodFor(s, now); got != MoodSad {
		t.Fatalf("stale activity should be sad, got %s", got)
	}

	s.LastActiveDate = DayKey(now)
	s.ComboExpiry = now.Add(-3 * time.Hour)
	if got := MoodFor(s, now); got != MoodSleepy {
		t.Fatalf("long-idle same day should be sleepy, got %s", got)
	}

	s.ComboExpiry = now.Add(-time.Hour)
	if got := MoodFor(s, now); got != MoodHappy {
		t.Fatalf("want happy, got %s", got)
	}

	fresh := NewState(DefaultUser)
	if got := MoodFor(fresh, now); got != MoodHappy {
		t.Fatalf("fresh state should be happy, got %s", got)
	}
}

func TestEvaluateAchievements(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewState(DefaultUser)
	s.TotalTasksCompleted = 1
	newly := EvaluateAchievements(s, now)
	if len(newly) != 1 || newly[0].ID != "first_blood" {
		t.Fatalf("want first_blood only, got %+v", newly)
	}

	// already unlocked entries are skipped
	s.Achievements["first_blood"] = struct{}{}
	if got := EvaluateAchievements(s, now); len(got) != 0 {
		t.Fatalf("expected no new achievements, got %+v", got)
	}
}

func TestTimeOfDayAchievements(t *testing.T) {
	s := NewState(DefaultUser)
	s.TotalTasksCompleted = 5
	s.Achievements["first_blood"] = struct{}{}

	early := time.Date(2026, 3, 10, 8, 59, 0, 0, time.UTC)
	found := false
	for _, a := range EvaluateAchievements(s, early) {
		if a.ID == "early_bird" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected early_bird before 9am")
	}

	late := time.Date(2026, 3, 10, 22, 0, 0, 0, time.UTC)
	found = false
	for _, a := range EvaluateAchievements(s, late) {
		if a.ID == "night_owl" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected night_owl at 10pm")
	}
}

func TestCosmeticConditions(t *testing.T) {
	s := NewState(DefaultUser)
	s.Level = 10
	s.Streak = 3

	hat, ok := CosmeticByID("wizard_hat")
	if !ok || !hat.Unlock.Met(s) {
		t.Fatalf("wizard_hat should be eligible at level 10")
	}
	crown, _ := CosmeticByID("crown")
	if crown.Unlock.Met(s) {
		t.Fatalf("crown should be locked at level 10")
	}
	pendant, _ := CosmeticByID("flame_pendant")
	if pendant.Unlock.Met(s) {
		t.Fatalf("flame_pendant needs the on_fire achievement")
	}
	s.Achievements["on_fire"] = struct{}{}
	if !pendant.Unlock.Met(s) {
		t.Fatalf("flame_pendant should unlock with on_fire")
	}
}
