package core

import (
	"testing"
	"time"
)

func TestMergeScalarsAndSets(t *testing.T) {
	local := NewState("alice")
	local.XP = 500
	local.Level = 4
	local.Streak = 2
	local.TotalTasksCompleted = 30
	local.Achievements["first_blood"] = struct{}{}
	local.UnlockedCosmetics["straw_hat"] = struct{}{}

	remote := NewState("alice")
	remote.XP = 350
	remote.Level = 3
	remote.Streak = 6
	remote.TotalTasksCompleted = 40
	remote.TotalProjectsCompleted = 1
	remote.Achievements["on_fire"] = struct{}{}
	remote.UnlockedCosmetics["meadow"] = struct{}{}

	out := Merge(local, remote)
	if out.XP != 500 || out.Level != 4 || out.Streak != 6 {
		t.Fatalf("scalar max wrong: %+v", out)
	}
	if out.TotalTasksCompleted != 40 || out.TotalProjectsCompleted != 1 {
		t.Fatalf("counter max wrong: %+v", out)
	}
	for _, id := range []AchievementID{"first_blood", "on_fire"} {
		if _, ok := out.Achievements[id]; !ok {
			t.Fatalf("achievement union missing %s", id)
		}
	}
	for _, id := range []CosmeticID{"straw_hat", "meadow"} {
		if _, ok := out.UnlockedCosmetics[id]; !ok {
			t.Fatalf("cosmetic union missing %s", id)
		}
	}
}

func TestMergeNeverLosesXP(t *testing.T) {
	for _, pair := range [][2]int64{{0, 0}, {10, 0}, {0, 10}, {999, 1000}, {1000, 999}} {
		local, remote := NewState("u"), NewState("u")
		local.XP, remote.XP = pair[0], pair[1]
		out := Merge(local, remote)
		if out.XP < local.XP || out.XP < remote.XP {
			t.Fatalf("merge lost xp for pair %v: got %d", pair, out.XP)
		}
	}
}

func TestMergeEquippedLocalWins(t *testing.T) {
	local := NewState("u")
	local.EquippedCosmetics[SlotHat] = "straw_hat"
	remote := NewState("u")
	remote.EquippedCosmetics[SlotHat] = "wizard_hat"
	remote.EquippedCosmetics[SlotCape] = "travel_cape"

	out := Merge(local, remote)
	if out.EquippedCosmetics[SlotHat] != "straw_hat" {
		t.Fatalf("non-empty local layout must win: %+v", out.EquippedCosmetics)
	}
	// wholesale resolution: remote-only slots are not carried over
	if _, ok := out.EquippedCosmetics[SlotCape]; ok {
		t.Fatalf("equipped map must not merge per slot")
	}

	empty := NewState("u")
	out = Merge(empty, remote)
	if out.EquippedCosmetics[SlotHat] != "wizard_hat" || out.EquippedCosmetics[SlotCape] != "travel_cape" {
		t.Fatalf("empty local should adopt remote layout: %+v", out.EquippedCosmetics)
	}
}

func TestMergeLevelCap(t *testing.T) {
	local, remote := NewState("u"), NewState("u")
	remote.Level = MaxLevel + 10
	remote.Updated = time.Now()
	if out := Merge(local, remote); out.Level != MaxLevel {
		t.Fatalf("merged level must clamp to %d, got %d", MaxLevel, out.Level)
	}
}
