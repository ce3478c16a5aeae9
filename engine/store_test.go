package engine

import (
	"context"
	"testing"
	"time"

	mem "gesushell/adapters/memory"
	"gesushell/core"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newTestStore(t *testing.T) (*Store, *fakeClock, *mem.Store) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	storage := mem.New()
	store := NewStore(context.Background(), storage, "alice", WithClock(clock))
	return store, clock, storage
}

func TestAddXPFirstTask(t *testing.T) {
	store, _, _ := newTestStore(t)

	res := store.AddXP(context.Background(), 10, core.ReasonDoDItem)
	if res.XPGained != 10 || res.NewLevel != 1 || res.LeveledUp {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.NewAchievements) != 1 || res.NewAchievements[0].ID != "first_blood" {
		t.Fatalf("expected first_blood, got %+v", res.NewAchievements)
	}
	if store.XP() != 10 || store.Streak() != 1 {
		t.Fatalf("xp=%d streak=%d", store.XP(), store.Streak())
	}
}

func TestAddXPComboMultiplier(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	store.AddXP(ctx, 10, core.ReasonDoDItem)
	clock.now = clock.now.Add(5 * time.Minute)
	store.AddXP(ctx, 10, core.ReasonDoDItem)
	clock.now = clock.now.Add(5 * time.Minute)
	res := store.AddXP(ctx, 10, core.ReasonDoDItem)

	if res.XPGained != 12 { // floor(10 * 1.25)
		t.Fatalf("third hit should gain 12, got %d", res.XPGained)
	}
	combo := store.Combo()
	if combo.Count != 3 || combo.Multiplier != 1.25 {
		t.Fatalf("combo: %+v", combo)
	}
}

func TestAddXPComboExpires(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	store.AddXP(ctx, 10, core.ReasonDoDItem)
	store.AddXP(ctx, 10, core.ReasonDoDItem)
	clock.now = clock.now.Add(31 * time.Minute)

	if c := store.Combo(); c.Count != 0 || c.Multiplier != 1.0 || c.ExpiresIn != 0 {
		t.Fatalf("expired combo should read zero: %+v", c)
	}
	res := store.AddXP(ctx, 10, core.ReasonDoDItem)
	if store.State().Combo != 1 || res.XPGained != 10 {
		t.Fatalf("combo should restart at 1, got %d gained=%d", store.State().Combo, res.XPGained)
	}
}

func TestAddXPLevelBoundary(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	st := store.State()
	st.XP = 99
	st.Level = 1
	store.SaveStateDirect(ctx, st)

	res := store.AddXP(ctx, 1, core.ReasonCompassSnapshot)
	if !res.LeveledUp || res.NewLevel != 2 || store.XP() != 100 {
		t.Fatalf("expected level 2 at xp 100: %+v xp=%d", res, store.XP())
	}
}

func TestAddXPMaxLevelCap(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	st := store.State()
	st.XP = core.XPForLevel(core.MaxLevel)
	st.Level = core.MaxLevel
	store.SaveStateDirect(ctx, st)

	before := store.XP()
	for i := 0; i < 3; i++ {
		res := store.AddXP(ctx, 100, core.ReasonDoDItem)
		if res.XPGained != 0 || res.NewLevel != core.MaxLevel || res.LeveledUp {
			t.Fatalf("capped call %d: %+v", i, res)
		}
	}
	if store.XP() != before || store.Level() != core.MaxLevel {
		t.Fatalf("xp/level must not move past cap: xp=%d level=%d", store.XP(), store.Level())
	}
}

func TestStreakTransitions(t *testing.T) {
	store, clock, _ := newTestStore(t)
	ctx := context.Background()

	store.AddXP(ctx, 10, core.ReasonDoDItem)
	if store.Streak() != 1 {
		t.Fatalf("day 1 streak: %d", store.Streak())
	}

	// same day: unchanged
	clock.now = clock.now.Add(2 * time.Hour)
	store.AddXP(ctx, 10, core.ReasonDoDItem)
	if store.Streak() != 1 {
		t.Fatalf("same-day streak: %d", store.Streak())
	}

	// next day: extends
	clock.now = clock.now.AddDate(0, 0, 1)
	store.AddXP(ctx, 10, core.ReasonDoDItem)
	if store.Streak() != 2 {
		t.Fatalf("next-day streak: %d", store.Streak())
	}

	// gap: resets
	clock.now = clock.now.AddDate(0, 0, 3)
	store.AddXP(ctx, 10, core.ReasonDoDItem)
	if store.Streak() != 1 {
		t.Fatalf("post-gap streak: %d", store.Streak())
	}
}

func TestReasonCounters(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	store.AddXP(ctx, 10, core.ReasonDoDItem)
	store.AddXP(ctx, 50, core.ReasonWorkflowStep)
	store.AddXP(ctx, 200, core.ReasonProjectComplete)

	st := store.State()
	if st.TotalTasksCompleted != 1 || st.TotalProjectsCompleted != 1 {
		t.Fatalf("counters: tasks=%d projects=%d", st.TotalTasksCompleted, st.TotalProjectsCompleted)
	}
}

func TestTaskRewardGuard(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if store.HasTaskBeenRewarded("t1") {
		t.Fatal("fresh task should not be rewarded")
	}
	store.MarkTaskRewarded(ctx, "t1")
	if !store.HasTaskBeenRewarded("t1") {
		t.Fatal("marked task should report rewarded")
	}
	store.UnmarkTaskRewarded(ctx, "t1")
	if store.HasTaskBeenRewarded("t1") {
		t.Fatal("unmarked task should allow re-reward")
	}
}

func TestCosmeticLifecycle(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	if store.UnlockCosmetic(ctx, "wizard_hat") {
		t.Fatal("level 1 must not unlock wizard_hat")
	}

	st := store.State()
	st.XP = core.XPForLevel(10)
	st.Level = 10
	store.SaveStateDirect(ctx, st)

	if !store.CanUnlockCosmetic("wizard_hat") {
		t.Fatal("wizard_hat should be eligible at level 10")
	}
	if !store.UnlockCosmetic(ctx, "wizard_hat") {
		t.Fatal("first unlock should return true")
	}
	if store.UnlockCosmetic(ctx, "wizard_hat") {
		t.Fatal("second unlock should be a no-op")
	}

	if store.EquipCosmetic(ctx, "crown") {
		t.Fatal("equipping a locked cosmetic must fail")
	}
	if !store.EquipCosmetic(ctx, "wizard_hat") {
		t.Fatal("equip unlocked cosmetic")
	}
	if store.State().EquippedCosmetics[core.SlotHat] != "wizard_hat" {
		t.Fatalf("slot mapping: %+v", store.State().EquippedCosmetics)
	}

	store.UnequipCosmetic(ctx, core.SlotHat)
	if _, ok := store.State().EquippedCosmetics[core.SlotHat]; ok {
		t.Fatal("unequip should clear the slot")
	}
}

func TestUnlockEligibleCosmeticsSweep(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	st := store.State()
	st.XP = core.XPForLevel(10)
	st.Level = 10
	st.Streak = 7
	store.SaveStateDirect(ctx, st)

	newly := store.UnlockEligibleCosmetics(ctx)
	if len(newly) == 0 {
		t.Fatal("sweep should unlock something at level 10 / streak 7")
	}
	for _, c := range newly {
		if _, ok := store.State().UnlockedCosmetics[c.ID]; !ok {
			t.Fatalf("%s reported unlocked but not in set", c.ID)
		}
	}
	if again := store.UnlockEligibleCosmetics(ctx); again != nil {
		t.Fatalf("second sweep should be empty, got %+v", again)
	}
}

func TestSaveStateDirectRoundTrip(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	st := core.NewState("alice")
	st.XP = 1234
	st.Level = core.LevelForXP(1234)
	st.Streak = 9
	st.Achievements["on_fire"] = struct{}{}
	st.UnlockedCosmetics["ember_aura"] = struct{}{}
	st.EquippedCosmetics[core.SlotAura] = "ember_aura"
	store.SaveStateDirect(ctx, st)

	got := store.State()
	if got.XP != st.XP || got.Level != st.Level || got.Streak != st.Streak {
		t.Fatalf("round trip scalars: %+v", got)
	}
	if _, ok := got.Achievements["on_fire"]; !ok {
		t.Fatal("round trip achievements")
	}
	if got.EquippedCosmetics[core.SlotAura] != "ember_aura" {
		t.Fatal("round trip equipped")
	}
}

func TestSubscribeNotifiedAfterMutation(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	var seen []int64
	unsub := store.Subscribe(func(s core.State) { seen = append(seen, s.XP) })
	store.AddXP(ctx, 10, core.ReasonDoDItem)
	store.SetSoundEnabled(ctx, false)
	unsub()
	store.AddXP(ctx, 10, core.ReasonDoDItem)

	if len(seen) != 2 || seen[0] != 10 {
		t.Fatalf("expected two notifications with post-mutation state, got %v", seen)
	}
}

func TestCorruptPayloadBackedUp(t *testing.T) {
	ctx := context.Background()
	storage := mem.New()
	key := StorageKey(DefaultBaseKey, "alice")
	if err := storage.Save(ctx, key, []byte(`{{{not json`)); err != nil {
		t.Fatal(err)
	}

	store := NewStore(ctx, storage, "alice")
	if store.XP() != 0 || store.Level() != 1 {
		t.Fatalf("corrupt payload should load defaults: xp=%d", store.XP())
	}
	warns := store.Warnings()
	if len(warns) != 1 || warns[0].Kind != "corrupt" || warns[0].BackupName == "" {
		t.Fatalf("expected corrupt warning with backup, got %+v", warns)
	}
	if len(storage.Backups()) != 1 {
		t.Fatal("raw bytes should be backed up, not discarded")
	}
}

func TestVersionMismatchBackedUp(t *testing.T) {
	ctx := context.Background()
	storage := mem.New()
	key := StorageKey(DefaultBaseKey, "alice")
	// written by a future release
	if err := storage.Save(ctx, key, []byte(`{"schema_version":7,"state":{"xp":900}}`)); err != nil {
		t.Fatal(err)
	}

	store := NewStore(ctx, storage, "alice")
	if store.XP() != 0 {
		t.Fatal("mismatched version must fall back to defaults")
	}
	warns := store.Warnings()
	if len(warns) != 1 || warns[0].Kind != "version_mismatch" || warns[0].FromVersion != 7 {
		t.Fatalf("expected version warning, got %+v", warns)
	}
}

func TestPersistedStateSurvivesReload(t *testing.T) {
	ctx := context.Background()
	storage := mem.New()
	clock := &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}

	store := NewStore(ctx, storage, "alice", WithClock(clock))
	store.AddXP(ctx, 50, core.ReasonWorkflowStep)

	reloaded := NewStore(ctx, storage, "alice", WithClock(clock))
	if reloaded.XP() != 50 || reloaded.Streak() != 1 {
		t.Fatalf("reload: xp=%d streak=%d", reloaded.XP(), reloaded.Streak())
	}
}
