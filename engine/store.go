package engine

import (
	"context"
	"log/slog"
	"sync"

	"gesushell/core"
)

// Store owns the canonical gamification state for a single user. All
// mutations run synchronously under one mutex and notify subscribers before
// returning; UI and sync layers never touch the state directly.
//
// Persistence and storage errors are logged and converted to safe defaults.
// No public operation returns an error.
type Store struct {
	mu      sync.Mutex
	user    core.UserID
	key     string
	storage Storage
	clock   core.Clock
	bus     *EventBus
	logger  *slog.Logger

	state    core.State
	subs     map[int64]func(core.State)
	nextSub  int64
	warnings []SchemaWarning
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock injects a time source (defaults to the system clock).
func WithClock(c core.Clock) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithBus attaches an existing event bus (defaults to a sync bus).
func WithBus(b *EventBus) StoreOption {
	return func(s *Store) {
		if b != nil {
			s.bus = b
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithBaseKey overrides the storage key prefix.
func WithBaseKey(base string) StoreOption {
	return func(s *Store) {
		if base != "" {
			s.key = StorageKey(base, s.user)
		}
	}
}

// NewStore loads (or defaults) the state for user from storage. A corrupt or
// version-mismatched payload is backed up and replaced with defaults for the
// session; the warning is retained on the store.
func NewStore(ctx context.Context, storage Storage, user core.UserID, opts ...StoreOption) *Store {
	if storage == nil {
		panic("NewStore requires non-nil storage")
	}
	if user == "" {
		user = core.DefaultUser
	}
	s := &Store{
		user:    user,
		key:     StorageKey(DefaultBaseKey, user),
		storage: storage,
		clock:   core.SystemClock(),
		bus:     NewEventBus(DispatchSync),
		logger:  slog.Default(),
		subs:    map[int64]func(core.State){},
	}
	for _, o := range opts {
		o(s)
	}
	s.state = s.loadState(ctx)
	return s
}

func (s *Store) loadState(ctx context.Context) core.State {
	raw, ok, err := s.storage.Load(ctx, s.key)
	if err != nil {
		s.logger.Error("load state failed, using defaults", "key", s.key, "error", err)
		return core.NewState(s.user)
	}
	if !ok {
		return core.NewState(s.user)
	}
	st, warn := decodeState(ctx, s.storage, s.key, raw, s.user, s.clock.Now())
	if warn != nil {
		s.warnings = append(s.warnings, *warn)
		s.logger.Warn("unusable persisted state backed up",
			"key", s.key, "kind", warn.Kind, "backup", warn.BackupName)
	}
	return st
}

// User returns the owning user id.
func (s *Store) User() core.UserID { return s.user }

// Bus exposes the event bus for realtime/analytics bridges.
func (s *Store) Bus() *EventBus { return s.bus }

// Warnings returns schema warnings recorded while loading.
func (s *Store) Warnings() []SchemaWarning {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SchemaWarning, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Subscribe registers a callback invoked synchronously after every mutation
// with a copy of the new state. Returns an unsubscribe func.
func (s *Store) Subscribe(fn func(core.State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// persistLocked saves state, notifies subscribers, and publishes events.
// Caller holds s.mu; the mutex is released around callbacks and publishes so
// handlers can read back into the store.
func (s *Store) persistLocked(ctx context.Context, events ...core.Event) {
	s.state.Updated = s.clock.Now()
	raw, err := encodeState(s.state)
	if err == nil {
		err = s.storage.Save(ctx, s.key, raw)
	}
	if err != nil {
		s.logger.Error("persist state failed", "key", s.key, "error", err)
	}
	snapshot := s.state.Clone()
	fns := make([]func(core.State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
	for _, ev := range events {
		s.bus.Publish(ctx, ev)
	}
	s.mu.Lock()
}

// Reads

// State returns a deep copy of the canonical state.
func (s *Store) State() core.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Store) XP() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.XP
}

func (s *Store) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Level
}

func (s *Store) LevelInfo() core.LevelInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.LevelInfoFor(s.state.XP)
}

func (s *Store) Combo() core.ComboInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.ComboInfoFor(s.state, s.clock.Now())
}

func (s *Store) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Streak
}

func (s *Store) PetInfo() core.PetInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.PetInfoFor(s.state, s.clock.Now())
}

// Achievements returns catalog entries the user has unlocked.
func (s *Store) Achievements() []core.Achievement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Achievement
	for _, a := range core.AllAchievements() {
		if _, ok := s.state.Achievements[a.ID]; ok {
			out = append(out, a)
		}
	}
	return out
}

func (s *Store) SoundEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SoundEnabled
}

// Mutations

// XPResult reports the outcome of an AddXP call.
type XPResult struct {
	XPGained        int64              `json:"xp_gained"`
	NewLevel        int                `json:"new_level"`
	LeveledUp       bool               `json:"leveled_up"`
	NewAchievements []core.Achievement `json:"new_achievements"`
}

// AddXP applies one qualifying action: advances the combo, awards multiplied
// XP, recomputes level and streak, bumps reason counters, and evaluates
// achievement unlocks against the updated state.
//
// At MaxLevel XP stops accumulating and XPGained reports 0; the combo still
// advances and persists.
func (s *Store) AddXP(ctx context.Context, base int64, reason core.Reason) XPResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if base <= 0 {
		return XPResult{NewLevel: s.state.Level}
	}
	now := s.clock.Now()

	if !s.state.ComboExpiry.After(now) {
		s.state.Combo = 0
	}
	s.state.Combo++
	s.state.ComboExpiry = now.Add(core.ComboWindow)

	if s.state.Level >= core.MaxLevel {
		s.persistLocked(ctx)
		return XPResult{NewLevel: core.MaxLevel}
	}

	gained := int64(float64(base) * core.ComboMultiplier(s.state.Combo))
	oldLevel := s.state.Level
	s.state.XP += gained
	s.state.Level = core.LevelForXP(s.state.XP)
	if s.state.Level > core.MaxLevel {
		s.state.Level = core.MaxLevel
	}
	leveledUp := s.state.Level > oldLevel

	today := core.DayKey(now)
	if s.state.LastActiveDate != today {
		s.state.Streak = core.NextStreak(s.state.Streak, s.state.LastActiveDate, now)
		s.state.LastActiveDate = today
	}

	switch reason {
	case core.ReasonDoDItem:
		s.state.TotalTasksCompleted++
	case core.ReasonProjectComplete:
		s.state.TotalProjectsCompleted++
	}

	newly := core.EvaluateAchievements(s.state, now)
	for _, a := range newly {
		s.state.Achievements[a.ID] = struct{}{}
	}

	events := []core.Event{core.NewXPAdded(s.user, reason, gained, s.state.XP, s.state.Combo)}
	if leveledUp {
		events = append(events, core.NewLevelUp(s.user, s.state.Level))
	}
	for _, a := range newly {
		events = append(events, core.NewAchievementUnlocked(s.user, a.ID))
	}
	s.persistLocked(ctx, events...)

	return XPResult{
		XPGained:        gained,
		NewLevel:        s.state.Level,
		LeveledUp:       leveledUp,
		NewAchievements: newly,
	}
}

func (s *Store) SetSoundEnabled(ctx context.Context, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SoundEnabled == enabled {
		return
	}
	s.state.SoundEnabled = enabled
	s.persistLocked(ctx)
}

// Task reward idempotency guard.

func (s *Store) HasTaskBeenRewarded(task core.TaskID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.state.CompletedTaskIDs[task]
	return ok
}

func (s *Store) MarkTaskRewarded(ctx context.Context, task core.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.CompletedTaskIDs[task]; ok {
		return
	}
	s.state.CompletedTaskIDs[task] = struct{}{}
	s.persistLocked(ctx)
}

// UnmarkTaskRewarded allows a re-reward after a completion is undone.
func (s *Store) UnmarkTaskRewarded(ctx context.Context, task core.TaskID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.CompletedTaskIDs[task]; !ok {
		return
	}
	delete(s.state.CompletedTaskIDs, task)
	s.persistLocked(ctx)
}

func (s *Store) ResetCombo(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Combo = 0
	s.state.ComboExpiry = s.clock.Now()
	s.persistLocked(ctx)
}

// ResetAll wipes all progress back to a fresh state.
func (s *Store) ResetAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = core.NewState(s.user)
	s.persistLocked(ctx)
}

// Cosmetics

func (s *Store) CanUnlockCosmetic(id core.CosmeticID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := core.CosmeticByID(id)
	return ok && c.Unlock.Met(s.state)
}

// UnlockCosmetic unlocks id when eligible and not yet unlocked. Returns
// whether the set changed.
func (s *Store) UnlockCosmetic(ctx context.Context, id core.CosmeticID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := core.CosmeticByID(id)
	if !ok || !c.Unlock.Met(s.state) {
		return false
	}
	if _, done := s.state.UnlockedCosmetics[id]; done {
		return false
	}
	s.state.UnlockedCosmetics[id] = struct{}{}
	s.persistLocked(ctx, core.NewCosmeticUnlocked(s.user, id))
	return true
}

// EquipCosmetic equips a previously unlocked cosmetic, replacing whatever
// occupies its slot. Returns false for locked or unknown ids.
func (s *Store) EquipCosmetic(ctx context.Context, id core.CosmeticID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := core.CosmeticByID(id)
	if !ok {
		return false
	}
	if _, unlocked := s.state.UnlockedCosmetics[id]; !unlocked {
		return false
	}
	s.state.EquippedCosmetics[c.Slot] = id
	s.persistLocked(ctx)
	return true
}

func (s *Store) UnequipCosmetic(ctx context.Context, slot core.CosmeticSlot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.EquippedCosmetics[slot]; !ok {
		return
	}
	delete(s.state.EquippedCosmetics, slot)
	s.persistLocked(ctx)
}

// UnlockEligibleCosmetics sweeps the catalog and unlocks everything eligible
// but still locked, returning the newly unlocked entries. Used after merges
// and level-ups to catch up retroactively.
func (s *Store) UnlockEligibleCosmetics(ctx context.Context) []core.Cosmetic {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newly []core.Cosmetic
	for _, c := range core.AllCosmetics() {
		if _, done := s.state.UnlockedCosmetics[c.ID]; done {
			continue
		}
		if c.Unlock.Met(s.state) {
			s.state.UnlockedCosmetics[c.ID] = struct{}{}
			newly = append(newly, c)
		}
	}
	if len(newly) == 0 {
		return nil
	}
	events := make([]core.Event, 0, len(newly))
	for _, c := range newly {
		events = append(events, core.NewCosmeticUnlocked(s.user, c.ID))
	}
	s.persistLocked(ctx, events...)
	return newly
}

// SaveStateDirect replaces the canonical state wholesale with an externally
// merged one, bypassing the normal mutation path. Subscribers are still
// notified. Reserved for the cloud reconciliation service.
func (s *Store) SaveStateDirect(ctx context.Context, st core.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st.Normalize()
	st.UserID = s.user
	s.state = st.Clone()
	s.persistLocked(ctx, core.NewStateReplaced(s.user, s.state.XP, s.state.Level))
}
