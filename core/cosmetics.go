package core

// CosmeticSlot is a mount point on the pet; at most one cosmetic is equipped
// per slot.
type CosmeticSlot string

const (
	SlotHat        CosmeticSlot = "hat"
	SlotCape       CosmeticSlot = "cape"
	SlotAccessory  CosmeticSlot = "accessory"
	SlotBackground CosmeticSlot = "background"
	SlotAura       CosmeticSlot = "aura"
)

// UnlockCondition gates a cosmetic. Exactly one field is set per catalog
// entry; all set fields must hold.
type UnlockCondition struct {
	MinLevel    int           `json:"min_level,omitempty"`
	MinStreak   int           `json:"min_streak,omitempty"`
	Achievement AchievementID `json:"achievement,omitempty"`
}

// Met evaluates the condition against a state.
func (c UnlockCondition) Met(s State) bool {
	if c.MinLevel > 0 && s.Level < c.MinLevel {
		return false
	}
	if c.MinStreak > 0 && s.Streak < c.MinStreak {
		return false
	}
	if c.Achievement != "" {
		if _, ok := s.Achievements[c.Achievement]; !ok {
			return false
		}
	}
	return true
}

// Cosmetic is a purely decorative unlockable.
type Cosmetic struct {
	ID     CosmeticID      `json:"id"`
	Name   string          `json:"name"`
	Slot   CosmeticSlot    `json:"slot"`
	Icon   string          `json:"icon"`
	Unlock UnlockCondition `json:"unlock"`
}

// AllCosmetics returns the static cosmetic catalog.
func AllCosmetics() []Cosmetic {
	return []Cosmetic{
		{ID: "straw_hat", Name: "Straw Hat", Slot: SlotHat, Icon: "👒", Unlock: UnlockCondition{MinLevel: 3}},
		{ID: "wizard_hat", Name: "Wizard Hat", Slot: SlotHat, Icon: "🧙", Unlock: UnlockCondition{MinLevel: 10}},
		{ID: "crown", Name: "Crown", Slot: SlotHat, Icon: "👑", Unlock: UnlockCondition{MinLevel: 25}},
		{ID: "travel_cape", Name: "Travel Cape", Slot: SlotCape, Icon: "🧣", Unlock: UnlockCondition{MinLevel: 5}},
		{ID: "storm_cape", Name: "Storm Cape", Slot: SlotCape, Icon: "🌩️", Unlock: UnlockCondition{MinLevel: 18}},
		{ID: "royal_mantle", Name: "Royal Mantle", Slot: SlotCape, Icon: "🦚", Unlock: UnlockCondition{MinLevel: 35}},
		{ID: "lucky_charm", Name: "Lucky Charm", Slot: SlotAccessory, Icon: "🍀", Unlock: UnlockCondition{MinStreak: 3}},
		{ID: "flame_pendant", Name: "Flame Pendant", Slot: SlotAccessory, Icon: "🔻", Unlock: UnlockCondition{Achievement: "on_fire"}},
		{ID: "combo_gauntlet", Name: "Combo Gauntlet", Slot: SlotAccessory, Icon: "🥊", Unlock: UnlockCondition{Achievement: "combo_master"}},
		{ID: "meadow", Name: "Meadow", Slot: SlotBackground, Icon: "🌿", Unlock: UnlockCondition{MinLevel: 2}},
		{ID: "city_night", Name: "City Night", Slot: SlotBackground, Icon: "🌃", Unlock: UnlockCondition{Achievement: "night_owl"}},
		{ID: "sunrise_ridge", Name: "Sunrise Ridge", Slot: SlotBackground, Icon: "🌄", Unlock: UnlockCondition{Achievement: "early_bird"}},
		{ID: "ember_aura", Name: "Ember Aura", Slot: SlotAura, Icon: "✨", Unlock: UnlockCondition{MinStreak: 7}},
		{ID: "diamond_aura", Name: "Diamond Aura", Slot: SlotAura, Icon: "💠", Unlock: UnlockCondition{Achievement: "perfectionist"}},
		{ID: "legend_aura", Name: "Legend Aura", Slot: SlotAura, Icon: "🌟", Unlock: UnlockCondition{MinLevel: 45}},
	}
}

// CosmeticByID looks up a catalog entry.
func CosmeticByID(id CosmeticID) (Cosmetic, bool) {
	for _, c := range AllCosmetics() {
		if c.ID == id {
			return c, true
		}
	}
	return Cosmetic{}, false
}
