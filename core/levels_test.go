package core

import "testing"

func TestLevelTableMonotonic(t *testing.T) {
	table := LevelTable()
	if len(table) != MaxLevel {
		t.Fatalf("want %d entries, got %d", MaxLevel, len(table))
	}
	for i := 1; i < len(table); i++ {
		if table[i].XPRequired <= table[i-1].XPRequired {
			t.Fatalf("floor not strictly increasing at level %d", table[i].Level)
		}
		if table[i].Title == "" {
			t.Fatalf("missing title at level %d", table[i].Level)
		}
	}
}

func TestLevelForXPBoundaries(t *testing.T) {
	if LevelForXP(0) != 1 {
		t.Fatalf("xp 0 should be level 1")
	}
	if LevelForXP(99) != 1 {
		t.Fatalf("xp 99 should stay level 1, got %d", LevelForXP(99))
	}
	if LevelForXP(100) != 2 {
		t.Fatalf("xp 100 should reach level 2, got %d", LevelForXP(100))
	}
	// tier change at level 11: level 10 floor 900, level 11 floor 1100
	if XPForLevel(10) != 900 || XPForLevel(11) != 1100 {
		t.Fatalf("tier boundary floors wrong: %d %d", XPForLevel(10), XPForLevel(11))
	}
	if LevelForXP(1<<40) != MaxLevel {
		t.Fatalf("huge xp must cap at %d", MaxLevel)
	}
}

func TestLevelForXPNonDecreasing(t *testing.T) {
	prev := 0
	for xp := int64(0); xp <= XPForLevel(MaxLevel)+500; xp += 37 {
		l := LevelForXP(xp)
		if l < prev {
			t.Fatalf("level decreased at xp=%d", xp)
		}
		if XPForLevel(l) > xp {
			t.Fatalf("floor above xp at xp=%d level=%d", xp, l)
		}
		prev = l
	}
}

func TestLevelInfoFor(t *testing.T) {
	info := LevelInfoFor(50)
	if info.Level != 1 || info.NextLevelXP != 100 || info.Progress != 50 {
		t.Fatalf("unexpected info: %+v", info)
	}

	// at max level the next floor is a display-only placeholder
	top := LevelInfoFor(XPForLevel(MaxLevel))
	if top.Level != MaxLevel {
		t.Fatalf("want max level, got %d", top.Level)
	}
	if top.NextLevelXP != XPForLevel(MaxLevel)+1000 {
		t.Fatalf("unexpected max-level next floor: %d", top.NextLevelXP)
	}
}
