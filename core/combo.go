package core

import "time"

// ComboWindow is the sliding window within which consecutive actions extend
// the combo.
const ComboWindow = 30 * time.Minute

// Multiplier thresholds; effective multiplier is the highest threshold <= count.
var comboThresholds = []struct {
	count      int
	multiplier float64
}{
	{15, 3.0},
	{8, 2.0},
	{5, 1.5},
	{3, 1.25},
}

// ComboMultiplier returns the XP multiplier for a combo count. Non-decreasing
// in count, capped at 3.0.
func ComboMultiplier(count int) float64 {
	for _, t := range comboThresholds {
		if count >= t.count {
			return t.multiplier
		}
	}
	return 1.0
}

// ComboInfo describes the live combo for display.
type ComboInfo struct {
	Count      int           `json:"count"`
	Multiplier float64       `json:"multiplier"`
	ExpiresIn  time.Duration `json:"expires_in"`
}

// ComboInfoFor derives the live combo from state; an expired combo reads as
// zero regardless of the stored counter.
func ComboInfoFor(s State, now time.Time) ComboInfo {
	if !s.ComboExpiry.After(now) {
		return ComboInfo{Count: 0, Multiplier: 1.0}
	}
	return ComboInfo{
		Count:      s.Combo,
		Multiplier: ComboMultiplier(s.Combo),
		ExpiresIn:  s.ComboExpiry.Sub(now),
	}
}
