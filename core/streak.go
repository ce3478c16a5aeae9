package core

import "time"

const dayLayout = "2006-01-02"

// DayKey formats a time as the calendar day key used for streak accounting.
func DayKey(t time.Time) string { return t.Format(dayLayout) }

// NextStreak returns the streak after activity at now. Same-day activity
// leaves it unchanged, next-day activity extends it, any gap resets it to 1.
func NextStreak(prev int, lastActive string, now time.Time) int {
	today := DayKey(now)
	if lastActive == today {
		return prev
	}
	if lastActive == DayKey(now.AddDate(0, 0, -1)) {
		return prev + 1
	}
	return 1
}

// ActiveRecently reports whether lastActive is today or yesterday relative
// to now. An empty lastActive (no activity yet) counts as recent.
func ActiveRecently(lastActive string, now time.Time) bool {
	if lastActive == "" {
		return true
	}
	return lastActive == DayKey(now) || lastActive == DayKey(now.AddDate(0, 0, -1))
}
