package core

// Merge combines two divergent copies of the same logical state into one
// convergent result: max for scalar progress counters, union for unlocked
// sets, and local-wins-if-non-empty for equipped cosmetics. Progress is never
// lost across devices; intentional resets do not propagate back through a
// merge (accepted limitation).
//
// EquippedCosmetics is resolved wholesale, not per slot: a user who changes
// slot A locally and slot B remotely keeps only the local layout. Kept as
// shipped.
func Merge(local, remote State) State {
	out := local.Clone()

	out.XP = maxInt64(local.XP, remote.XP)
	out.Level = maxInt(local.Level, remote.Level)
	if out.Level > MaxLevel {
		out.Level = MaxLevel
	}
	out.Streak = maxInt(local.Streak, remote.Streak)
	out.TotalTasksCompleted = maxInt64(local.TotalTasksCompleted, remote.TotalTasksCompleted)
	out.TotalProjectsCompleted = maxInt64(local.TotalProjectsCompleted, remote.TotalProjectsCompleted)

	for id := range remote.Achievements {
		out.Achievements[id] = struct{}{}
	}
	for id := range remote.UnlockedCosmetics {
		out.UnlockedCosmetics[id] = struct{}{}
	}
	for id := range remote.CompletedTaskIDs {
		out.CompletedTaskIDs[id] = struct{}{}
	}

	if len(local.EquippedCosmetics) == 0 {
		out.EquippedCosmetics = make(map[CosmeticSlot]CosmeticID, len(remote.EquippedCosmetics))
		for slot, id := range remote.EquippedCosmetics {
			out.EquippedCosmetics[slot] = id
		}
	}

	if remote.LastActiveDate > out.LastActiveDate {
		out.LastActiveDate = remote.LastActiveDate
	}
	if remote.Updated.After(out.Updated) {
		out.Updated = remote.Updated
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
