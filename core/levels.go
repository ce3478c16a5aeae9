package core

// MaxLevel is a hard cap: no XP or level progress accumulates past it.
const MaxLevel = 50

// LevelEntry is one row of the static level table.
type LevelEntry struct {
	Level      int    `json:"level"`
	XPRequired int64  `json:"xp_required"` // cumulative floor
	Title      string `json:"title"`
}

// Per-level XP cost by 10-level band.
var levelBandCost = [5]int64{100, 200, 350, 500, 750}

var levelTitles = [10]string{
	"Wanderer", "Novice", "Apprentice", "Adept", "Journeyman",
	"Expert", "Veteran", "Master", "Grandmaster", "Legend",
}

var levelTable = buildLevelTable()

func buildLevelTable() []LevelEntry {
	table := make([]LevelEntry, MaxLevel)
	var floor int64
	for i := range table {
		level := i + 1
		if level > 1 {
			floor += levelBandCost[(level-1)/10]
		}
		table[i] = LevelEntry{
			Level:      level,
			XPRequired: floor,
			Title:      levelTitles[(level-1)/5],
		}
	}
	return table
}

// LevelTable returns a copy of the 50-entry level table.
func LevelTable() []LevelEntry {
	out := make([]LevelEntry, len(levelTable))
	copy(out, levelTable)
	return out
}

// XPForLevel returns the cumulative XP floor for a level, clamped to 1..MaxLevel.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelTable[level-1].XPRequired
}

// LevelForXP returns the highest level whose floor does not exceed xp,
// capped at MaxLevel.
func LevelForXP(xp int64) int {
	level := 1
	for level < MaxLevel && xp >= levelTable[level].XPRequired {
		level++
	}
	return level
}

// TitleForLevel returns the display title for a level.
func TitleForLevel(level int) string {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelTable[level-1].Title
}

// LevelInfo describes progress within the current level.
type LevelInfo struct {
	Level       int     `json:"level"`
	Title       string  `json:"title"`
	XP          int64   `json:"xp"`
	NextLevelXP int64   `json:"next_level_xp"`
	Progress    float64 `json:"progress"` // 0..100
}

// LevelInfoFor derives level progress from raw XP. Past MaxLevel the next
// floor defaults to current floor + 1000; the progress bar is display-only
// there.
func LevelInfoFor(xp int64) LevelInfo {
	level := LevelForXP(xp)
	floor := XPForLevel(level)
	next := floor + 1000
	if level < MaxLevel {
		next = XPForLevel(level + 1)
	}
	progress := 0.0
	if span := next - floor; span > 0 {
		progress = float64(xp-floor) / float64(span) * 100.0
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return LevelInfo{
		Level:       level,
		Title:       TitleForLevel(level),
		XP:          xp,
		NextLevelXP: next,
		Progress:    progress,
	}
}
