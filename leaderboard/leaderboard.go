package leaderboard

import (
	"context"

	"gesushell/core"
	"gesushell/engine"
)

// Entry is one ranked row, keyed by total XP.
type Entry struct {
	User core.UserID `json:"user"`
	XP   int64       `json:"xp"`
}

// Board abstracts leaderboard operations.
type Board interface {
	Update(user core.UserID, xp int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
}

// Attach feeds a board from store events: every XP award and every remote
// state replacement refreshes the user's row. Returns a detach func.
func Attach(bus *engine.EventBus, board Board) func() {
	update := func(_ context.Context, ev core.Event) {
		board.Update(ev.UserID, ev.TotalXP)
	}
	unsubXP := bus.Subscribe(core.EventXPAdded, update)
	unsubReplace := bus.Subscribe(core.EventStateReplaced, update)
	return func() {
		unsubXP()
		unsubReplace()
	}
}
