package realtime

import (
	"context"
	"encoding/json"
	"testing"

	"gesushell/core"
)

func TestHubSubscribeBroadcastUnsubscribe(t *testing.T) {
	h := NewHub()
	id, ch := h.Subscribe(1)

	ev := core.NewXPAdded("bob", core.ReasonDoDItem, 10, 10, 1)
	h.Broadcast(context.Background(), ev)

	received := <-ch
	if received.UserID != "bob" || received.Type != core.EventXPAdded {
		t.Fatalf("unexpected event: %+v", received)
	}

	h.Unsubscribe(id)
	_, ok := <-ch
	if ok {
		t.Fatal("expected channel closed after unsubscribe")
	}
}

func TestMarshalJSON(t *testing.T) {
	ev := core.NewAchievementUnlocked("alice", "first_blood")
	b := MarshalJSON(ev)
	var out core.Event
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Achievement != "first_blood" {
		t.Fatalf("unexpected achievement: %s", out.Achievement)
	}
}
