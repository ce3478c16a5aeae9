package redisdoc

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gesushell/core"
	syncsvc "gesushell/sync"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_GetAbsent(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	doc, err := store.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, doc, "absent document should be nil, not an error")
}

func TestStore_SetAndGet(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	in := syncsvc.Document{
		XP:                5200,
		Level:             14,
		Streak:            9,
		Achievements:      []string{"first_blood", "on_fire"},
		UnlockedCosmetics: []string{"ember_aura"},
		EquippedCosmetics: map[string]string{"aura": "ember_aura"},
		Version:           time.Now().UnixMilli(),
		WriterID:          "w1",
	}
	require.NoError(t, store.Set(ctx, "alice", in))

	out, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.XP, out.XP)
	assert.Equal(t, in.Level, out.Level)
	assert.ElementsMatch(t, in.Achievements, out.Achievements)
	assert.Equal(t, "ember_aura", out.EquippedCosmetics["aura"])
	assert.Equal(t, "w1", out.WriterID)
}

func TestStore_SubscribeReceivesWrites(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()

	got := make(chan syncsvc.Document, 1)
	unsub, err := store.Subscribe(ctx, core.UserID("alice"), func(d syncsvc.Document) {
		select {
		case got <- d:
		default:
		}
	})
	require.NoError(t, err)
	defer unsub()

	require.NoError(t, store.Set(ctx, "alice", syncsvc.Document{XP: 77, WriterID: "other"}))

	select {
	case d := <-got:
		assert.Equal(t, int64(77), d.XP)
		assert.Equal(t, "other", d.WriterID)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for remote change")
	}
}
