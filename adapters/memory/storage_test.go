package memory

import (
	"context"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, ok, _ := store.Load(ctx, "k"); ok {
		t.Fatal("missing key should report absent")
	}
	if err := store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, err := store.Load(ctx, "k")
	if err != nil || !ok || string(raw) != "v" {
		t.Fatalf("load: %v %v %s", ok, err, raw)
	}

	name, err := store.Backup(ctx, "k", []byte("old"), "corrupt")
	if err != nil || name == "" {
		t.Fatalf("backup: %q %v", name, err)
	}
	if string(store.Backups()[name]) != "old" {
		t.Fatal("backup bytes missing")
	}
}
