package storage

import (
	"context"
	"errors"
	"testing"

	"guesstop/game"
)

func TestMemoryStateStoreVersioning(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	st := game.NewGameState("r1", false, false, nil)
	if err := store.SaveState(ctx, "r1", st, 0); err != nil {
		t.Fatalf("initial save: %v", err)
	}
	// creating twice must fail: version 0 means the key must not exist
	if err := store.SaveState(ctx, "r1", st, 0); !errors.Is(err, game.ErrStateConflict) {
		t.Fatalf("second create: got %v, want ErrStateConflict", err)
	}

	loaded, version, err := store.GetState(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if version != 1 {
		t.Fatalf("version = %d, want 1", version)
	}

	loaded.Score1 = 10
	if err := store.SaveState(ctx, "r1", loaded, version); err != nil {
		t.Fatalf("update: %v", err)
	}
	// a writer holding the stale version loses
	if err := store.SaveState(ctx, "r1", loaded, version); !errors.Is(err, game.ErrStateConflict) {
		t.Fatalf("stale update: got %v, want ErrStateConflict", err)
	}

	reread, version, err := store.GetState(ctx, "r1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if version != 2 || reread.Score1 != 10 {
		t.Fatalf("after update: version %d score %d, want 2/10", version, reread.Score1)
	}
}

func TestMemoryStateStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	st := game.NewGameState("r1", false, false, []game.OpponentAnswer{{TopicEntityID: "a"}})
	if err := store.SaveState(ctx, "r1", st, 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	// mutating the caller's copy must not leak into the store
	st.Pool = nil
	st.Score1 = 99

	loaded, _, err := store.GetState(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Score1 != 0 || len(loaded.Pool) != 1 {
		t.Fatalf("stored state mutated through the caller's copy: %+v", loaded)
	}
}

func TestMemoryStateStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStateStore()

	if err := store.SaveState(ctx, "r1", game.NewGameState("r1", true, false, nil), 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.DeleteState(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := store.GetState(ctx, "r1"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	// deleting a missing key is a no-op
	if err := store.DeleteState(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}
