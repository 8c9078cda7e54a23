package snapshot

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/syncjam/syncjam-go/internal/protocol"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(Config{Addr: mr.Addr()}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	return store
}

func TestRedisStoreSaveThenLoad(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()
	want := protocol.RoomState{CurrentIndex: 2, Mode: "playing", Epoch: 7}

	if err := store.Save(ctx, "room-1", want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, ok, err := store.Load(ctx, "room-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if got.CurrentIndex != want.CurrentIndex || got.Mode != want.Mode || got.Epoch != want.Epoch {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestRedisStoreLoadMissingIsNotAnError(t *testing.T) {
	store := newTestRedisStore(t)

	_, ok, err := store.Load(context.Background(), "never-saved")
	if err != nil {
		t.Fatalf("expected no error for a missing snapshot, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing snapshot")
	}
}

func TestNewRedisStoreFailsFastWhenUnreachable(t *testing.T) {
	_, err := NewRedisStore(Config{Addr: "127.0.0.1:1"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected an error connecting to an unreachable address")
	}
}

func TestMemoryStoreSaveThenLoad(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	want := protocol.RoomState{CurrentIndex: 1, Mode: "paused"}

	store.Save(ctx, "room-2", want)
	got, ok, err := store.Load(ctx, "room-2")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok || got.CurrentIndex != want.CurrentIndex {
		t.Errorf("got %+v ok=%v, want %+v", got, ok, want)
	}
}

func TestMemoryStoreLoadMissingIsNotAnError(t *testing.T) {
	store := NewMemoryStore()
	_, ok, err := store.Load(context.Background(), "missing")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatal("expected ok=false")
	}
}
