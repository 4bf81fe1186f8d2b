package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteSaveLoadDelete(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	rec := &Record{
		Players:     []game.Symbol{game.X},
		Turn:        game.X,
		LastStarter: game.X,
		TurnTime:    3,
		ReadyStates: map[game.Symbol]bool{game.X: true, game.O: false},
	}
	if err := st.Save(ctx, "room-1", rec); err != nil {
		t.Fatal(err)
	}

	got, err := st.Load(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("record missing after save")
	}
	if got.TurnTime != 3 || !got.ReadyStates[game.X] {
		t.Fatalf("loaded record differs: %+v", got)
	}

	if err := st.Delete(ctx, "room-1"); err != nil {
		t.Fatal(err)
	}
	got, err = st.Load(ctx, "room-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatal("record survived delete")
	}
}

func TestSQLiteLoadMissingReturnsNil(t *testing.T) {
	st := newTestSQLite(t)

	rec, err := st.Load(context.Background(), "never-created")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatalf("got %+v, want nil", rec)
	}
}

func TestSQLiteSaveOverwrites(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	first := &Record{Turn: game.X, LastStarter: game.X, TurnTime: 5}
	if err := st.Save(ctx, "room-2", first); err != nil {
		t.Fatal(err)
	}
	second := &Record{Turn: game.O, LastStarter: game.O, TurnTime: 5, GameStarted: true}
	if err := st.Save(ctx, "room-2", second); err != nil {
		t.Fatal(err)
	}

	got, err := st.Load(ctx, "room-2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Turn != game.O || !got.GameStarted {
		t.Fatalf("overwrite not applied: %+v", got)
	}
}
