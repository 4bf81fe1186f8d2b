package store

import (
	"testing"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
)

func TestDecodeFillsDefaultsForOldRecords(t *testing.T) {
	// Minimal record from an older schema: no ready_states, no votes.
	rec, err := Decode([]byte(`{"players":["X"],"turn":"X","turn_time":5}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.ReadyStates == nil || rec.ReadyStates[game.X] || rec.ReadyStates[game.O] {
		t.Fatalf("ready_states not defaulted: %+v", rec.ReadyStates)
	}
	if rec.RematchVotes == nil {
		t.Fatal("rematch_votes not defaulted")
	}
	if rec.LastStarter != game.X {
		t.Fatalf("last_starter = %q, want X", rec.LastStarter)
	}
}

func TestDecodeRepairsInvalidFields(t *testing.T) {
	rec, err := Decode([]byte(`{"turn":"Z","last_starter":"","turn_time":42}`))
	if err != nil {
		t.Fatal(err)
	}
	if rec.Turn != game.X {
		t.Fatalf("invalid turn kept: %q", rec.Turn)
	}
	if rec.LastStarter != game.X {
		t.Fatalf("invalid last_starter kept: %q", rec.LastStarter)
	}
	if rec.TurnTime != MaxTurnTime {
		t.Fatalf("turn_time = %v, want clamped to %v", rec.TurnTime, MaxTurnTime)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("garbage decoded without error")
	}
}

func TestEncodeDecodePreservesGameState(t *testing.T) {
	started := 1700000000.25
	src := &Record{
		Players:     []game.Symbol{game.X, game.O},
		Board:       game.Board{game.X, "", "", "", game.O, "", "", "", ""},
		Turn:        game.O,
		LastStarter: game.X,
		GameStarted: true,
		TurnStarted: &started,
		TurnTime:    2.5,
		ReadyStates: map[game.Symbol]bool{game.X: false, game.O: false},
		Name:        "friday night",
		CreatedAt:   1700000000,
	}

	data, err := Encode(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Board != src.Board || got.Turn != src.Turn || !got.GameStarted {
		t.Fatalf("game state not preserved: %+v", got)
	}
	if got.TurnStarted == nil || *got.TurnStarted != started {
		t.Fatalf("turn_started not preserved: %v", got.TurnStarted)
	}
	if got.TurnTime != 2.5 || got.Name != "friday night" {
		t.Fatalf("settings not preserved: %+v", got)
	}
}

func TestClampTurnTime(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, MinTurnTime},
		{0.5, 0.5},
		{3, 3},
		{5, 5},
		{6, MaxTurnTime},
	}
	for _, tc := range cases {
		if got := ClampTurnTime(tc.in); got != tc.want {
			t.Fatalf("ClampTurnTime(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
