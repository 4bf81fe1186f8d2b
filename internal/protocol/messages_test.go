package protocol

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/butteredsaltedtoast/blitztactoe/internal/game"
)

func TestParseClientMessageMove(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"type":"move","index":4}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindMove || msg.Index != 4 {
		t.Fatalf("got %+v", msg)
	}

	// A bare index is accepted as a move for older clients.
	msg, err = ParseClientMessage([]byte(`{"index":0}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindMove || msg.Index != 0 {
		t.Fatalf("got %+v", msg)
	}
}

func TestParseClientMessageRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"malformed json", `{"type":`},
		{"unknown type", `{"type":"teleport"}`},
		{"move without index", `{"type":"move"}`},
		{"index too large", `{"type":"move","index":9}`},
		{"negative index", `{"type":"move","index":-1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseClientMessage([]byte(tc.data))
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got err %v, want ErrValidation", err)
			}
		})
	}
}

func TestParseClientMessageActions(t *testing.T) {
	msg, err := ParseClientMessage([]byte(`{"action":"rematch"}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindRematch {
		t.Fatalf("got kind %q, want rematch", msg.Kind)
	}

	msg, err = ParseClientMessage([]byte(`{"type":"player_ready"}`))
	if err != nil {
		t.Fatal(err)
	}
	if msg.Kind != KindPlayerReady {
		t.Fatalf("got kind %q, want player_ready", msg.Kind)
	}
}

func TestGameOverOmitsForfeitWhenFalse(t *testing.T) {
	data, err := json.Marshal(GameOver{Type: "game_over", Winner: game.X})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "forfeit") {
		t.Fatalf("forfeit field present on normal win: %s", data)
	}

	data, _ = json.Marshal(GameOver{Type: "game_over", Winner: game.X, Forfeit: true})
	if !strings.Contains(string(data), `"forfeit":true`) {
		t.Fatalf("forfeit missing: %s", data)
	}
}

func TestValidateRoomID(t *testing.T) {
	valid := []string{"abc", "room-1", "A_B-c9", strings.Repeat("x", 100)}
	for _, id := range valid {
		if err := ValidateRoomID(id); err != nil {
			t.Fatalf("ValidateRoomID(%q) = %v", id, err)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "uniécode", strings.Repeat("x", 101)}
	for _, id := range invalid {
		if err := ValidateRoomID(id); !errors.Is(err, ErrValidation) {
			t.Fatalf("ValidateRoomID(%q) = %v, want ErrValidation", id, err)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	if got := SanitizeName("  my room\x00\x1f  "); got != "my room" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("n", 150)
	if got := SanitizeName(long); len(got) != 100 {
		t.Fatalf("got len %d, want 100", len(got))
	}
}

func TestSanitizeNameTruncatesOnRuneBoundary(t *testing.T) {
	got := SanitizeName(strings.Repeat("ü", 150))
	if !utf8.ValidString(got) {
		t.Fatalf("truncation produced invalid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Fatalf("got %d runes, want 100", n)
	}
}

func TestParseTurnTime(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 5.0},
		{"garbage", 5.0},
		{"2.5", 2.5},
		{"0.1", 0.5},
		{"99", 5.0},
	}
	for _, tc := range cases {
		if got := ParseTurnTime(tc.in); got != tc.want {
			t.Fatalf("ParseTurnTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
