package protocol

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/butteredsaltedtoast/blitztactoe/internal/store"
)

// Room ID validation: alphanumeric, hyphens, underscores, 1-100 chars.
var roomIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,100}$`)

// ValidateRoomID checks a room identifier against the restricted character
// set before it can reach the registry.
func ValidateRoomID(roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: room ID cannot be empty", ErrValidation)
	}
	if !roomIDRegex.MatchString(roomID) {
		return fmt.Errorf("%w: room ID contains invalid characters or is too long", ErrValidation)
	}
	return nil
}

// SanitizeName trims and limits a room name to 100 characters, removing
// control characters.
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Truncate on a rune boundary; a byte slice could split a multi-byte
	// rune and leave invalid UTF-8.
	if utf8.RuneCountInString(name) > 100 {
		name = string([]rune(name)[:100])
	}

	return strings.TrimSpace(name)
}

// ParseTurnTime parses the per-room move deadline from a query parameter,
// clamping to the allowed range. Unparseable input falls back to the default
// rather than failing the join.
func ParseTurnTime(raw string) float64 {
	if raw == "" {
		return store.DefaultTurnTime
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return store.DefaultTurnTime
	}
	return store.ClampTurnTime(parsed)
}
