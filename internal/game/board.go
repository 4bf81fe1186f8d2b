// Package game holds the pure turn-resolution logic for the 3x3 board.
// It has no state and no I/O; everything else in the server builds on it.
package game

// Symbol identifies a seat on the board.
type Symbol string

const (
	Empty Symbol = ""
	X     Symbol = "X"
	O     Symbol = "O"

	// Draw is not a playable symbol; it is the terminal marker stored in a
	// room's winner field when the board fills with no winning triple.
	Draw Symbol = "draw"
)

// BoardSize is the number of cells on the board.
const BoardSize = 9

// Board is the fixed 3x3 grid, row-major. An empty cell holds Empty.
type Board [BoardSize]Symbol

// winningTriples are the 8 lines that decide a game: rows, columns, diagonals.
var winningTriples = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Winner returns the symbol occupying a full triple, or Empty if no line is
// complete. It never returns Draw; use Full to detect a drawn board.
func Winner(b Board) Symbol {
	for _, t := range winningTriples {
		if b[t[0]] != Empty && b[t[0]] == b[t[1]] && b[t[1]] == b[t[2]] {
			return b[t[0]]
		}
	}
	return Empty
}

// Full reports whether every cell is occupied.
func Full(b Board) bool {
	for _, c := range b {
		if c == Empty {
			return false
		}
	}
	return true
}

// Opponent returns the other playable symbol.
func Opponent(s Symbol) Symbol {
	if s == X {
		return O
	}
	return X
}

// Valid reports whether s is a playable symbol.
func Valid(s Symbol) bool {
	return s == X || s == O
}
