// Package game implements the state and decision engine for a game of
// Tic-Tac-Toe between a human player and an AI opponent.
package game

import (
	"errors"
	"fmt"
	"strings"
)

// Player represents a player mark on the board.
type Player uint8

const (
	NoPlayer Player = iota
	UserPlayer
	AIPlayer
)

// String returns the string representation of the player.
func (p Player) String() string {
	switch p {
	case UserPlayer:
		return "X"
	case AIPlayer:
		return "O"
	default:
		return " "
	}
}

// Opponent returns the opponent of the player.
func (p Player) Opponent() Player {
	switch p {
	case UserPlayer:
		return AIPlayer
	case AIPlayer:
		return UserPlayer
	default:
		return NoPlayer
	}
}

// Result represents the outcome of a game.
type Result uint8

const (
	InProgress Result = iota
	UserWin
	AIWin
	Draw
)

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case InProgress:
		return "in_progress"
	case UserWin:
		return "user_win"
	case AIWin:
		return "ai_win"
	case Draw:
		return "draw"
	default:
		return "unknown"
	}
}

// Board represents a Tic-Tac-Toe board, 9 cells stored row-major.
type Board [9]Player

// winningLines are the 8 ways to win: rows, columns, diagonals.
// Winner scans them in this order.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// NoLine marks the absence of a winning line.
var NoLine = [3]int{-1, -1, -1}

// ErrInvalidMove is returned when a position is out of range or its cell
// is already occupied.
var ErrInvalidMove = errors.New("invalid move")

// IsValidMove reports whether pos addresses an empty cell on the board.
func (b Board) IsValidMove(pos int) bool {
	return pos >= 0 && pos < len(b) && b[pos] == NoPlayer
}

// MakeMove returns a copy of the board with the player's mark placed at
// pos. The receiver is never modified.
func (b Board) MakeMove(pos int, p Player) (Board, error) {
	if !b.IsValidMove(pos) {
		return b, fmt.Errorf("position %d: %w", pos, ErrInvalidMove)
	}
	b[pos] = p
	return b, nil
}

// Winner scans the winning lines in a fixed order and returns the owner
// of the first completed line. If no line is complete, ok is false and
// the line is NoLine.
func (b Board) Winner() (winner Player, line [3]int, ok bool) {
	for _, ln := range winningLines {
		if b[ln[0]] != NoPlayer && b[ln[0]] == b[ln[1]] && b[ln[1]] == b[ln[2]] {
			return b[ln[0]], ln, true
		}
	}
	return NoPlayer, NoLine, false
}

// IsDraw reports whether the board is full with no winner.
func (b Board) IsDraw() bool {
	if _, _, ok := b.Winner(); ok {
		return false
	}
	return b.IsFull()
}

// IsFull reports whether every cell is occupied.
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == NoPlayer {
			return false
		}
	}
	return true
}

// Result derives the game outcome from the board alone.
func (b Board) Result() Result {
	if winner, _, ok := b.Winner(); ok {
		if winner == UserPlayer {
			return UserWin
		}
		return AIWin
	}
	if b.IsFull() {
		return Draw
	}
	return InProgress
}

// EmptyCells returns the positions of all empty cells in ascending order.
func (b Board) EmptyCells() []int {
	cells := make([]int, 0, len(b))
	for pos, cell := range b {
		if cell == NoPlayer {
			cells = append(cells, pos)
		}
	}
	return cells
}

// String renders the board for debugging. It plays no part in any
// decision logic.
func (b Board) String() string {
	var s strings.Builder
	for r := 0; r < 3; r++ {
		if r > 0 {
			s.WriteString("\n---+---+---\n")
		}
		for c := 0; c < 3; c++ {
			if c > 0 {
				s.WriteByte('|')
			}
			s.WriteByte(' ')
			s.WriteString(b[r*3+c].String())
			s.WriteByte(' ')
		}
	}
	return s.String()
}
