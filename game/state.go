package game

import (
	"errors"
	"fmt"
)

// Difficulty selects the AI move policy.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// NoMove marks the absence of a recorded AI move.
const NoMove = -1

// Errors returned by the turn operations.
var (
	ErrGameAlreadyEnded  = errors.New("game already ended")
	ErrWrongTurn         = errors.New("wrong turn")
	ErrUnknownDifficulty = errors.New("unknown difficulty")
)

// ParseDifficulty validates a difficulty value arriving from the outside.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case Easy, Medium, Hard:
		return d, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownDifficulty)
	}
}

// State is the complete state of one game. It is a plain value: every
// operation takes a State and returns a new one, the input is never
// modified. Once Result leaves InProgress the state is terminal and
// Current stays frozen at its last value.
type State struct {
	Board       Board
	Current     Player
	Moves       int
	Difficulty  Difficulty
	Result      Result
	Winner      Player
	WinningLine [3]int
	LastAIMove  int
}

// NewState returns the initial state for a game at the given difficulty:
// an empty board with the user to move.
func NewState(difficulty Difficulty) (State, error) {
	if _, err := ParseDifficulty(string(difficulty)); err != nil {
		return State{}, err
	}
	return State{
		Current:     UserPlayer,
		Difficulty:  difficulty,
		Result:      InProgress,
		Winner:      NoPlayer,
		WinningLine: NoLine,
		LastAIMove:  NoMove,
	}, nil
}

// ProcessUserMove applies the user's move at pos and returns the new
// state. The game must be in progress and it must be the user's turn.
func ProcessUserMove(s State, pos int) (State, error) {
	return processMove(s, pos, UserPlayer)
}

// ProcessAIMove asks the AI for a move at the state's difficulty,
// applies it, and records it as LastAIMove.
func ProcessAIMove(s State, ai *AI) (State, error) {
	if s.Result != InProgress {
		return State{}, ErrGameAlreadyEnded
	}
	if s.Current != AIPlayer {
		return State{}, ErrWrongTurn
	}
	pos, err := ai.ChooseMove(s.Board, s.Difficulty)
	if err != nil {
		return State{}, err
	}
	next, err := processMove(s, pos, AIPlayer)
	if err != nil {
		return State{}, err
	}
	next.LastAIMove = pos
	return next, nil
}

// CompleteTurn plays one full turn: the user's move at pos and, if the
// game is still running afterwards, the AI's reply.
func CompleteTurn(s State, pos int, ai *AI) (State, error) {
	next, err := ProcessUserMove(s, pos)
	if err != nil {
		return State{}, err
	}
	if next.Result != InProgress {
		return next, nil
	}
	return ProcessAIMove(next, ai)
}

func processMove(s State, pos int, p Player) (State, error) {
	if s.Result != InProgress {
		return State{}, ErrGameAlreadyEnded
	}
	if s.Current != p {
		return State{}, ErrWrongTurn
	}
	board, err := s.Board.MakeMove(pos, p)
	if err != nil {
		return State{}, err
	}

	next := s
	next.Board = board
	next.Moves++
	next.Result = board.Result()

	switch next.Result {
	case UserWin, AIWin:
		winner, line, _ := board.Winner()
		next.Winner = winner
		next.WinningLine = line
	case InProgress:
		next.Current = p.Opponent()
	}
	return next, nil
}

// Stats is a derived, read-only summary of a game.
type Stats struct {
	TotalMoves  int
	UserMoves   int
	AIMoves     int
	Winner      Player
	Result      Result
	Difficulty  Difficulty
	WinningLine [3]int
	IsCompleted bool
}

// NewStats summarizes the state. The user always moves first, so of n
// total moves the user made ceil(n/2).
func NewStats(s State) Stats {
	return Stats{
		TotalMoves:  s.Moves,
		UserMoves:   (s.Moves + 1) / 2,
		AIMoves:     s.Moves / 2,
		Winner:      s.Winner,
		Result:      s.Result,
		Difficulty:  s.Difficulty,
		WinningLine: s.WinningLine,
		IsCompleted: s.Result != InProgress,
	}
}

// Validate reports whether a state value arriving from untrusted storage
// or transport is well formed: enums in range, the board consistent with
// the move count, and result, winner and winning line consistent with
// the board.
func Validate(s State) bool {
	if _, err := ParseDifficulty(string(s.Difficulty)); err != nil {
		return false
	}
	if s.Current != UserPlayer && s.Current != AIPlayer {
		return false
	}
	if s.Result > Draw {
		return false
	}
	nonEmpty := 0
	for _, cell := range s.Board {
		if cell > AIPlayer {
			return false
		}
		if cell != NoPlayer {
			nonEmpty++
		}
	}
	if s.Moves != nonEmpty || s.Moves > len(s.Board) {
		return false
	}
	if s.LastAIMove != NoMove && !(s.LastAIMove >= 0 && s.LastAIMove < len(s.Board)) {
		return false
	}
	if s.Result != s.Board.Result() {
		return false
	}

	switch s.Result {
	case InProgress:
		return s.Winner == NoPlayer && s.WinningLine == NoLine
	case Draw:
		return s.Winner == NoPlayer && s.WinningLine == NoLine
	case UserWin, AIWin:
		want := UserPlayer
		if s.Result == AIWin {
			want = AIPlayer
		}
		if s.Winner != want {
			return false
		}
		found := false
		for _, ln := range winningLines {
			if ln == s.WinningLine {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		return s.Board[s.WinningLine[0]] == want &&
			s.Board[s.WinningLine[1]] == want &&
			s.Board[s.WinningLine[2]] == want
	}
	return false
}
