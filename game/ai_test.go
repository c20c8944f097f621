package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
)

// optimalUserMove is the user-side counterpart of the hard tier, used to
// drive self-play: the minimizing best reply.
func optimalUserMove(b Board) int {
	pos, _ := searchMove(b, len(b.EmptyCells()), false, math.MinInt, math.MaxInt)
	return pos
}

func TestHardSelfPlayAlwaysDraws(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	for opening := 0; opening < 9; opening++ {
		t.Run(fmt.Sprintf("opening(%d)", opening), func(t *testing.T) {
			state, err := NewState(Hard)
			if err != nil {
				t.Fatal(err)
			}
			state, err = ProcessUserMove(state, opening)
			if err != nil {
				t.Fatal(err)
			}

			for state.Result == InProgress {
				if state.Current == AIPlayer {
					state, err = ProcessAIMove(state, ai)
				} else {
					state, err = ProcessUserMove(state, optimalUserMove(state.Board))
				}
				if err != nil {
					t.Fatal(err)
				}
				t.Log("\n" + state.Board.String())
			}

			if state.Result != Draw {
				t.Errorf("optimal play should always end in a draw, got %v", state.Result)
			}
		})
	}
}

func TestHardNeverLosesToRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ai := NewAI(rng)

	for i := 0; i < 200; i++ {
		state, err := NewState(Hard)
		if err != nil {
			t.Fatal(err)
		}
		for state.Result == InProgress {
			legal := state.Board.EmptyCells()
			state, err = CompleteTurn(state, legal[rng.Intn(len(legal))], ai)
			if err != nil {
				t.Fatalf("game %d: %v", i, err)
			}
		}
		if state.Result == UserWin {
			t.Fatalf("game %d: a random player beat the hard tier:\n%s", i, state.Board)
		}
	}
}

func TestHardBlocksImmediateThreat(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	// User threatens to complete the top row at 2.
	b := Board{
		UserPlayer, UserPlayer, NoPlayer,
		NoPlayer, AIPlayer, NoPlayer,
		NoPlayer, NoPlayer, NoPlayer,
	}
	pos, err := ai.ChooseMove(b, Hard)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 2 {
		t.Errorf("expected the block at 2, got %d", pos)
	}
}

func TestHardPrefersWinOverBlock(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	// The user threatens at 2, but the AI can win at 5 right away.
	b := Board{
		UserPlayer, UserPlayer, NoPlayer,
		AIPlayer, AIPlayer, NoPlayer,
		NoPlayer, NoPlayer, UserPlayer,
	}
	pos, err := ai.ChooseMove(b, Hard)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 5 {
		t.Errorf("expected the winning move at 5, got %d", pos)
	}
}

func TestHardTieBreakIsLowestIndex(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	// Every opening on an empty board scores a draw under optimal play,
	// so the tie-break must pick cell 0, every time.
	for i := 0; i < 10; i++ {
		pos, err := ai.ChooseMove(Board{}, Hard)
		if err != nil {
			t.Fatal(err)
		}
		if pos != 0 {
			t.Fatalf("run %d: expected tie-break to pick 0, got %d", i, pos)
		}
	}
}

func TestEasyBlockFrequency(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(7)))

	// One live threat (top row at 2), six legal cells. The defensive
	// branch fires 20% of the time and the uniform branch can land on
	// the block too, so the observed rate must sit well above the 1/6
	// random floor.
	b := Board{
		UserPlayer, UserPlayer, NoPlayer,
		NoPlayer, AIPlayer, NoPlayer,
		NoPlayer, NoPlayer, NoPlayer,
	}

	const trials = 600
	blocks := 0
	for i := 0; i < trials; i++ {
		pos, err := ai.ChooseMove(b, Easy)
		if err != nil {
			t.Fatal(err)
		}
		if !b.IsValidMove(pos) {
			t.Fatalf("trial %d: easy tier chose an illegal move %d", i, pos)
		}
		if pos == 2 {
			blocks++
		}
	}

	if blocks < trials/4 {
		t.Errorf("block chosen %d/%d times, expected well above the random floor", blocks, trials)
	}
	if blocks == trials {
		t.Errorf("block chosen every time, the uniform branch never ran")
	}
}

func TestMediumMostlySearchesButBlunders(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(11)))

	// Blocking at 2 is the only move that survives a 3-ply search; any
	// other choice must come from the 15% blunder branch.
	b := Board{
		UserPlayer, UserPlayer, NoPlayer,
		NoPlayer, AIPlayer, NoPlayer,
		NoPlayer, NoPlayer, NoPlayer,
	}

	const trials = 600
	blocks := 0
	for i := 0; i < trials; i++ {
		pos, err := ai.ChooseMove(b, Medium)
		if err != nil {
			t.Fatal(err)
		}
		if pos == 2 {
			blocks++
		}
	}

	if blocks < trials*7/10 {
		t.Errorf("block chosen %d/%d times, search branch should dominate", blocks, trials)
	}
	if blocks == trials {
		t.Errorf("block chosen every time, the blunder branch never ran")
	}
}

func TestChooseMoveSameSeedSameMoves(t *testing.T) {
	playScripted := func(seed int64) []int {
		ai := NewAI(rand.New(rand.NewSource(seed)))
		state, err := NewState(Easy)
		if err != nil {
			t.Fatal(err)
		}
		var moves []int
		for state.Result == InProgress {
			state, err = CompleteTurn(state, state.Board.EmptyCells()[0], ai)
			if err != nil {
				t.Fatal(err)
			}
			moves = append(moves, state.LastAIMove)
		}
		return moves
	}

	first := playScripted(99)
	second := playScripted(99)
	if len(first) != len(second) {
		t.Fatalf("seeded runs diverged: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("seeded runs diverged at move %d: %v vs %v", i, first, second)
		}
	}
}

func TestChooseMoveSharedAcrossConcurrentGames(t *testing.T) {
	// One AI, many games at once: the random source must be safe to
	// draw from concurrently. Run under the race detector.
	ai := NewAI(rand.New(rand.NewSource(5)))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := NewState(Easy)
			if err != nil {
				errs <- err
				return
			}
			for state.Result == InProgress {
				state, err = CompleteTurn(state, state.Board.EmptyCells()[0], ai)
				if err != nil {
					errs <- err
					return
				}
			}
			if !Validate(state) {
				errs <- fmt.Errorf("finished game violates invariants: %+v", state)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}

func TestChooseMoveEndedBoard(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	// Won but not full: no tier should hand back a position.
	won := Board{
		UserPlayer, UserPlayer, UserPlayer,
		AIPlayer, AIPlayer, NoPlayer,
		NoPlayer, NoPlayer, NoPlayer,
	}
	for _, tier := range []Difficulty{Easy, Medium, Hard} {
		if _, err := ai.ChooseMove(won, tier); !errors.Is(err, ErrGameAlreadyEnded) {
			t.Errorf("%s: expected ErrGameAlreadyEnded, got %v", tier, err)
		}
	}
}

func TestChooseMoveFullBoard(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	full := Board{
		UserPlayer, AIPlayer, UserPlayer,
		UserPlayer, AIPlayer, UserPlayer,
		AIPlayer, UserPlayer, AIPlayer,
	}
	for _, tier := range []Difficulty{Easy, Medium, Hard} {
		if _, err := ai.ChooseMove(full, tier); !errors.Is(err, ErrNoAvailableMoves) {
			t.Errorf("%s: expected ErrNoAvailableMoves, got %v", tier, err)
		}
	}
}

func TestChooseMoveUnknownDifficulty(t *testing.T) {
	ai := NewAI(rand.New(rand.NewSource(1)))

	if _, err := ai.ChooseMove(Board{}, Difficulty("impossible")); !errors.Is(err, ErrUnknownDifficulty) {
		t.Errorf("expected ErrUnknownDifficulty, got %v", err)
	}
}
