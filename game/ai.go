package game

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Probability thresholds for the randomized tiers.
const (
	easyBlockChance     = 0.2
	mediumBlunderChance = 0.15
	mediumSearchDepth   = 3
)

// ErrNoAvailableMoves is returned when a move is requested on a full
// board. The orchestrator checks terminality first, so hitting this
// means a broken invariant upstream.
var ErrNoAvailableMoves = errors.New("no available moves")

// AI chooses moves for the AI player. Its only state is the random
// source; *rand.Rand is not safe for concurrent use, so draws go
// through a mutex and one AI may serve any number of concurrent games.
type AI struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAI creates an AI drawing from rng. A nil rng is replaced with a
// clock-seeded one; tests pass a fixed seed instead.
func NewAI(rng *rand.Rand) *AI {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &AI{rng: rng}
}

// chance draws once and reports whether it fell below p.
func (a *AI) chance(p float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rng.Float64() < p
}

// pick returns a uniformly random element of cells.
func (a *AI) pick(cells []int) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cells[a.rng.Intn(len(cells))]
}

// ChooseMove picks the AI's next move on the board according to the
// difficulty policy. A board that is already won is rejected with
// ErrGameAlreadyEnded regardless of tier.
func (a *AI) ChooseMove(b Board, difficulty Difficulty) (int, error) {
	if _, _, ok := b.Winner(); ok {
		return NoMove, ErrGameAlreadyEnded
	}
	switch difficulty {
	case Easy:
		return a.easyMove(b)
	case Medium:
		return a.mediumMove(b)
	case Hard:
		return a.hardMove(b)
	default:
		return NoMove, fmt.Errorf("%q: %w", difficulty, ErrUnknownDifficulty)
	}
}

// easyMove plays a uniformly random legal move. One time in five it
// first looks for a cell where the user would win immediately and blocks
// it. The random branch may still land on the blocking cell by chance.
func (a *AI) easyMove(b Board) (int, error) {
	legal := b.EmptyCells()
	if len(legal) == 0 {
		return NoMove, ErrNoAvailableMoves
	}
	if a.chance(easyBlockChance) {
		for _, pos := range legal {
			threat := b
			threat[pos] = UserPlayer
			if winner, _, ok := threat.Winner(); ok && winner == UserPlayer {
				return pos, nil
			}
		}
	}
	return a.pick(legal), nil
}

// mediumMove searches 3 plies deep, except for an occasional deliberate
// blunder: a uniformly random move 15% of the time.
func (a *AI) mediumMove(b Board) (int, error) {
	legal := b.EmptyCells()
	if len(legal) == 0 {
		return NoMove, ErrNoAvailableMoves
	}
	if a.chance(mediumBlunderChance) {
		return a.pick(legal), nil
	}
	pos, _ := searchMove(b, mediumSearchDepth, true, math.MinInt, math.MaxInt)
	return pos, nil
}

// hardMove searches the full remaining game tree. This tier never allows
// a forced loss when a non-losing move exists.
func (a *AI) hardMove(b Board) (int, error) {
	legal := b.EmptyCells()
	if len(legal) == 0 {
		return NoMove, ErrNoAvailableMoves
	}
	pos, _ := searchMove(b, len(legal), true, math.MinInt, math.MaxInt)
	return pos, nil
}

// searchMove is minimax with alpha-beta pruning. The AI maximizes. A won
// position scores +/-(10 - pliesPlayed) with pliesPlayed = 9 - depth, so
// faster wins score higher and forced losses are delayed; a full board
// or exhausted depth scores 0. Moves are tried in ascending position
// order and only a strictly better score replaces the best move, so ties
// go to the lowest index. Only the top-level caller uses the returned
// position; recursive calls use only the score.
func searchMove(b Board, depth int, maximizing bool, alpha, beta int) (pos, score int) {
	if winner, _, ok := b.Winner(); ok {
		plies := len(b) - depth
		if winner == AIPlayer {
			return NoMove, 10 - plies
		}
		return NoMove, -(10 - plies)
	}
	if depth == 0 || b.IsFull() {
		return NoMove, 0
	}

	mover := UserPlayer
	if maximizing {
		mover = AIPlayer
	}

	best := NoMove
	if maximizing {
		score = math.MinInt
		for p := 0; p < len(b); p++ {
			if b[p] != NoPlayer {
				continue
			}
			child := b
			child[p] = mover
			if _, s := searchMove(child, depth-1, false, alpha, beta); s > score {
				score = s
				best = p
			}
			if score > alpha {
				alpha = score
			}
			if beta <= alpha {
				break
			}
		}
	} else {
		score = math.MaxInt
		for p := 0; p < len(b); p++ {
			if b[p] != NoPlayer {
				continue
			}
			child := b
			child[p] = mover
			if _, s := searchMove(child, depth-1, true, alpha, beta); s < score {
				score = s
				best = p
			}
			if score < beta {
				beta = score
			}
			if beta <= alpha {
				break
			}
		}
	}
	return best, score
}
