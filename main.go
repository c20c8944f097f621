package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/solvega/tictactoe/game"
	"github.com/solvega/tictactoe/service"
)

var (
	difficulty = "hard"
	seed       = int64(0)
	selfPlay   = 0
)

func init() {
	pflag.StringVarP(&difficulty, "difficulty", "d", difficulty, "AI difficulty: easy, medium or hard")
	pflag.Int64Var(&seed, "seed", seed, "random seed, 0 seeds from the clock")
	pflag.IntVar(&selfPlay, "self-play", selfPlay, "play this many random-vs-AI games and report, 0 for interactive play")
	pflag.Parse()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := slog.Default()

	os.Exit(start(ctx, logger))
}

func start(ctx context.Context, logger *slog.Logger) int {
	tier, err := game.ParseDifficulty(difficulty)
	if err != nil {
		logger.Error(
			"invalid difficulty",
			"difficulty", difficulty,
			"err", err)
		return 1
	}

	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	if selfPlay > 0 {
		return runSelfPlay(logger, tier, rng, selfPlay)
	}
	return runInteractive(ctx, logger, tier, rng)
}

func runInteractive(ctx context.Context, logger *slog.Logger, tier game.Difficulty, rng *rand.Rand) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errg, ctx := errgroup.WithContext(ctx)

	mgr := service.NewManager(logger, rng)
	errg.Go(func() error { return mgr.Start(ctx) })

	events := make(chan *service.Event, 1)
	mgr.Subscribe(events, nil)
	errg.Go(func() error {
		defer mgr.Unsubscribe(events)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-events:
				// drained so Play never blocks on fan-out
			}
		}
	})

	errg.Go(func() error {
		defer cancel()
		return playLoop(mgr, tier)
	})

	if err := errg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(
			"service error",
			"err", err)
		return 1
	}
	return 0
}

func playLoop(mgr *service.Manager, tier game.Difficulty) error {
	sess, err := mgr.Create(tier)
	if err != nil {
		return err
	}

	fmt.Printf("You are X, the AI is O. Difficulty: %s.\n", tier)
	fmt.Println("Enter a cell from 1 to 9, left to right, top to bottom.")
	fmt.Println(sess.State.Board)

	in := bufio.NewScanner(os.Stdin)
	for sess.State.Result == game.InProgress {
		fmt.Print("your move> ")
		if !in.Scan() {
			return in.Err()
		}

		cell, err := strconv.Atoi(strings.TrimSpace(in.Text()))
		if err != nil || cell < 1 || cell > 9 {
			fmt.Println("Please enter a number between 1 and 9.")
			continue
		}

		sess, err = mgr.Play(sess.ID, cell-1)
		if err != nil {
			if errors.Is(err, game.ErrInvalidMove) {
				fmt.Println("That cell is taken.")
				continue
			}
			return err
		}

		fmt.Println(sess.State.Board)
	}

	switch sess.State.Result {
	case game.UserWin:
		fmt.Println("You win!")
	case game.AIWin:
		fmt.Println("The AI wins.")
	default:
		fmt.Println("It's a draw.")
	}
	return nil
}

// runSelfPlay pits a uniformly random user against the AI tier for n
// games and reports the tally.
func runSelfPlay(logger *slog.Logger, tier game.Difficulty, rng *rand.Rand, n int) int {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	ai := game.NewAI(rng)

	var userWins, aiWins, draws int
	for i := 0; i < n; i++ {
		state, err := game.NewState(tier)
		if err != nil {
			logger.Error("failed to start game", "err", err)
			return 1
		}
		for state.Result == game.InProgress {
			legal := state.Board.EmptyCells()
			pos := legal[rng.Intn(len(legal))]
			state, err = game.CompleteTurn(state, pos, ai)
			if err != nil {
				logger.Error("self-play turn failed", "game", i, "err", err)
				return 1
			}
		}
		switch state.Result {
		case game.UserWin:
			userWins++
		case game.AIWin:
			aiWins++
		default:
			draws++
		}
	}

	logger.Info(
		"self-play finished",
		"difficulty", tier,
		"games", n,
		"random_user_wins", userWins,
		"ai_wins", aiWins,
		"draws", draws)
	return 0
}
