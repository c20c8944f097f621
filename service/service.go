// Package service manages running games on behalf of a front end. It
// keeps sessions in memory, feeds turns through the game engine, and
// fans out turn events to subscribers. Persistence and transport belong
// to the caller.
package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/twipi/pubsub"
	"golang.org/x/sync/errgroup"

	"github.com/solvega/tictactoe/game"
)

const (
	sessionExpiry   = 24 * time.Hour
	janitorInterval = 4 * time.Hour
)

// ErrSessionNotFound is returned when a game ID is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Session is a snapshot of one running game.
type Session struct {
	ID        string
	State     game.State
	StartedAt time.Time
	UpdatedAt time.Time
}

// Event is published after every accepted turn.
type Event struct {
	GameID string
	State  game.State
	At     time.Time
}

// Manager is the in-memory session registry.
type Manager struct {
	sessions *xsync.MapOf[string, *Session]
	ai       *game.AI
	eventCh  chan *Event
	eventSub pubsub.Subscriber[*Event]
	logger   *slog.Logger
}

// NewManager creates a manager whose AI draws from rng (nil for a
// clock-seeded source).
func NewManager(logger *slog.Logger, rng *rand.Rand) *Manager {
	return &Manager{
		sessions: xsync.NewMapOf[string, *Session](),
		ai:       game.NewAI(rng),
		eventCh:  make(chan *Event),
		logger:   logger,
	}
}

// Start runs the event fan-out and the expiry janitor until ctx is done.
func (m *Manager) Start(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		return m.eventSub.Listen(ctx, m.eventCh)
	})

	errg.Go(func() error {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()

			case now := <-ticker.C:
				m.sessions.Range(func(id string, sess *Session) bool {
					if sess.UpdatedAt.Add(sessionExpiry).Before(now) {
						m.logger.Debug(
							"session expired, deleting",
							"game_id", id,
							"updated_at", sess.UpdatedAt)
						m.sessions.Delete(id)
					}
					return true
				})
			}
		}
	})

	return errg.Wait()
}

// Create starts a new game at the given difficulty and registers it.
func (m *Manager) Create(difficulty game.Difficulty) (Session, error) {
	state, err := game.NewState(difficulty)
	if err != nil {
		return Session{}, err
	}
	now := time.Now()
	sess := &Session{
		ID:        uuid.NewString(),
		State:     state,
		StartedAt: now,
		UpdatedAt: now,
	}
	m.sessions.Store(sess.ID, sess)

	m.logger.Debug(
		"game created",
		"game_id", sess.ID,
		"difficulty", difficulty)
	return *sess, nil
}

// Get returns a snapshot of the session if present.
func (m *Manager) Get(id string) (Session, bool) {
	sess, ok := m.sessions.Load(id)
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Play runs one full turn on the session: the user's move at pos and the
// AI's reply when the game continues. The turn runs inside a Compute on
// the registry, so concurrent calls on the same game serialize instead
// of overwriting each other. Engine errors pass through unchanged for
// the caller to map. Terminal sessions stay registered until they expire
// so the final state can still be fetched.
func (m *Manager) Play(id string, pos int) (Session, error) {
	var turnErr error
	updated, _ := m.sessions.Compute(id, func(sess *Session, loaded bool) (*Session, bool) {
		if !loaded {
			turnErr = ErrSessionNotFound
			return nil, true
		}
		next, err := game.CompleteTurn(sess.State, pos, m.ai)
		if err != nil {
			turnErr = err
			return sess, false
		}
		return &Session{
			ID:        sess.ID,
			State:     next,
			StartedAt: sess.StartedAt,
			UpdatedAt: time.Now(),
		}, false
	})
	if turnErr != nil {
		m.logger.Debug(
			"turn rejected",
			"game_id", id,
			"position", pos,
			"err", turnErr)
		return Session{}, turnErr
	}

	m.logger.Debug(
		"turn played",
		"game_id", id,
		"position", pos,
		"ai_move", updated.State.LastAIMove,
		"result", updated.State.Result)

	m.eventCh <- &Event{GameID: id, State: updated.State, At: updated.UpdatedAt}
	return *updated, nil
}

// Forfeit drops a session before it finishes. Reports whether a session
// was actually removed.
func (m *Manager) Forfeit(id string) bool {
	_, ok := m.sessions.LoadAndDelete(id)
	if ok {
		m.logger.Debug("game forfeited", "game_id", id)
	}
	return ok
}

// Subscribe registers ch for turn events passing the filter. A nil
// filter receives everything.
func (m *Manager) Subscribe(ch chan<- *Event, filter func(*Event) bool) {
	if filter == nil {
		filter = func(*Event) bool { return true }
	}
	m.eventSub.Subscribe(ch, filter)
}

// Unsubscribe removes ch from the fan-out.
func (m *Manager) Unsubscribe(ch chan<- *Event) {
	m.eventSub.Unsubscribe(ch)
}
