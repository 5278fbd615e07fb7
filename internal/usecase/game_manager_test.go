package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/bot"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
	"github.com/HarshilD05/Super-XO/internal/service"
	"github.com/HarshilD05/Super-XO/internal/valuetable"
)

var errRedisDown = errors.New("redis down")

const sessionTTL = time.Hour

type fixture struct {
	manager  *GameManager
	players  *mockPlayerService
	sessions *mockGameService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	engine := bot.NewEngine(rand.New(rand.NewSource(1)), valuetable.Default(), false) //nolint: gosec // it's ok

	players := &mockPlayerService{}
	sessions := &mockGameService{}
	t.Cleanup(func() {
		players.AssertExpectations(t)
		sessions.AssertExpectations(t)
	})

	manager := NewGameManager(
		logger,
		players,
		sessions,
		service.NewBotService(logger, engine),
		rand.New(rand.NewSource(1)), //nolint: gosec // it's ok
		sessionTTL,
	)

	return &fixture{manager: manager, players: players, sessions: sessions}
}

// restore makes the manager load session from storage on first use.
func (that *fixture) restore(session *game.Session) {
	that.sessions.On("LoadSession", mock.Anything, session.ID).Return(session, nil).Once()
}

func TestGameManager_StartSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a bot session from the player preferences", func(t *testing.T) {
		// Given: a player who prefers super games on medium
		f := newFixture(t)
		player := &entity.Player{ID: "p1", Preferences: entity.Preferences{Difficulty: entity.DifficultyMedium, Mode: entity.ModeSuper}}

		f.players.On("GetOrCreate", mock.Anything, "p1").Return(player, nil).Once()
		f.players.On("Save", mock.Anything, mock.MatchedBy(func(p *entity.Player) bool {
			return p.GameID != ""
		})).Return(nil).Once()
		f.sessions.On("SaveSession", mock.Anything, mock.AnythingOfType("*game.Session")).Return(nil).Once()

		// When: a session is started without options
		view, err := f.manager.StartSession(ctx, "p1", SessionRequest{})

		// Then: the preferences decide the session
		require.NoError(t, err)
		assert.Equal(t, entity.ModeSuper, view.Mode)
		assert.Equal(t, entity.OpponentBot, view.Opponent)
		assert.Equal(t, entity.DifficultyMedium, view.Difficulty)
		assert.True(t, view.BotMark.IsPlayer())
		assert.Equal(t, view.ID, player.GameID)
	})

	t.Run("Replaces the previous session", func(t *testing.T) {
		// Given: a player with an active session
		f := newFixture(t)
		player := &entity.Player{ID: "p1", GameID: "old", Preferences: entity.Preferences{Difficulty: entity.DifficultyEasy}}

		f.players.On("GetOrCreate", mock.Anything, "p1").Return(player, nil).Once()
		f.players.On("Save", mock.Anything, player).Return(nil).Once()
		f.sessions.On("DeleteSession", mock.Anything, "old").Return(fmt.Errorf("wrapped: %w", apperror.ErrSessionNotFound)).Once()
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()

		// When: a pvp session is started
		view, err := f.manager.StartSession(ctx, "p1", SessionRequest{Mode: "normal", Opponent: "pvp"})

		// Then: the new session has no bot and the player points to it
		require.NoError(t, err)
		assert.NotEqual(t, "old", view.ID)
		assert.Empty(t, view.BotMark)
		assert.Equal(t, view.ID, player.GameID)
		assert.Equal(t, entity.ModeNormal, player.Preferences.Mode)
	})

	t.Run("Unknown mode is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.players.On("GetOrCreate", mock.Anything, "p1").Return(&entity.Player{ID: "p1"}, nil).Once()

		_, err := f.manager.StartSession(ctx, "p1", SessionRequest{Mode: "ultra"})

		require.ErrorIs(t, err, apperror.ErrUnknownMode)
	})

	t.Run("Storage failure is returned", func(t *testing.T) {
		f := newFixture(t)
		f.players.On("GetOrCreate", mock.Anything, "p1").Return((*entity.Player)(nil), errRedisDown).Once()

		_, err := f.manager.StartSession(ctx, "p1", SessionRequest{})

		require.ErrorIs(t, err, errRedisDown)
	})
}

func TestGameManager_Move(t *testing.T) {
	ctx := context.Background()

	t.Run("Legal move is stored", func(t *testing.T) {
		// Given: a stored pvp session
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", ""))
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()

		// When: X plays the center
		view, err := f.manager.Move(ctx, "s1", entity.NewMove(0, 4))

		// Then: the move is on the board and O is next
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, view.Boards[0][4])
		assert.Equal(t, entity.PlayerO, view.Turn)
	})

	t.Run("Illegal move is not stored", func(t *testing.T) {
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeSuper, entity.OpponentPlayer, "", ""))

		_, err := f.manager.Move(ctx, "s1", entity.NewMove(9, 0))

		require.ErrorIs(t, err, apperror.ErrIllegalMove)
		f.sessions.AssertNotCalled(t, "SaveSession", mock.Anything, mock.Anything)
	})

	t.Run("Unknown session", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.On("LoadSession", mock.Anything, "nope").Return((*game.Session)(nil), apperror.ErrSessionNotFound).Once()

		_, err := f.manager.Move(ctx, "nope", entity.NewMove(0, 0))

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Session is loaded once", func(t *testing.T) {
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", ""))

		_, err := f.manager.State(ctx, "s1")
		require.NoError(t, err)
		_, err = f.manager.State(ctx, "s1")
		require.NoError(t, err)

		f.sessions.AssertNumberOfCalls(t, "LoadSession", 1)
	})

	t.Run("Concurrent moves are serialized", func(t *testing.T) {
		// Given: a pvp session and nine players racing for the cells
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", ""))
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil)

		_, err := f.manager.State(ctx, "s1")
		require.NoError(t, err)

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)

		// When: every cell is played at once
		for cell := 0; cell < 9; cell++ {
			cell := cell
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := f.manager.Move(ctx, "s1", entity.NewMove(0, cell)); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		// Then: the cursor counts exactly the accepted moves
		view, err := f.manager.State(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, accepted, view.Cursor)
		assert.Positive(t, accepted)
	})
}

func TestGameManager_BotMoves(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot moves first when it plays X", func(t *testing.T) {
		// Given: a hard bot playing X
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentBot, entity.DifficultyHard, entity.PlayerX))
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()

		// When: the bot move is planned and committed
		pending, planned, err := f.manager.PlanBotMove(ctx, "s1")
		require.NoError(t, err)
		require.True(t, planned)

		view, err := f.manager.CommitBotMove(ctx, "s1", pending)

		// Then: X opened and the human is to move
		require.NoError(t, err)
		assert.Equal(t, 1, view.Cursor)
		assert.Equal(t, entity.PlayerO, view.Turn)
	})

	t.Run("Nothing is planned on the human turn", func(t *testing.T) {
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentBot, entity.DifficultyEasy, entity.PlayerO))

		_, planned, err := f.manager.PlanBotMove(ctx, "s1")

		require.NoError(t, err)
		assert.False(t, planned)
	})

	t.Run("Undo before the commit discards the bot move", func(t *testing.T) {
		// Given: the bot planned an answer to X
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeSuper, entity.OpponentBot, entity.DifficultyEasy, entity.PlayerO))
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Twice()

		_, err := f.manager.Move(ctx, "s1", entity.NewMove(4, 4))
		require.NoError(t, err)

		pending, planned, err := f.manager.PlanBotMove(ctx, "s1")
		require.NoError(t, err)
		require.True(t, planned)

		// When: the human undoes before the delayed commit
		_, err = f.manager.Undo(ctx, "s1")
		require.NoError(t, err)

		view, err := f.manager.CommitBotMove(ctx, "s1", pending)

		// Then: the commit is stale and the board stays empty
		require.ErrorIs(t, err, apperror.ErrStaleMove)
		assert.Nil(t, view)

		state, err := f.manager.State(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 0, state.Cursor)
		assert.True(t, state.CanRedo)
	})
}

func TestGameManager_UndoRedoReset(t *testing.T) {
	ctx := context.Background()

	t.Run("Nothing to undo", func(t *testing.T) {
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", ""))

		_, err := f.manager.Undo(ctx, "s1")

		require.ErrorIs(t, err, apperror.ErrNothingToUndo)
	})

	t.Run("Redo replays the undone move", func(t *testing.T) {
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", ""))
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Times(3)

		_, err := f.manager.Move(ctx, "s1", entity.NewMove(0, 8))
		require.NoError(t, err)
		_, err = f.manager.Undo(ctx, "s1")
		require.NoError(t, err)

		view, err := f.manager.Redo(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, view.Boards[0][8])
	})

	t.Run("Reset deletes the stored copy", func(t *testing.T) {
		// Given: a session with a move
		f := newFixture(t)
		f.restore(game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", ""))
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()
		f.sessions.On("DeleteSession", mock.Anything, "s1").Return(nil).Once()

		_, err := f.manager.Move(ctx, "s1", entity.NewMove(0, 0))
		require.NoError(t, err)

		// When: the session is reset
		view, err := f.manager.Reset(ctx, "s1")

		// Then: the board is empty
		require.NoError(t, err)
		assert.Equal(t, 0, view.Cursor)
		assert.False(t, view.CanUndo)
	})
}

func TestGameManager_Preferences(t *testing.T) {
	ctx := context.Background()

	t.Run("Invalid difficulty is rejected", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.manager.SetPreferences(ctx, "p1", entity.Preferences{Difficulty: "insane"})

		require.ErrorIs(t, err, apperror.ErrUnknownDifficulty)
	})

	t.Run("Preferences are saved", func(t *testing.T) {
		f := newFixture(t)
		player := &entity.Player{ID: "p1", GameID: "s1"}
		f.players.On("GetOrCreate", mock.Anything, "p1").Return(player, nil).Once()
		f.players.On("Save", mock.Anything, player).Return(nil).Once()

		prefs, err := f.manager.SetPreferences(ctx, "p1", entity.Preferences{Difficulty: entity.DifficultyHard, Mode: entity.ModeSuper})

		require.NoError(t, err)
		assert.Equal(t, entity.Preferences{Difficulty: entity.DifficultyHard, Mode: entity.ModeSuper}, prefs)
		assert.Equal(t, "s1", player.GameID)
	})

	t.Run("Empty difficulty falls back to easy", func(t *testing.T) {
		f := newFixture(t)
		player := &entity.Player{ID: "p1"}
		f.players.On("GetOrCreate", mock.Anything, "p1").Return(player, nil).Once()
		f.players.On("Save", mock.Anything, player).Return(nil).Once()

		prefs, err := f.manager.SetPreferences(ctx, "p1", entity.Preferences{})

		require.NoError(t, err)
		assert.Equal(t, entity.DifficultyEasy, prefs.Difficulty)
	})

	t.Run("Cleared preferences fall back to the defaults", func(t *testing.T) {
		f := newFixture(t)
		f.players.On("ClearPreferences", mock.Anything, "p1").Return(nil).Once()
		f.players.On("GetOrCreate", mock.Anything, "p1").
			Return(&entity.Player{ID: "p1", Preferences: entity.Preferences{Difficulty: entity.DefaultDifficulty}}, nil).Once()

		prefs, err := f.manager.ClearPreferences(ctx, "p1")

		require.NoError(t, err)
		assert.Equal(t, entity.Preferences{Difficulty: entity.DifficultyEasy}, prefs)
		f.players.AssertExpectations(t)
	})

	t.Run("Clear failure is reported", func(t *testing.T) {
		f := newFixture(t)
		f.players.On("ClearPreferences", mock.Anything, "p1").Return(assert.AnError).Once()

		_, err := f.manager.ClearPreferences(ctx, "p1")

		require.ErrorIs(t, err, assert.AnError)
	})
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (that *testClock) Now() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.now
}

func (that *testClock) Advance(d time.Duration) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.now = that.now.Add(d)
}

func (that *fixture) useClock() *testClock {
	clock := &testClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	that.manager.now = clock.Now

	return clock
}

func (that *fixture) liveCount() int {
	that.manager.mu.Lock()
	defer that.manager.mu.Unlock()

	return len(that.manager.sessions)
}

// startPvP starts a fresh pvp session for playerID.
func (that *fixture) startPvP(t *testing.T, playerID string) string {
	t.Helper()

	that.players.On("GetOrCreate", mock.Anything, playerID).Return(&entity.Player{ID: playerID}, nil).Once()

	view, err := that.manager.StartSession(context.Background(), playerID, SessionRequest{Mode: "normal", Opponent: "pvp"})
	require.NoError(t, err)

	return view.ID
}

func TestGameManager_Expiry(t *testing.T) {
	ctx := context.Background()

	t.Run("Idle sessions are swept", func(t *testing.T) {
		// Given: many players who started a session each
		f := newFixture(t)
		clock := f.useClock()
		f.players.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil)

		for i := 0; i < 50; i++ {
			f.startPvP(t, fmt.Sprintf("p%d", i))
		}
		require.Equal(t, 50, f.liveCount())

		// When: the sessions stay idle for less than the ttl
		clock.Advance(sessionTTL / 2)

		// Then: nothing is swept
		assert.Zero(t, f.manager.SweepIdle())
		assert.Equal(t, 50, f.liveCount())

		// When: they stay idle past the ttl
		clock.Advance(sessionTTL)

		// Then: every one of them is gone from memory
		assert.Equal(t, 50, f.manager.SweepIdle())
		assert.Zero(t, f.liveCount())
	})

	t.Run("Used sessions survive the sweep", func(t *testing.T) {
		f := newFixture(t)
		clock := f.useClock()
		f.players.On("Save", mock.Anything, mock.Anything).Return(nil)
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil)

		idle := f.startPvP(t, "p1")
		busy := f.startPvP(t, "p2")

		clock.Advance(sessionTTL - time.Minute)
		_, err := f.manager.Move(ctx, busy, entity.NewMove(0, 4))
		require.NoError(t, err)
		clock.Advance(2 * time.Minute)

		assert.Equal(t, 1, f.manager.SweepIdle())
		assert.Equal(t, 1, f.liveCount())
		assert.NotContains(t, f.manager.sessions, idle)
		assert.Contains(t, f.manager.sessions, busy)
	})

	t.Run("Session with an expired stored copy is not served", func(t *testing.T) {
		// Given: a session whose stored copy expired while it was idle
		f := newFixture(t)
		clock := f.useClock()
		f.players.On("Save", mock.Anything, mock.Anything).Return(nil).Once()
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()

		sessionID := f.startPvP(t, "p1")

		clock.Advance(sessionTTL + time.Second)
		f.sessions.On("LoadSession", mock.Anything, sessionID).Return((*game.Session)(nil), apperror.ErrSessionNotFound).Once()

		// When: a move arrives
		_, err := f.manager.Move(ctx, sessionID, entity.NewMove(0, 4))

		// Then: the session is gone and nothing is written back
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.Zero(t, f.liveCount())
		f.sessions.AssertNumberOfCalls(t, "SaveSession", 1)
	})

	t.Run("Session with a stored copy stays live", func(t *testing.T) {
		f := newFixture(t)
		clock := f.useClock()
		session := game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", "")
		f.restore(session)
		f.restore(session)
		f.sessions.On("SaveSession", mock.Anything, mock.Anything).Return(nil).Once()

		_, err := f.manager.State(ctx, "s1")
		require.NoError(t, err)

		clock.Advance(sessionTTL + time.Second)

		view, err := f.manager.Move(ctx, "s1", entity.NewMove(0, 4))

		require.NoError(t, err)
		assert.Equal(t, 1, view.Cursor)
		assert.Equal(t, 1, f.liveCount())
	})

	t.Run("Released session is restored from storage", func(t *testing.T) {
		f := newFixture(t)
		session := game.NewSession("s1", entity.ModeNormal, entity.OpponentPlayer, "", "")
		f.restore(session)
		f.restore(session)

		_, err := f.manager.State(ctx, "s1")
		require.NoError(t, err)

		f.manager.Release("s1")
		assert.Zero(t, f.liveCount())

		_, err = f.manager.State(ctx, "s1")
		require.NoError(t, err)
		f.sessions.AssertNumberOfCalls(t, "LoadSession", 2)
	})

	t.Run("Sweeper stops with the context", func(t *testing.T) {
		f := newFixture(t)
		sweepCtx, cancel := context.WithCancel(ctx)
		cancel()

		assert.NoError(t, f.manager.RunSweeper(sweepCtx, time.Millisecond))
	})
}
