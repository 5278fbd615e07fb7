package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
	"github.com/HarshilD05/Super-XO/internal/pkg"
)

type playerService interface {
	GetOrCreate(ctx context.Context, id string) (*entity.Player, error)
	Save(ctx context.Context, player *entity.Player) error
	ClearPreferences(ctx context.Context, id string) error
}

type gameService interface {
	SaveSession(ctx context.Context, session *game.Session) error
	LoadSession(ctx context.Context, id string) (*game.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type botService interface {
	PlanMove(session *game.Session) (game.PendingMove, error)
}

// SessionRequest describes a new session. Empty fields fall back to the
// player's preferences.
type SessionRequest struct {
	Mode       string `json:"mode,omitempty"`
	Opponent   string `json:"opponent,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type liveSession struct {
	mu      sync.Mutex
	session *game.Session

	// unix nanoseconds of the last operation
	lastUsed atomic.Int64
	evicted  atomic.Bool
}

func newLiveSession(session *game.Session, now time.Time) *liveSession {
	live := &liveSession{session: session}
	live.touch(now)

	return live
}

func (that *liveSession) touch(now time.Time) {
	that.lastUsed.Store(now.UnixNano())
}

func (that *liveSession) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, that.lastUsed.Load()))
}

// GameManager owns the live sessions. Every operation on a session runs under
// that session's lock, so human input, undo and delayed bot commits are
// applied one at a time. A live session idle for longer than ttl is checked
// against storage before its next use and is swept by RunSweeper.
type GameManager struct {
	logger        *slog.Logger
	playerService playerService
	gameService   gameService
	botService    botService

	ttl time.Duration
	now func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewGameManager returns a manager whose live sessions expire together with
// their stored copy after ttl. A zero ttl keeps them until released.
func NewGameManager(
	logger *slog.Logger,
	playerService playerService,
	gameService gameService,
	botService botService,
	rnd *rand.Rand,
	ttl time.Duration,
) *GameManager {
	return &GameManager{
		logger:        logger,
		playerService: playerService,
		gameService:   gameService,
		botService:    botService,
		ttl:           ttl,
		now:           time.Now,
		rnd:           rnd,
		sessions:      make(map[string]*liveSession),
	}
}

// StartSession replaces the player's active session with a new one.
func (that *GameManager) StartSession(ctx context.Context, playerID string, req SessionRequest) (*game.View, error) {
	log := that.logger.With("method", "StartSession", "playerID", playerID)

	player, err := that.playerService.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed get player by id: %w", err)
	}

	mode, opponent, difficulty, err := resolveRequest(req, player.Preferences)
	if err != nil {
		return nil, err
	}

	if player.GameID != "" {
		that.dropSession(ctx, player.GameID)
	}

	_, botMark := that.randomMarks()
	session := game.NewSession(pkg.GenerateGameID(), mode, opponent, difficulty, botMark)

	player.GameID = session.ID
	player.Preferences.Mode = mode
	if opponent == entity.OpponentBot {
		player.Preferences.Difficulty = difficulty
	}

	if err = that.playerService.Save(ctx, player); err != nil {
		return nil, fmt.Errorf("failed update player: %w", err)
	}

	if err = that.gameService.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed create session: %w", err)
	}

	that.mu.Lock()
	that.sessions[session.ID] = newLiveSession(session, that.now())
	that.mu.Unlock()

	log.Info("session started", "sessionID", session.ID, "mode", mode, "opponent", opponent, "botMark", session.BotMark)

	return session.View(), nil
}

func resolveRequest(req SessionRequest, prefs entity.Preferences) (entity.Mode, entity.Opponent, entity.Difficulty, error) {
	rawMode := req.Mode
	if rawMode == "" {
		rawMode = string(prefs.Mode)
	}
	if rawMode == "" {
		rawMode = string(entity.ModeNormal)
	}

	mode, err := entity.ParseMode(rawMode)
	if err != nil {
		return "", "", "", err
	}

	rawOpponent := req.Opponent
	if rawOpponent == "" {
		rawOpponent = string(entity.OpponentBot)
	}

	opponent, err := entity.ParseOpponent(rawOpponent)
	if err != nil {
		return "", "", "", err
	}

	rawDifficulty := req.Difficulty
	if rawDifficulty == "" {
		rawDifficulty = string(prefs.Difficulty)
	}

	difficulty, err := entity.ParseDifficulty(rawDifficulty)
	if err != nil {
		return "", "", "", err
	}

	return mode, opponent, difficulty, nil
}

func (that *GameManager) randomMarks() (entity.Mark, entity.Mark) {
	that.rndMu.Lock()
	defer that.rndMu.Unlock()

	return entity.RandomMarks(that.rnd)
}

// ActiveSessionID returns the id of the player's current session, empty when
// there is none.
func (that *GameManager) ActiveSessionID(ctx context.Context, playerID string) (string, error) {
	player, err := that.playerService.GetOrCreate(ctx, playerID)
	if err != nil {
		return "", fmt.Errorf("failed get player by id: %w", err)
	}

	return player.GameID, nil
}

func (that *GameManager) State(ctx context.Context, sessionID string) (*game.View, error) {
	var view *game.View

	err := that.withSession(ctx, sessionID, func(session *game.Session) error {
		view = session.View()
		return nil
	})

	return view, err
}

func (that *GameManager) Move(ctx context.Context, sessionID string, move entity.Move) (*game.View, error) {
	return that.mutate(ctx, sessionID, func(session *game.Session) error {
		return session.ApplyHumanMove(move)
	})
}

func (that *GameManager) Undo(ctx context.Context, sessionID string) (*game.View, error) {
	return that.mutate(ctx, sessionID, func(session *game.Session) error {
		return session.Undo()
	})
}

func (that *GameManager) Redo(ctx context.Context, sessionID string) (*game.View, error) {
	return that.mutate(ctx, sessionID, func(session *game.Session) error {
		return session.Redo()
	})
}

// Reset starts the session over and removes the stored copy.
func (that *GameManager) Reset(ctx context.Context, sessionID string) (*game.View, error) {
	log := that.logger.With("method", "Reset", "sessionID", sessionID)

	var view *game.View

	err := that.withSession(ctx, sessionID, func(session *game.Session) error {
		_, botMark := that.randomMarks()
		session.Reset(botMark)

		if err := that.gameService.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
			log.Error("failed to delete stored session", "error", err)
		}

		view = session.View()

		return nil
	})

	return view, err
}

// PlanBotMove computes the bot move for the current position. The bool is
// false when it is not the bot's turn.
func (that *GameManager) PlanBotMove(ctx context.Context, sessionID string) (game.PendingMove, bool, error) {
	var (
		pending game.PendingMove
		planned bool
	)

	err := that.withSession(ctx, sessionID, func(session *game.Session) error {
		if !session.IsBotTurn() {
			return nil
		}

		var err error
		if pending, err = that.botService.PlanMove(session); err != nil {
			return fmt.Errorf("failed plan bot move: %w", err)
		}

		planned = true

		return nil
	})

	return pending, planned, err
}

// CommitBotMove plays a planned bot move. A move planned before the last
// change of the session fails with apperror.ErrStaleMove.
func (that *GameManager) CommitBotMove(ctx context.Context, sessionID string, pending game.PendingMove) (*game.View, error) {
	return that.mutate(ctx, sessionID, func(session *game.Session) error {
		return session.CommitBotMove(pending)
	})
}

func (that *GameManager) GetPreferences(ctx context.Context, playerID string) (entity.Preferences, error) {
	player, err := that.playerService.GetOrCreate(ctx, playerID)
	if err != nil {
		return entity.Preferences{}, fmt.Errorf("failed get player by id: %w", err)
	}

	return player.Preferences, nil
}

func (that *GameManager) SetPreferences(ctx context.Context, playerID string, prefs entity.Preferences) (entity.Preferences, error) {
	difficulty, err := entity.ParseDifficulty(string(prefs.Difficulty))
	if err != nil {
		return entity.Preferences{}, err
	}

	if prefs.Mode != "" {
		if _, err = entity.ParseMode(string(prefs.Mode)); err != nil {
			return entity.Preferences{}, err
		}
	}

	player, err := that.playerService.GetOrCreate(ctx, playerID)
	if err != nil {
		return entity.Preferences{}, fmt.Errorf("failed get player by id: %w", err)
	}

	player.Preferences = entity.Preferences{Difficulty: difficulty, Mode: prefs.Mode}
	if err = that.playerService.Save(ctx, player); err != nil {
		return entity.Preferences{}, fmt.Errorf("failed update player: %w", err)
	}

	return player.Preferences, nil
}

// ClearPreferences forgets the stored preferences and returns the defaults.
func (that *GameManager) ClearPreferences(ctx context.Context, playerID string) (entity.Preferences, error) {
	if err := that.playerService.ClearPreferences(ctx, playerID); err != nil {
		return entity.Preferences{}, fmt.Errorf("failed clear preferences: %w", err)
	}

	return that.GetPreferences(ctx, playerID)
}

// mutate runs change under the session lock and stores the result.
func (that *GameManager) mutate(ctx context.Context, sessionID string, change func(*game.Session) error) (*game.View, error) {
	var view *game.View

	err := that.withSession(ctx, sessionID, func(session *game.Session) error {
		if err := change(session); err != nil {
			return err
		}

		if err := that.gameService.SaveSession(ctx, session); err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}

		view = session.View()

		return nil
	})

	return view, err
}

// withSession runs fn on the live session. A session evicted while fn was
// waiting for the lock is looked up again, and a session idle past the ttl is
// only used while its stored copy still exists.
func (that *GameManager) withSession(ctx context.Context, sessionID string, fn func(*game.Session) error) error {
	for attempt := 0; attempt < 2; attempt++ {
		live, err := that.getSession(ctx, sessionID)
		if err != nil {
			return err
		}

		live.mu.Lock()

		if live.evicted.Load() {
			live.mu.Unlock()
			continue
		}

		if err = that.checkExpired(ctx, live); err != nil {
			live.mu.Unlock()
			return err
		}

		live.touch(that.now())
		err = fn(live.session)
		live.mu.Unlock()

		return err
	}

	return fmt.Errorf("failed get session %s: %w", sessionID, apperror.ErrSessionNotFound)
}

// checkExpired evicts a live session whose stored copy expired while it was
// idle. The caller holds live.mu.
func (that *GameManager) checkExpired(ctx context.Context, live *liveSession) error {
	if that.ttl <= 0 || live.idleSince(that.now()) <= that.ttl {
		return nil
	}

	sessionID := live.session.ID

	_, err := that.gameService.LoadSession(ctx, sessionID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		that.evict(sessionID, live)
		that.logger.Info("expired session evicted", "method", "checkExpired", "sessionID", sessionID)

		return fmt.Errorf("failed get session %s: %w", sessionID, err)
	}

	if err != nil {
		return fmt.Errorf("failed check session %s: %w", sessionID, err)
	}

	return nil
}

// getSession returns the live session, restoring it from storage when this
// process has not seen it yet.
func (that *GameManager) getSession(ctx context.Context, sessionID string) (*liveSession, error) {
	that.mu.Lock()
	live, ok := that.sessions[sessionID]
	that.mu.Unlock()

	if ok {
		return live, nil
	}

	session, err := that.gameService.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed get session %s: %w", sessionID, err)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	// another request may have restored it first
	if live, ok = that.sessions[sessionID]; ok {
		return live, nil
	}

	live = newLiveSession(session, that.now())
	that.sessions[sessionID] = live

	that.logger.Info("session restored", "method", "getSession", "sessionID", sessionID, "cursor", session.Record().Cursor)

	return live, nil
}

// evict removes live from the map unless it was already replaced.
func (that *GameManager) evict(sessionID string, live *liveSession) {
	live.evicted.Store(true)

	that.mu.Lock()
	defer that.mu.Unlock()

	if that.sessions[sessionID] == live {
		delete(that.sessions, sessionID)
	}
}

// Release forgets the live copy of a session. The stored copy stays, so the
// next request restores it.
func (that *GameManager) Release(sessionID string) {
	that.mu.Lock()
	live, ok := that.sessions[sessionID]
	that.mu.Unlock()

	if ok {
		that.evict(sessionID, live)
	}
}

// SweepIdle evicts the live sessions idle for longer than the ttl and returns
// how many were evicted.
func (that *GameManager) SweepIdle() int {
	if that.ttl <= 0 {
		return 0
	}

	now := that.now()

	that.mu.Lock()
	defer that.mu.Unlock()

	swept := 0
	for id, live := range that.sessions {
		if live.idleSince(now) > that.ttl {
			live.evicted.Store(true)
			delete(that.sessions, id)
			swept++
		}
	}

	return swept
}

// RunSweeper calls SweepIdle every interval until ctx is done.
func (that *GameManager) RunSweeper(ctx context.Context, interval time.Duration) error {
	log := that.logger.With("method", "RunSweeper")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if swept := that.SweepIdle(); swept > 0 {
				log.Info("idle sessions swept", "count", swept)
			}
		}
	}
}

func (that *GameManager) dropSession(ctx context.Context, sessionID string) {
	log := that.logger.With("method", "dropSession", "sessionID", sessionID)

	that.Release(sessionID)

	if err := that.gameService.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, apperror.ErrSessionNotFound) {
		log.Error("failed to delete session", "error", err)
		return
	}

	log.Info("session dropped")
}
