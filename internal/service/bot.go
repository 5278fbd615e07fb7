package service

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/HarshilD05/Super-XO/internal/apperror"
	"github.com/HarshilD05/Super-XO/internal/bot"
	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
)

type BotService interface {
	PlanMove(session *game.Session) (game.PendingMove, error)
}

type moveSelector interface {
	SelectMove(snapshot bot.Snapshot, tier bot.Tier, mover entity.Mark) (entity.Move, bool)
}

type botService struct {
	logger *slog.Logger
	engine moveSelector
}

func NewBotService(logger *slog.Logger, engine moveSelector) BotService {
	return &botService{
		logger: logger,
		engine: engine,
	}
}

func (that *botService) PlanMove(session *game.Session) (game.PendingMove, error) {
	log := that.logger.With("method", "PlanMove", "sessionID", session.ID)

	pending, err := session.PlanBotMove(that.engine)
	if errors.Is(err, apperror.ErrNoLegalMoves) {
		if validateErr := session.Snapshot().Validate(); validateErr != nil {
			log.Warn("bot got a malformed snapshot", "error", validateErr)
		}
	}

	if err != nil {
		return game.PendingMove{}, fmt.Errorf("bot failed to plan move: %w", err)
	}

	log.Debug("bot planned move",
		"tier", bot.TierFor(session.Mode, session.Difficulty).String(),
		"board", pending.Move.Board,
		"cell", pending.Move.Cell,
		"generation", pending.Generation,
	)

	return pending, nil
}
