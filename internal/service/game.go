package service

import (
	"context"
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
)

type GameService interface {
	SaveSession(ctx context.Context, session *game.Session) error
	LoadSession(ctx context.Context, id string) (*game.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, record *entity.GameRecord) error
	GetByID(ctx context.Context, id string) (*entity.GameRecord, error)
	DeleteByID(ctx context.Context, id string) error
}

type gameService struct {
	gameRepo gameRepo
}

func NewGameService(gameRepo gameRepo) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

func (that *gameService) SaveSession(ctx context.Context, session *game.Session) error {
	if err := that.gameRepo.CreateOrUpdate(ctx, session.Record()); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// LoadSession restores a stored session by replaying its log.
func (that *gameService) LoadSession(ctx context.Context, id string) (*game.Session, error) {
	record, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve session from storage: %w", err)
	}

	session, err := game.FromRecord(record)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}

	return session, nil
}

func (that *gameService) DeleteSession(ctx context.Context, id string) error {
	if err := that.gameRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}
