package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/repository"
)

// PlayerService keeps the preferences and the active session id of a player.
type PlayerService interface {
	GetOrCreate(ctx context.Context, id string) (*entity.Player, error)
	Save(ctx context.Context, player *entity.Player) error
	ClearPreferences(ctx context.Context, id string) error
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type playerService struct {
	playerRepo        playerRepo
	defaultDifficulty entity.Difficulty
}

func NewPlayerService(playerRepo playerRepo, defaultDifficulty entity.Difficulty) PlayerService {
	if defaultDifficulty == "" {
		defaultDifficulty = entity.DefaultDifficulty
	}

	return &playerService{
		playerRepo:        playerRepo,
		defaultDifficulty: defaultDifficulty,
	}
}

// GetOrCreate returns the stored player or a fresh one with default
// preferences. A fresh player is not saved.
func (that *playerService) GetOrCreate(ctx context.Context, id string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		return &entity.Player{
			ID:          id,
			Preferences: entity.Preferences{Difficulty: that.defaultDifficulty},
		}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("get player by id: %w", err)
	}

	if player.Preferences.Difficulty == "" {
		player.Preferences.Difficulty = that.defaultDifficulty
	}

	return player, nil
}

func (that *playerService) Save(ctx context.Context, player *entity.Player) error {
	if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return fmt.Errorf("save player: %w", err)
	}

	return nil
}

// ClearPreferences forgets the preferences but keeps the active session.
func (that *playerService) ClearPreferences(ctx context.Context, id string) error {
	player, err := that.GetOrCreate(ctx, id)
	if err != nil {
		return err
	}

	player.Preferences = entity.Preferences{}

	return that.Save(ctx, player)
}
