package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/HarshilD05/Super-XO/internal/entity"
	"github.com/HarshilD05/Super-XO/internal/game"
)

type mockPlayerService struct {
	mock.Mock
}

func (that *mockPlayerService) GetOrCreate(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)

	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

func (that *mockPlayerService) Save(ctx context.Context, player *entity.Player) error {
	return that.Called(ctx, player).Error(0)
}

func (that *mockPlayerService) ClearPreferences(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}

type mockGameService struct {
	mock.Mock
}

func (that *mockGameService) SaveSession(ctx context.Context, session *game.Session) error {
	return that.Called(ctx, session).Error(0)
}

func (that *mockGameService) LoadSession(ctx context.Context, id string) (*game.Session, error) {
	args := that.Called(ctx, id)

	session, _ := args.Get(0).(*game.Session)

	return session, args.Error(1)
}

func (that *mockGameService) DeleteSession(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}
