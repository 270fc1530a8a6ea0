package mocks

import (
	"context"
	"time"

	"planningpoker/internal/model"

	"github.com/stretchr/testify/mock"
)

// PlayerRepo is a mock of repository.PlayerRepo
type PlayerRepo struct {
	mock.Mock
}

func (m *PlayerRepo) Create(ctx context.Context, player *model.Player) error {
	args := m.Called(ctx, player)
	return args.Error(0)
}

func (m *PlayerRepo) GetByID(ctx context.Context, id string) (*model.Player, error) {
	args := m.Called(ctx, id)
	player, _ := args.Get(0).(*model.Player)
	return player, args.Error(1)
}

func (m *PlayerRepo) GetByPlayerID(ctx context.Context, playerID string) (*model.Player, error) {
	args := m.Called(ctx, playerID)
	player, _ := args.Get(0).(*model.Player)
	return player, args.Error(1)
}

func (m *PlayerRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Player, error) {
	args := m.Called(ctx, sessionID)
	player, _ := args.Get(0).(*model.Player)
	return player, args.Error(1)
}

func (m *PlayerRepo) GetByIDs(ctx context.Context, ids []string) ([]*model.Player, error) {
	args := m.Called(ctx, ids)
	players, _ := args.Get(0).([]*model.Player)
	return players, args.Error(1)
}

func (m *PlayerRepo) Touch(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
