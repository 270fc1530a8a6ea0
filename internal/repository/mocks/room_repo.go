// Package mocks holds testify mocks of the repository interfaces.
package mocks

import (
	"context"

	"planningpoker/internal/model"

	"github.com/stretchr/testify/mock"
)

// RoomRepo is a mock of repository.RoomRepo
type RoomRepo struct {
	mock.Mock
}

func (m *RoomRepo) Insert(ctx context.Context, room *model.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepo) GetByRoomID(ctx context.Context, roomID string) (*model.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*model.Room)
	return room, args.Error(1)
}

func (m *RoomRepo) Delete(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

func (m *RoomRepo) SetLocked(ctx context.Context, roomID string, locked bool) error {
	args := m.Called(ctx, roomID, locked)
	return args.Error(0)
}

func (m *RoomRepo) SetRevealed(ctx context.Context, roomID string, revealed bool) error {
	args := m.Called(ctx, roomID, revealed)
	return args.Error(0)
}

func (m *RoomRepo) SetCurrentStoryURL(ctx context.Context, roomID, url string) error {
	args := m.Called(ctx, roomID, url)
	return args.Error(0)
}

func (m *RoomRepo) AddParticipant(ctx context.Context, roomID string, p *model.Participant) error {
	args := m.Called(ctx, roomID, p)
	return args.Error(0)
}

func (m *RoomRepo) SetVote(ctx context.Context, roomID, playerID, vote string, requireHidden bool) error {
	args := m.Called(ctx, roomID, playerID, vote, requireHidden)
	return args.Error(0)
}
