// Package mocks holds testify mocks of the cache interfaces.
package mocks

import (
	"context"

	"planningpoker/internal/model"

	"github.com/stretchr/testify/mock"
)

// RoomCache is a mock of cache.RoomCache
type RoomCache struct {
	mock.Mock
}

func (m *RoomCache) Get(ctx context.Context, roomID string) (*model.Room, error) {
	args := m.Called(ctx, roomID)
	room, _ := args.Get(0).(*model.Room)
	return room, args.Error(1)
}

func (m *RoomCache) Set(ctx context.Context, room *model.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomCache) Delete(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// SessionCache is a mock of cache.SessionCache
type SessionCache struct {
	mock.Mock
}

func (m *SessionCache) Set(ctx context.Context, session *model.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *SessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	session, _ := args.Get(0).(*model.Session)
	return session, args.Error(1)
}

func (m *SessionCache) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
