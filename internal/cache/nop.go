package cache

import (
	"context"

	"planningpoker/internal/model"
)

type nopRoomCache struct{}

// NewNopRoomCache returns a RoomCache that never holds anything
func NewNopRoomCache() RoomCache { return nopRoomCache{} }

func (nopRoomCache) Get(context.Context, string) (*model.Room, error) { return nil, nil }
func (nopRoomCache) Set(context.Context, *model.Room) error           { return nil }
func (nopRoomCache) Delete(context.Context, string) error             { return nil }

type nopSessionCache struct{}

// NewNopSessionCache returns a SessionCache that never holds anything
func NewNopSessionCache() SessionCache { return nopSessionCache{} }

func (nopSessionCache) Set(context.Context, *model.Session) error           { return nil }
func (nopSessionCache) Get(context.Context, string) (*model.Session, error) { return nil, nil }
func (nopSessionCache) Delete(context.Context, string) error                { return nil }
