package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"planningpoker/internal/model"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// recordingBroadcaster remembers what was pushed
type recordingBroadcaster struct {
	mu      sync.Mutex
	updated []string
	removed []string
}

func (b *recordingBroadcaster) RoomUpdated(room *model.Room, _ map[string]string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updated = append(b.updated, room.RoomID)
}

func (b *recordingBroadcaster) RoomRemoved(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, roomID)
}

// mapRoomCache is an in-process RoomCache whose writes can be made to fail
type mapRoomCache struct {
	mu      sync.Mutex
	rooms   map[string]model.Room
	failSet bool
}

func newMapRoomCache() *mapRoomCache {
	return &mapRoomCache{rooms: make(map[string]model.Room)}
}

func (c *mapRoomCache) Get(_ context.Context, roomID string) (*model.Room, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.rooms[roomID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (c *mapRoomCache) Set(_ context.Context, room *model.Room) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSet {
		return errors.New("redis: connection pool timeout")
	}
	c.rooms[room.RoomID] = *room
	return nil
}

func (c *mapRoomCache) Delete(_ context.Context, roomID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
	return nil
}

func (c *mapRoomCache) has(roomID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.rooms[roomID]
	return ok
}

func (c *mapRoomCache) setFailing(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSet = fail
}
