package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"planningpoker/internal/model"

	"github.com/redis/go-redis/v9"
)

// RoomCache holds read-through snapshots of rooms
type RoomCache interface {
	Get(ctx context.Context, roomID string) (*model.Room, error)
	Set(ctx context.Context, room *model.Room) error
	Delete(ctx context.Context, roomID string) error
}

type roomCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomCache creates a new room cache
func NewRoomCache(client *redis.Client, ttl time.Duration) RoomCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &roomCache{
		client: client,
		ttl:    ttl,
	}
}

func roomKey(roomID string) string {
	return fmt.Sprintf("room:%s", roomID)
}

func (c *roomCache) Get(ctx context.Context, roomID string) (*model.Room, error) {
	data, err := c.client.Get(ctx, roomKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *roomCache) Set(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roomKey(room.RoomID), data, c.ttl).Err()
}

func (c *roomCache) Delete(ctx context.Context, roomID string) error {
	return c.client.Del(ctx, roomKey(roomID)).Err()
}
