package service

import "planningpoker/internal/model"

// Broadcaster pushes room changes to realtime subscribers (avoids import cycle)
type Broadcaster interface {
	RoomUpdated(room *model.Room, names map[string]string)
	RoomRemoved(roomID string)
}

type nopBroadcaster struct{}

func (nopBroadcaster) RoomUpdated(*model.Room, map[string]string) {}
func (nopBroadcaster) RoomRemoved(string)                         {}
