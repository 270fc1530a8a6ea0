package model

// Realtime message types pushed to room subscribers
const (
	MsgRoomUpdated = "room_updated"
	MsgRoomRemoved = "room_removed"
)

// RoomRemovedPayload is sent when a room is deleted
type RoomRemovedPayload struct {
	RoomID string `json:"roomId"`
}
