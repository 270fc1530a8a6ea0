package model

import "time"

// Session binds an opaque session id to the player that owns it
type Session struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"playerId"` // internal Player.ID
	CreatedAt time.Time `json:"createdAt"`
}
