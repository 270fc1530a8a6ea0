package model

import "time"

// Player is an identity that can sit in rooms
type Player struct {
	ID         string    `json:"id" bson:"_id,omitempty"`  // internal id, referenced by Participant
	PlayerID   string    `json:"playerId" bson:"playerId"` // external id handed to clients
	SessionID  string    `json:"-" bson:"sessionId"`       // never serialized to clients
	Name       string    `json:"name" bson:"name"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt" bson:"lastSeenAt"`
}

// RegisterRequest is the request body for creating a player
type RegisterRequest struct {
	Name string `json:"name"`
}

// SessionResponse is returned when a player is registered
type SessionResponse struct {
	PlayerID  string `json:"playerId"`
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	Name      string `json:"name"`
}
