package model

import "github.com/golang-jwt/jwt/v5"

// SessionClaims are JWT claims for a player session
type SessionClaims struct {
	SessionID string `json:"sid"`
	PlayerID  string `json:"playerId"`
	jwt.RegisteredClaims
}
